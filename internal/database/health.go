package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// healthTimeout keeps readiness probes from hanging on a dead database.
const healthTimeout = 2 * time.Second

// CheckHealth pings the pool with a short deadline.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return pool.Ping(ctx)
}
