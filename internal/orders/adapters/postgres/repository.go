package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
	"github.com/ndiayelabs/boutique-api/internal/orders/ports"
)

// Repository implements ports.OrderRepository and ports.InventoryStore
// on top of a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateOrder reserves stock for every line and inserts the order and its
// items inside one transaction. The product row is locked before the
// check-then-decrement so two concurrent requests cannot both pass the
// stock check; the conditional WHERE on the decrement is kept as a second
// line of defence and doubles as the stock >= quantity re-check.
func (r *Repository) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range order.Items {
		item := &order.Items[i]

		var (
			name       string
			stock      int
			outOfStock bool
		)
		err := tx.QueryRow(ctx,
			`SELECT name, stock, out_of_stock FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID,
		).Scan(&name, &stock, &outOfStock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("select product %s: %w", item.ProductID, err)
		}

		if outOfStock {
			return nil, &domain.OutOfStockError{ProductID: item.ProductID, ProductName: name}
		}
		if stock < item.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   item.ProductID,
				ProductName: name,
				Requested:   item.Quantity,
				Available:   stock,
			}
		}

		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for product %s: %w", item.ProductID, err)
		}
		if ct.RowsAffected() == 0 {
			return nil, &domain.InsufficientStockError{
				ProductID:   item.ProductID,
				ProductName: name,
				Requested:   item.Quantity,
				Available:   stock,
			}
		}

		if item.ProductName == "" {
			item.ProductName = name
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, customer_name, customer_email, customer_phone,
			delivery_address, delivery_city, delivery_country, delivery_method,
			shipping_fee, subtotal, total, status, invoice_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		order.ID,
		order.UserID,
		order.Customer.Name,
		order.Customer.Email,
		order.Customer.Phone,
		order.Delivery.Address,
		order.Delivery.City,
		order.Delivery.Country,
		order.Delivery.Method,
		order.ShippingFee,
		order.Subtotal,
		order.Total,
		order.Status,
		order.InvoiceURL,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, size, color, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.UnitPrice,
			item.Quantity,
			item.Size,
			item.Color,
			item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item for product %s: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order creation: %w", err)
	}

	return &order, nil
}

const orderColumns = `
	id, user_id, customer_name, customer_email, customer_phone,
	delivery_address, delivery_city, delivery_country, delivery_method,
	shipping_fee, subtotal, total, status, tracking_number, invoice_url,
	created_at, updated_at, delivered_at
`

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, page ports.Page) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("query user orders: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text = '' OR id = $2 OR customer_name ILIKE '%' || $2 || '%' OR customer_email ILIKE '%' || $2 || '%')
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, query,
		statusFilter, filter.Search, filter.From, filter.To,
		filter.Page.Size, filter.Page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, update ports.StatusUpdate) error {
	query := `
		UPDATE orders
		SET status = $1,
		    updated_at = $2,
		    delivered_at = COALESCE($3, delivered_at),
		    tracking_number = COALESCE($4, tracking_number)
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query,
		update.Status, time.Now().UTC(), update.DeliveredAt, update.TrackingNumber, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes the line items then the order row. The FK cascade would
// cover the items on its own; the explicit delete keeps the intent visible.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, unit_price, stock, out_of_stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Stock, &p.OutOfStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

// AddStock is the compensating restock increment: a single atomic update.
func (r *Repository) AddStock(ctx context.Context, productID string, quantity int) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment stock for product %s: %w", productID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) collectOrders(ctx context.Context, rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, size, color, line_total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&item.Quantity,
			&item.Size,
			&item.Color,
			&item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order          domain.Order
		trackingNumber *string
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Customer.Phone,
		&order.Delivery.Address,
		&order.Delivery.City,
		&order.Delivery.Country,
		&order.Delivery.Method,
		&order.ShippingFee,
		&order.Subtotal,
		&order.Total,
		&order.Status,
		&trackingNumber,
		&order.InvoiceURL,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	if trackingNumber != nil {
		order.TrackingNumber = *trackingNumber
	}
	return &order, nil
}
