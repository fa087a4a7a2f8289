package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ndiayelabs/boutique-api/internal/orders/domain"
)

// Event types consumed by the external mailer service.
const (
	EventOrderCreated  = "OrderCreated"
	EventOrderStatus   = "OrderStatusChanged"
	producerName       = "boutique-api"
	invoiceContentType = "application/pdf"
)

// Envelope is the wire format for order notification events.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderCreatedPayload announces a new order. The invoice travels along,
// base64-encoded, so the mailer can attach it to the confirmation email.
type OrderCreatedPayload struct {
	Order              domain.Order `json:"order"`
	InvoiceBase64      string       `json:"invoice_base64,omitempty"`
	InvoiceContentType string       `json:"invoice_content_type,omitempty"`
}

// StatusChangedPayload carries the transition so the mailer can route the
// right template: confirmation, shipment, or a generic status update.
type StatusChangedPayload struct {
	Order          domain.Order       `json:"order"`
	PreviousStatus domain.OrderStatus `json:"previous_status"`
}

// KafkaNotifier publishes order events to the topic the mailer consumes.
type KafkaNotifier struct {
	writer  *kafka.Writer
	metrics *Metrics
}

// NewKafkaNotifier builds a notifier writing to topic on the given brokers.
// The metrics parameter may be nil.
func NewKafkaNotifier(brokers []string, topic string, m *Metrics) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		metrics: m,
	}
}

func (n *KafkaNotifier) OrderCreated(ctx context.Context, order domain.Order, invoicePDF []byte) error {
	payload := OrderCreatedPayload{Order: order}
	if len(invoicePDF) > 0 {
		payload.InvoiceBase64 = base64.StdEncoding.EncodeToString(invoicePDF)
		payload.InvoiceContentType = invoiceContentType
	}
	return n.publish(ctx, EventOrderCreated, order.ID, payload)
}

func (n *KafkaNotifier) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	return n.publish(ctx, EventOrderStatus, order.ID, StatusChangedPayload{
		Order:          order,
		PreviousStatus: previous,
	})
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType, orderID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	envelope, err := json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   producerName,
		Payload:    raw,
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}

	start := time.Now()
	writeErr := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: envelope,
	})
	if n.metrics != nil {
		n.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), writeErr == nil)
	}
	if writeErr != nil {
		return fmt.Errorf("publish %s: %w", eventType, writeErr)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
