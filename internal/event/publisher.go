// Package event publishes invoice lifecycle events to RabbitMQ.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"mandi-billing/internal/core"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// DefaultQueue receives invoice events when no queue is configured.
const DefaultQueue = "invoice_events"

// EventInvoiceGenerated is the Type of events emitted for newly stored invoices.
const EventInvoiceGenerated = "invoice.generated"

// InvoiceEvent is the message body published for each new invoice.
type InvoiceEvent struct {
	Type          string          `json:"type"`
	InvoiceID     int             `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TenantID      int             `json:"tenant_id"`
	BuyerID       int             `json:"buyer_id"`
	InvoiceDate   string          `json:"invoice_date"`
	LotIDs        []int           `json:"lot_ids"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewInvoiceEvent builds the event for inv.
func NewInvoiceEvent(inv *core.TaxInvoice, at time.Time) InvoiceEvent {
	return InvoiceEvent{
		Type:          EventInvoiceGenerated,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TenantID:      inv.TenantID,
		BuyerID:       inv.BuyerID,
		InvoiceDate:   inv.InvoiceDate,
		LotIDs:        inv.LotIDs,
		TotalAmount:   inv.Calculations.TotalAmount,
		OccurredAt:    at.UTC(),
	}
}

// InvoicePublisher implements core.InvoiceNotifier over a durable RabbitMQ queue.
type InvoicePublisher struct {
	conn  *amqp.Connection
	mu    sync.Mutex // amqp channels are not safe for concurrent publishing
	ch    *amqp.Channel
	queue string
}

var _ core.InvoiceNotifier = (*InvoicePublisher)(nil)

// Dial connects to url and declares queue (DefaultQueue when empty).
func Dial(url, queue string) (*InvoicePublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	log.Printf("[EVENT] publishing invoice events to %s", queue)
	return &InvoicePublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *InvoicePublisher) InvoiceGenerated(ctx context.Context, inv *core.TaxInvoice) error {
	body, err := json.Marshal(NewInvoiceEvent(inv, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal invoice event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(
		pubCtx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    inv.IdempotencyKey,
			Type:         EventInvoiceGenerated,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish invoice event: %w", err)
	}
	log.Printf("[EVENT] %s published for %s", EventInvoiceGenerated, inv.InvoiceNumber)
	return nil
}

// Healthy reports whether the broker connection is still open.
func (p *InvoicePublisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *InvoicePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		log.Printf("[EVENT] channel close: %v", err)
	}
	return p.conn.Close()
}
