package event_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"mandi-billing/internal/core"
	"mandi-billing/internal/event"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *core.TaxInvoice {
	return &core.TaxInvoice{
		ID:             7,
		TenantID:       1,
		BuyerID:        20,
		InvoiceNumber:  "INV-20260314-020",
		InvoiceDate:    "2026-03-14",
		LotIDs:         []int{3, 4},
		IdempotencyKey: core.InvoiceIdempotencyKey(1, 20, "2026-03-14", []int{3, 4}),
		Calculations:   core.InvoiceCalculations{TotalAmount: decimal.RequireFromString("22386.00")},
	}
}

func TestNewInvoiceEvent(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.FixedZone("IST", 19800))
	ev := event.NewInvoiceEvent(sampleInvoice(), at)

	assert.Equal(t, event.EventInvoiceGenerated, ev.Type)
	assert.Equal(t, 7, ev.InvoiceID)
	assert.Equal(t, []int{3, 4}, ev.LotIDs)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"invoice_number":"INV-20260314-020"`)
	assert.Contains(t, string(body), `"total_amount":"22386"`)
}

func TestInvoicePublisher_PublishesToQueue(t *testing.T) {
	_ = godotenv.Load("../../.env")
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set — skipping RabbitMQ integration test")
	}

	queue := "invoice_events_test"
	pub, err := event.Dial(url, queue)
	require.NoError(t, err)
	defer pub.Close()
	assert.True(t, pub.Healthy())

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	_, err = ch.QueuePurge(queue, false)
	require.NoError(t, err)

	require.NoError(t, pub.InvoiceGenerated(context.Background(), sampleInvoice()))

	var msg amqp.Delivery
	var ok bool
	require.Eventually(t, func() bool {
		msg, ok, err = ch.Get(queue, true)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)

	var ev event.InvoiceEvent
	require.NoError(t, json.Unmarshal(msg.Body, &ev))
	assert.Equal(t, "INV-20260314-020", ev.InvoiceNumber)
	assert.Equal(t, sampleInvoice().IdempotencyKey, msg.MessageId)
}
