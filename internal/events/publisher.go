// Package events publishes booking lifecycle events after a write commits.
// Publication is best effort: failures are logged and never fail the request.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"travelagency/internal/utils"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BookingCreated        = "booking.created"
	BookingUpdated        = "booking.updated"
	BookingStatusChanged  = "booking.status_changed"
	BookingPaymentUpdated = "booking.payment_updated"
	BookingDeleted        = "booking.deleted"
)

// BookingEvent is the message body. Amounts are decimal strings.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id"`
	ActorID       int64     `json:"actor_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TotalAmount   string    `json:"total_amount,omitempty"`
	PaidAmount    string    `json:"paid_amount,omitempty"`
	PendingAmount string    `json:"pending_amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// AMQPPublisher sends events to a durable RabbitMQ queue on the default
// exchange over one long-lived connection. Dialing is bounded by Timeout and
// the caller's deadline; after a failed dial the broker is skipped for RetryAfter.
type AMQPPublisher struct {
	URL        string
	Queue      string
	Timeout    time.Duration
	RetryAfter time.Duration

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
}

var errBrokerUnavailable = errors.New("event broker unavailable")

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: queue, Timeout: 3 * time.Second, RetryAfter: 30 * time.Second}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(ctx)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt.UTC(),
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
	}
	return err
}

// Close drops the broker connection. Publish redials on next use.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *AMQPPublisher) channelLocked(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	if time.Now().Before(p.downUntil) {
		return nil, errBrokerUnavailable
	}

	deadline, _ := ctx.Deadline()
	dialTimeout := time.Until(deadline)
	if dialTimeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		p.markDownLocked()
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.markDownLocked()
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) markDownLocked() {
	if p.RetryAfter > 0 {
		p.downUntil = time.Now().Add(p.RetryAfter)
	}
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Emit publishes event and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, event BookingEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		utils.Entry(ctx, "EVENTS", event.Type).WithError(err).WithField("booking_id", event.BookingID).Warn("publish failed")
	}
}

// Recorder keeps published events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []BookingEvent
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BookingEvent{}, r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
