package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/library-seat-reservation/internal/queue"
)

// QueueDelivery hands codes to the otp.mail queue; the consumer started by
// the server mails them.  Each publish dials its own connection, which is
// fine at the rate codes are requested.
type QueueDelivery struct {
	URL    string
	Logger *slog.Logger
}

// Deliver publishes an OTPMailRequested event.  Errors are logged and
// returned so the send endpoint can report that delivery failed.
func (p *QueueDelivery) Deliver(ctx context.Context, email, code string, expiresAt time.Time) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Error("rabbitmq: dial failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Error("rabbitmq: channel open failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so pending codes survive a broker restart.
	if _, err := ch.QueueDeclare(q.OTPMailQueue, true, false, false, false, nil); err != nil {
		p.Logger.Error("rabbitmq: queue declare failed", slog.String("error", err.Error()))
		return err
	}

	body, err := json.Marshal(q.OTPMailRequested{
		Email:       email,
		Code:        code,
		ExpiresAt:   expiresAt,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Expiration:   expirationMillis(expiresAt),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.OTPMailQueue, false, false, pub); err != nil {
		p.Logger.Error("rabbitmq: publish failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// expirationMillis turns the code expiry into a per-message TTL so the
// broker drops codes nobody could use any more.
func expirationMillis(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return ""
	}
	ms := time.Until(expiresAt).Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10)
}
