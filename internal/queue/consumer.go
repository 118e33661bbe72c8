package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer sends a one-time code to an address.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error
}

// StartOTPMailConsumer connects to RabbitMQ, declares the otp.mail queue
// (durable) and mails every message it receives.  It runs a reconnect loop
// with exponential backoff and returns only when ctx is cancelled.
func StartOTPMailConsumer(ctx context.Context, url string, mailer Mailer, logger *slog.Logger) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("otp-mail consumer: dial failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", backoff),
			)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, mailer, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("otp-mail consumer: loop ended, reconnecting", slog.String("error", err.Error()))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, mailer Mailer, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		logger.Warn("otp-mail consumer: set QoS failed", slog.String("error", err.Error()))
	}
	if _, err := ch.QueueDeclare(OTPMailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OTPMailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, mailer, time.Now()); err != nil {
				logger.Error("otp-mail consumer: handle message failed", slog.String("error", err.Error()))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// errExpired marks codes that expired while queued; mailing them is useless.
var errExpired = errors.New("code expired before delivery")

func handleMessage(ctx context.Context, body []byte, mailer Mailer, now time.Time) error {
	var ev OTPMailRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.Code == "" {
		return errors.New("message without email or code")
	}
	if !ev.ExpiresAt.IsZero() && now.After(ev.ExpiresAt) {
		return errExpired
	}
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mailer.SendOTP(sendCtx, ev.Email, ev.Code, ev.ExpiresAt); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
