// Package service holds the one-time code sign-in flow and the ways a code
// reaches the user: straight through a mailer or via the RabbitMQ queue.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/iliyamo/library-seat-reservation/internal/config"
)

// MailerSendMailer sends codes through the MailerSend API.
type MailerSendMailer struct {
	Client    *mailersend.Mailersend
	FromEmail string
	FromName  string
	Subject   string
	Logger    *slog.Logger
}

// NewMailerSendMailer builds a mailer from MAILERSEND_API_KEY and MAIL_FROM_*.
func NewMailerSendMailer(cfg config.MailConfig, logger *slog.Logger) *MailerSendMailer {
	return &MailerSendMailer{
		Client:    mailersend.NewMailersend(cfg.APIKey),
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Subject:   cfg.Subject,
		Logger:    logger,
	}
}

// SendOTP mails code to the recipient.
func (m *MailerSendMailer) SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error {
	text, html := otpBody(code, expiresAt)

	message := m.Client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.FromName, Email: m.FromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(m.Subject)
	message.SetText(text)
	message.SetHTML(html)

	res, err := m.Client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.Logger.Info("otp email sent", slog.String("message_id", res.Header.Get("X-Message-Id")))
	return nil
}

// LogMailer writes codes to the log instead of mailing them.  It is used
// when no MailerSend key is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendOTP(_ context.Context, to, code string, expiresAt time.Time) error {
	m.Logger.Info("otp code (mail disabled)",
		slog.String("to", to),
		slog.String("code", code),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}

// MailerDelivery delivers codes synchronously through a mailer.
type MailerDelivery struct {
	Mailer interface {
		SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error
	}
}

func (d MailerDelivery) Deliver(ctx context.Context, email, code string, expiresAt time.Time) error {
	return d.Mailer.SendOTP(ctx, email, code, expiresAt)
}

func otpBody(code string, expiresAt time.Time) (text, html string) {
	mins := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if mins < 1 {
		mins = 1
	}
	text = fmt.Sprintf("Your library seat login code is %s. It expires in %d minutes.", code, mins)
	html = fmt.Sprintf("<p>Your library seat login code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, mins)
	return text, html
}
