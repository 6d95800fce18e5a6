package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	mail "gopkg.in/mail.v2"
)

// Transport is one way of getting an email out the door. The notifier walks
// an ordered list of transports until one succeeds.
type Transport interface {
	Name() string
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Verifier is implemented by transports that can probe their connection
// without sending anything.
type Verifier interface {
	VerifyConnection(ctx context.Context) bool
}

// SMTPConfig describes one SMTP rung of the delivery ladder. The same host
// is typically listed twice: once for STARTTLS on 587 and once for implicit
// TLS on 465.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	ImplicitTLS bool
	Timeout     time.Duration
}

// SMTPTransport sends mail through a single SMTP configuration.
type SMTPTransport struct {
	cfg SMTPConfig
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Name() string {
	return fmt.Sprintf("smtp:%s:%d", t.cfg.Host, t.cfg.Port)
}

func (t *SMTPTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", t.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := mail.NewDialer(t.cfg.Host, t.cfg.Port, t.cfg.Username, t.cfg.Password)
	dialer.Timeout = t.cfg.Timeout
	dialer.SSL = t.cfg.ImplicitTLS

	// mail.v2 has no context support; run the blocking send in a goroutine
	// so a cancelled context does not hold the caller past its deadline.
	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send via %s:%d: %w", t.cfg.Host, t.cfg.Port, err)
		}
		return nil
	}
}

// VerifyConnection dials and authenticates without sending a message.
func (t *SMTPTransport) VerifyConnection(ctx context.Context) bool {
	dialer := mail.NewDialer(t.cfg.Host, t.cfg.Port, t.cfg.Username, t.cfg.Password)
	dialer.Timeout = t.cfg.Timeout
	dialer.SSL = t.cfg.ImplicitTLS

	done := make(chan error, 1)
	go func() {
		sc, err := dialer.Dial()
		if err == nil {
			_ = sc.Close()
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return false
	case err := <-done:
		return err == nil
	}
}

// ResendTransport sends through the Resend HTTP API. Configured as the last
// rung of the ladder so a broken SMTP path does not strand subscribers.
type ResendTransport struct {
	client *resend.Client
	from   string
}

func NewResendTransport(apiKey, from string) *ResendTransport {
	return &ResendTransport{client: resend.NewClient(apiKey), from: from}
}

func (t *ResendTransport) Name() string { return "resend" }

func (t *ResendTransport) Send(ctx context.Context, to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}
	if _, err := t.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// LogTransport logs emails instead of sending them — used in ENV=local.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(_ context.Context, to, subject, htmlBody string) error {
	t.logger.Info("verification email (local dev)", "to", to, "subject", subject, "body", htmlBody)
	return nil
}
