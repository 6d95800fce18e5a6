package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/acm-sigapp/club-backend/internal/email"
	"github.com/acm-sigapp/club-backend/internal/metrics"
)

// Outcome is the terminal state of one delivery: either some transport
// accepted the message, or every configuration was exhausted.
type Outcome int

const (
	Delivered Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "failed"
}

const subject = "Confirm your subscription"

// Notifier attempts delivery through an ordered list of transports with a
// short fixed delay between attempts. It reports the outcome and nothing
// else; what to do about a Failed delivery is the caller's policy.
type Notifier struct {
	transports []email.Transport
	retryDelay time.Duration
	logger     *slog.Logger
}

func New(transports []email.Transport, retryDelay time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		transports: transports,
		retryDelay: retryDelay,
		logger:     logger.With("component", "notifier"),
	}
}

// Deliver emails the verification link, trying each transport in order.
// The first success wins. Total latency is bounded by the per-transport
// timeouts plus the fixed inter-attempt delays.
func (n *Notifier) Deliver(ctx context.Context, to, verifyLink string) Outcome {
	body := verificationBody(verifyLink)

	for i, t := range n.transports {
		if i > 0 && n.retryDelay > 0 {
			select {
			case <-ctx.Done():
				metrics.DeliveryOutcomes.WithLabelValues(Failed.String()).Inc()
				return Failed
			case <-time.After(n.retryDelay):
			}
		}

		err := t.Send(ctx, to, subject, body)
		if err == nil {
			metrics.DeliveryAttempts.WithLabelValues(t.Name(), "ok").Inc()
			metrics.DeliveryOutcomes.WithLabelValues(Delivered.String()).Inc()
			n.logger.Info("verification email delivered", "to", to, "transport", t.Name())
			return Delivered
		}

		metrics.DeliveryAttempts.WithLabelValues(t.Name(), "error").Inc()
		n.logger.Warn("delivery attempt failed", "to", to, "transport", t.Name(), "error", err)
	}

	metrics.DeliveryOutcomes.WithLabelValues(Failed.String()).Inc()
	n.logger.Error("all delivery transports exhausted", "to", to, "transports", len(n.transports))
	return Failed
}

func verificationBody(link string) string {
	return `<p>Thanks for subscribing to the newsletter!</p>` +
		`<p>Click the link below to confirm your email (expires in 24 hours):</p>` +
		`<p><a href="` + link + `">` + link + `</a></p>`
}
