package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/acm-sigapp/club-backend/internal/domain"
	"github.com/acm-sigapp/club-backend/internal/metrics"
	"github.com/acm-sigapp/club-backend/internal/notify"
	"github.com/acm-sigapp/club-backend/internal/repository"
)

const (
	tokenBytes = 20
	recordTTL  = 24 * time.Hour
)

// deliverer is the subset of the notifier the usecase needs.
// Defined here (point of use) so tests can inject a fake.
type deliverer interface {
	Deliver(ctx context.Context, to, verifyLink string) notify.Outcome
}

// Ack reports what happened to an accepted submission.
type Ack struct {
	Email string
	// Delivered is true when the verification email went out.
	Delivered bool
	// FallbackVerified is true when delivery failed and the record was
	// force-verified instead of being left permanently pending.
	FallbackVerified bool
}

type SubscriptionUsecase struct {
	repo           repository.SubscriptionRepository
	notifier       deliverer
	logger         *slog.Logger
	emailPattern   *regexp.Regexp
	verifyBase     string
	fallbackVerify bool
}

// NewSubscriptionUsecase builds the usecase. allowedDomain is the
// institutional suffix submissions must carry (e.g. "srmist.edu.in");
// it is a policy constant, not a general email-syntax validator.
func NewSubscriptionUsecase(
	repo repository.SubscriptionRepository,
	notifier deliverer,
	logger *slog.Logger,
	allowedDomain string,
	verifyBase string,
	fallbackVerify bool,
) *SubscriptionUsecase {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(allowedDomain) + `$`)
	return &SubscriptionUsecase{
		repo:           repo,
		notifier:       notifier,
		logger:         logger.With("component", "subscription_usecase"),
		emailPattern:   pattern,
		verifyBase:     strings.TrimSuffix(verifyBase, "/"),
		fallbackVerify: fallbackVerify,
	}
}

// Submit validates and records a new subscription, then attempts to deliver
// the verification link. The caller is only answered once the delivery
// outcome is known; the Ack says whether a confirmation email is on its way
// or the record was fallback-verified.
//
// The duplicate check and the append are two separate store calls, so two
// concurrent submissions of the same address can both pass the check. The
// backing store offers no uniqueness constraint; the race is accepted.
func (u *SubscriptionUsecase) Submit(ctx context.Context, rawEmail string) (Ack, error) {
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	if email == "" {
		metrics.SubscriptionsTotal.WithLabelValues("missing_email").Inc()
		return Ack{}, domain.ErrMissingEmail
	}
	if !u.emailPattern.MatchString(email) {
		metrics.SubscriptionsTotal.WithLabelValues("invalid_domain").Inc()
		return Ack{}, domain.ErrInvalidDomain
	}

	existing, err := u.repo.Emails(ctx)
	if err != nil {
		metrics.SubscriptionsTotal.WithLabelValues("store_error").Inc()
		return Ack{}, fmt.Errorf("%w: list emails: %v", domain.ErrStoreUnavailable, err)
	}
	if slices.Contains(existing, email) {
		metrics.SubscriptionsTotal.WithLabelValues("duplicate").Inc()
		return Ack{}, domain.ErrDuplicateEmail
	}

	token, err := newToken()
	if err != nil {
		return Ack{}, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	rec := domain.SubscriptionRecord{
		Email:     email,
		CreatedAt: now,
		Status:    domain.StatusPending,
		Token:     token,
		ExpiresAt: now.Add(recordTTL),
	}
	if err := u.repo.Append(ctx, rec); err != nil {
		metrics.SubscriptionsTotal.WithLabelValues("store_error").Inc()
		return Ack{}, fmt.Errorf("%w: append record: %v", domain.ErrStoreUnavailable, err)
	}
	metrics.SubscriptionsTotal.WithLabelValues("ok").Inc()

	link := u.verifyBase + "/verify?token=" + token
	if u.notifier.Deliver(ctx, email, link) == notify.Delivered {
		return Ack{Email: email, Delivered: true}, nil
	}

	if !u.fallbackVerify {
		u.logger.Warn("verification email undeliverable, record left pending", "email", email)
		return Ack{Email: email}, nil
	}
	if err := u.forceVerify(ctx, token); err != nil {
		u.logger.Error("fallback verify failed, record left pending", "email", email, "error", err)
		return Ack{Email: email}, nil
	}
	u.logger.Info("record verified without delivery", "email", email)
	return Ack{Email: email, FallbackVerified: true}, nil
}

// forceVerify marks the just-appended record VerifiedWithoutDelivery. The
// append response carries no row position, so the record is located by its
// token.
func (u *SubscriptionUsecase) forceVerify(ctx context.Context, token string) error {
	p, err := u.repo.FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("find record: %w", err)
	}
	if err := u.repo.SetStatus(ctx, p.Row, domain.StatusVerifiedWithoutDelivery); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// Verify transitions the record holding the token from Pending to Verified.
// Re-verifying an already-verified record is a no-op success, so a record
// can never regress out of a verified state. Expiry is not checked here:
// an expired token stops working once the sweeper has deleted its row, and
// a verify racing a sweep simply surfaces as ErrTokenInvalid.
func (u *SubscriptionUsecase) Verify(ctx context.Context, token string) error {
	if token == "" {
		metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
		return domain.ErrTokenInvalid
	}

	p, err := u.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
			return domain.ErrTokenInvalid
		}
		metrics.VerificationsTotal.WithLabelValues("store_error").Inc()
		return fmt.Errorf("%w: find by token: %v", domain.ErrStoreUnavailable, err)
	}

	if p.Record.Status.Verified() {
		metrics.VerificationsTotal.WithLabelValues("repeat").Inc()
		return nil
	}

	if err := u.repo.SetStatus(ctx, p.Row, domain.StatusVerified); err != nil {
		metrics.VerificationsTotal.WithLabelValues("store_error").Inc()
		return fmt.Errorf("%w: set status: %v", domain.ErrStoreUnavailable, err)
	}
	metrics.VerificationsTotal.WithLabelValues("ok").Inc()
	u.logger.Info("subscription verified", "email", p.Record.Email)
	return nil
}

func newToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
