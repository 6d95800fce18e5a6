package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingEmail     = errors.New("email is required")
	ErrInvalidDomain    = errors.New("email domain is not allowed")
	ErrDuplicateEmail   = errors.New("email already subscribed")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrTokenInvalid     = errors.New("token is invalid or expired")
)

// Status is stored verbatim in the record store's status column.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
	// StatusVerifiedWithoutDelivery marks records that were force-verified
	// because every delivery transport failed.
	StatusVerifiedWithoutDelivery Status = "VerifiedWithoutDelivery"
)

// Verified reports whether the record has left the Pending state.
func (s Status) Verified() bool {
	return s == StatusVerified || s == StatusVerifiedWithoutDelivery
}

// SubscriptionRecord is one row of the record store:
// Email | Timestamp | Status | Token | Expiry.
type SubscriptionRecord struct {
	Email     string
	CreatedAt time.Time
	Status    Status
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at the given time.
func (r SubscriptionRecord) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
