package repository

import (
	"context"

	"github.com/acm-sigapp/club-backend/internal/domain"
)

// Positioned pairs a record with its 1-indexed row in the backing store.
// Row numbers are only valid until the next mutation of the store.
type Positioned struct {
	Row    int
	Record domain.SubscriptionRecord
}

// Usecase and sweeper depend on this interface, not the concrete store.
// This way we get: 1) can swap the backing store without touching callers
// 2) tests can pass a fake implementation.
type SubscriptionRepository interface {
	// Emails returns every email currently in the store, lower-cased.
	Emails(ctx context.Context) ([]string, error)
	Append(ctx context.Context, rec domain.SubscriptionRecord) error
	// FindByToken returns the record holding the token and its row number.
	// A missing token yields domain.ErrTokenInvalid.
	FindByToken(ctx context.Context, token string) (*Positioned, error)
	SetStatus(ctx context.Context, row int, status domain.Status) error

	// Sweeper methods.
	All(ctx context.Context) ([]Positioned, error)
	// DeleteRows removes the given rows. Implementations must order the
	// deletes so earlier removals do not shift later targets.
	DeleteRows(ctx context.Context, rows []int) error

	Ping(ctx context.Context) error
}
