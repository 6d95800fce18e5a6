package sweeper_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/acm-sigapp/club-backend/internal/domain"
	"github.com/acm-sigapp/club-backend/internal/repository"
	"github.com/acm-sigapp/club-backend/internal/sweeper"
)

type fakeRepo struct {
	all        func(ctx context.Context) ([]repository.Positioned, error)
	deleteRows func(ctx context.Context, rows []int) error
}

func (r *fakeRepo) Emails(context.Context) ([]string, error) { return nil, nil }
func (r *fakeRepo) Append(context.Context, domain.SubscriptionRecord) error {
	return nil
}
func (r *fakeRepo) FindByToken(context.Context, string) (*repository.Positioned, error) {
	return nil, domain.ErrTokenInvalid
}
func (r *fakeRepo) SetStatus(context.Context, int, domain.Status) error { return nil }
func (r *fakeRepo) All(ctx context.Context) ([]repository.Positioned, error) {
	return r.all(ctx)
}
func (r *fakeRepo) DeleteRows(ctx context.Context, rows []int) error {
	return r.deleteRows(ctx, rows)
}
func (r *fakeRepo) Ping(context.Context) error { return nil }

func newSweeper(t *testing.T, repo *fakeRepo) *sweeper.Sweeper {
	t.Helper()
	s, err := sweeper.New(repo, slog.Default(), "0 * * * *")
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	return s
}

func rec(status domain.Status, expiresAt time.Time) domain.SubscriptionRecord {
	return domain.SubscriptionRecord{
		Email:     "x@srmist.edu.in",
		Status:    status,
		Token:     "tok",
		ExpiresAt: expiresAt,
	}
}

func TestRunOnce_DeletesOnlyExpiredPending(t *testing.T) {
	now := time.Now()
	var deleted []int
	repo := &fakeRepo{
		all: func(context.Context) ([]repository.Positioned, error) {
			return []repository.Positioned{
				{Row: 1, Record: rec(domain.StatusPending, now.Add(-time.Second))},
				{Row: 2, Record: rec(domain.StatusVerified, now.Add(-time.Second))},
				{Row: 3, Record: rec(domain.StatusPending, now.Add(time.Hour))},
				{Row: 4, Record: rec(domain.StatusVerifiedWithoutDelivery, now.Add(-48*time.Hour))},
				{Row: 5, Record: rec(domain.StatusPending, now.Add(-48*time.Hour))},
			}, nil
		},
		deleteRows: func(_ context.Context, rows []int) error {
			deleted = rows
			return nil
		},
	}

	if err := newSweeper(t, repo).RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(deleted) != 2 || deleted[0] != 1 || deleted[1] != 5 {
		t.Errorf("deleted rows = %v, want [1 5]", deleted)
	}
}

func TestRunOnce_NothingExpired_NoDeleteCall(t *testing.T) {
	deleteCalled := false
	repo := &fakeRepo{
		all: func(context.Context) ([]repository.Positioned, error) {
			return []repository.Positioned{
				{Row: 1, Record: rec(domain.StatusPending, time.Now().Add(time.Hour))},
			}, nil
		},
		deleteRows: func(context.Context, []int) error {
			deleteCalled = true
			return nil
		},
	}

	if err := newSweeper(t, repo).RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleteCalled {
		t.Error("DeleteRows called with no expired candidates")
	}
}

func TestRunOnce_ReadFailure_ReturnsError(t *testing.T) {
	readErr := errors.New("sheet unreachable")
	repo := &fakeRepo{
		all: func(context.Context) ([]repository.Positioned, error) {
			return nil, readErr
		},
	}

	if err := newSweeper(t, repo).RunOnce(context.Background()); !errors.Is(err, readErr) {
		t.Errorf("want wrapped read error, got %v", err)
	}
}

func TestRunOnce_DeleteFailure_ReturnsError(t *testing.T) {
	delErr := errors.New("batch update rejected")
	repo := &fakeRepo{
		all: func(context.Context) ([]repository.Positioned, error) {
			return []repository.Positioned{
				{Row: 1, Record: rec(domain.StatusPending, time.Now().Add(-time.Minute))},
			}, nil
		},
		deleteRows: func(context.Context, []int) error { return delErr },
	}

	if err := newSweeper(t, repo).RunOnce(context.Background()); !errors.Is(err, delErr) {
		t.Errorf("want wrapped delete error, got %v", err)
	}
}

func TestStart_SurvivesFailedSweeps(t *testing.T) {
	// A sweep failure must not kill the loop; Start only exits on ctx.
	repo := &fakeRepo{
		all: func(context.Context) ([]repository.Positioned, error) {
			return nil, errors.New("down")
		},
	}
	s, err := sweeper.New(repo, slog.Default(), "* * * * *")
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not shut down on context cancellation")
	}
}

func TestNew_InvalidCronSpec(t *testing.T) {
	if _, err := sweeper.New(&fakeRepo{}, slog.Default(), "not a cron spec"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
