package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acm-sigapp/club-backend/internal/domain"
)

type fakeClient struct {
	rows      [][]any
	getErr    error
	ranges    []string
	appended  [][]any
	updates   map[string]any
	deleted   []int64
	deleteErr error
}

func (c *fakeClient) getRange(_ context.Context, rng string) ([][]any, error) {
	c.ranges = append(c.ranges, rng)
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.rows, nil
}

func (c *fakeClient) appendRow(_ context.Context, _ string, row []any) error {
	c.appended = append(c.appended, row)
	return nil
}

func (c *fakeClient) updateCell(_ context.Context, rng string, value any) error {
	if c.updates == nil {
		c.updates = map[string]any{}
	}
	c.updates[rng] = value
	return nil
}

func (c *fakeClient) deleteRows(_ context.Context, rows []int64) error {
	c.deleted = rows
	return c.deleteErr
}

func newTestStore(client *fakeClient) *Store {
	return &Store{client: client, sheet: "Sheet1"}
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func TestEmails_LowercasesAndSkipsEmptyRows(t *testing.T) {
	client := &fakeClient{rows: [][]any{
		{"A@SRMIST.edu.in"},
		{},
		{"b@srmist.edu.in"},
	}}

	emails, err := newTestStore(client).Emails(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emails) != 2 || emails[0] != "a@srmist.edu.in" || emails[1] != "b@srmist.edu.in" {
		t.Errorf("emails = %v", emails)
	}
	if client.ranges[0] != "Sheet1!A:A" {
		t.Errorf("read range = %q, want Sheet1!A:A", client.ranges[0])
	}
}

func TestAppend_WritesFiveColumns(t *testing.T) {
	client := &fakeClient{}
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	rec := domain.SubscriptionRecord{
		Email:     "a@srmist.edu.in",
		CreatedAt: created,
		Status:    domain.StatusPending,
		Token:     "deadbeef",
		ExpiresAt: created.Add(24 * time.Hour),
	}

	if err := newTestStore(client).Append(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(client.appended))
	}
	row := client.appended[0]
	want := []any{"a@srmist.edu.in", ts(created), "Pending", "deadbeef", ts(created.Add(24 * time.Hour))}
	if len(row) != 5 {
		t.Fatalf("row has %d columns, want 5", len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestAll_RowsAreOneIndexedAndTolerateShortRows(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	client := &fakeClient{rows: [][]any{
		{"a@srmist.edu.in", ts(now), "Verified", "tok-a", ts(now.Add(time.Hour))},
		{"legacy@srmist.edu.in"}, // pre-verification-era row, email only
		{},
		{"c@srmist.edu.in", ts(now), "Pending", "tok-c", ts(now.Add(time.Hour))},
	}}

	all, err := newTestStore(client).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("got %d records, want 3 (blank row skipped)", len(all))
	}
	if all[0].Row != 1 || all[1].Row != 2 || all[2].Row != 4 {
		t.Errorf("rows = %d,%d,%d, want 1,2,4", all[0].Row, all[1].Row, all[2].Row)
	}
	if all[1].Record.Token != "" || !all[1].Record.ExpiresAt.IsZero() {
		t.Errorf("short row parsed with phantom columns: %+v", all[1].Record)
	}
	if !all[0].Record.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expiry = %v, want %v", all[0].Record.ExpiresAt, now.Add(time.Hour))
	}
}

func TestFindByToken(t *testing.T) {
	now := time.Now()
	client := &fakeClient{rows: [][]any{
		{"a@srmist.edu.in", ts(now), "Pending", "tok-a", ts(now)},
		{"b@srmist.edu.in", ts(now), "Pending", "tok-b", ts(now)},
	}}
	store := newTestStore(client)

	p, err := store.FindByToken(context.Background(), "tok-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Row != 2 || p.Record.Email != "b@srmist.edu.in" {
		t.Errorf("found row %d email %q", p.Row, p.Record.Email)
	}

	if _, err := store.FindByToken(context.Background(), "missing"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("missing token: want ErrTokenInvalid, got %v", err)
	}
}

func TestFindByToken_EmptyTokenNeverMatchesShortRows(t *testing.T) {
	// Legacy rows have no token column; an empty search token must not
	// match them.
	client := &fakeClient{rows: [][]any{
		{"legacy@srmist.edu.in"},
	}}

	if _, err := newTestStore(client).FindByToken(context.Background(), ""); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestSetStatus_AddressesStatusColumn(t *testing.T) {
	client := &fakeClient{}
	if err := newTestStore(client).SetStatus(context.Background(), 7, domain.StatusVerified); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.updates["Sheet1!C7"]; got != "Verified" {
		t.Errorf("update at Sheet1!C7 = %v, want Verified", got)
	}
}

func TestDeleteRows_DescendingZeroIndexed(t *testing.T) {
	client := &fakeClient{}
	if err := newTestStore(client).DeleteRows(context.Background(), []int{2, 9, 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Highest row first, converted to the API's 0-indexed positions, so
	// earlier deletions cannot shift later targets.
	want := []int64{8, 4, 1}
	if len(client.deleted) != len(want) {
		t.Fatalf("deleted = %v, want %v", client.deleted, want)
	}
	for i := range want {
		if client.deleted[i] != want[i] {
			t.Fatalf("deleted = %v, want %v", client.deleted, want)
		}
	}
}

func TestDeleteRows_EmptyIsNoOp(t *testing.T) {
	client := &fakeClient{}
	if err := newTestStore(client).DeleteRows(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.deleted != nil {
		t.Error("delete issued for empty row set")
	}
}

func TestPing_ReadsSingleCell(t *testing.T) {
	client := &fakeClient{}
	if err := newTestStore(client).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ranges[0] != "Sheet1!A1" {
		t.Errorf("ping range = %q, want Sheet1!A1", client.ranges[0])
	}

	client.getErr = errors.New("unauthorized")
	if err := newTestStore(client).Ping(context.Background()); err == nil {
		t.Fatal("expected error when the read fails")
	}
}
