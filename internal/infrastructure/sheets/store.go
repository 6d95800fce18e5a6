package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/acm-sigapp/club-backend/internal/domain"
	"github.com/acm-sigapp/club-backend/internal/repository"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// rowsClient is the slice of the Sheets API the store needs. The concrete
// implementation talks to Google; tests substitute a fake to exercise the
// row addressing without the network.
type rowsClient interface {
	getRange(ctx context.Context, rng string) ([][]any, error)
	appendRow(ctx context.Context, rng string, row []any) error
	updateCell(ctx context.Context, rng string, value any) error
	// deleteRows removes the given 0-indexed rows, in the order given,
	// within a single batch request.
	deleteRows(ctx context.Context, rows []int64) error
}

// Store implements repository.SubscriptionRepository over a spreadsheet
// holding one subscription per row: Email | Timestamp | Status | Token | Expiry.
// Rows are addressed by their 1-indexed position; there is no header row.
type Store struct {
	client rowsClient
	sheet  string
}

var _ repository.SubscriptionRepository = (*Store)(nil)

// New connects to the spreadsheet using a service-account credentials JSON
// blob and resolves the numeric sheet ID needed for row deletion.
func New(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string) (*Store, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	meta, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	var sheetID int64 = -1
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sheetName {
			sheetID = sh.Properties.SheetId
			break
		}
	}
	if sheetID < 0 {
		return nil, fmt.Errorf("sheet %q not found in spreadsheet", sheetName)
	}

	return &Store{
		client: &googleClient{svc: svc, spreadsheetID: spreadsheetID, sheetID: sheetID},
		sheet:  sheetName,
	}, nil
}

func (s *Store) Emails(ctx context.Context) ([]string, error) {
	values, err := s.client.getRange(ctx, s.sheet+"!A:A")
	if err != nil {
		return nil, fmt.Errorf("read email column: %w", err)
	}

	emails := make([]string, 0, len(values))
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		emails = append(emails, strings.ToLower(asString(row[0])))
	}
	return emails, nil
}

func (s *Store) Append(ctx context.Context, rec domain.SubscriptionRecord) error {
	row := []any{
		rec.Email,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		string(rec.Status),
		rec.Token,
		rec.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if err := s.client.appendRow(ctx, s.sheet+"!A:E", row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (s *Store) FindByToken(ctx context.Context, token string) (*repository.Positioned, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.Record.Token != "" && p.Record.Token == token {
			return &p, nil
		}
	}
	return nil, domain.ErrTokenInvalid
}

// SetStatus writes the status cell (column C) of the given 1-indexed row.
func (s *Store) SetStatus(ctx context.Context, row int, status domain.Status) error {
	rng := fmt.Sprintf("%s!C%d", s.sheet, row)
	if err := s.client.updateCell(ctx, rng, string(status)); err != nil {
		return fmt.Errorf("update status cell %s: %w", rng, err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) ([]repository.Positioned, error) {
	values, err := s.client.getRange(ctx, s.sheet+"!A:E")
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	out := make([]repository.Positioned, 0, len(values))
	for i, row := range values {
		rec := parseRow(row)
		if rec.Email == "" {
			continue
		}
		out = append(out, repository.Positioned{Row: i + 1, Record: rec})
	}
	return out, nil
}

// DeleteRows removes the given 1-indexed rows. Rows are deleted highest
// first so earlier deletions do not shift the positions of later ones.
func (s *Store) DeleteRows(ctx context.Context, rows []int) error {
	if len(rows) == 0 {
		return nil
	}

	ordered := make([]int, len(rows))
	copy(ordered, rows)
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	zeroIdx := make([]int64, len(ordered))
	for i, r := range ordered {
		zeroIdx[i] = int64(r - 1)
	}
	if err := s.client.deleteRows(ctx, zeroIdx); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.getRange(ctx, s.sheet+"!A1"); err != nil {
		return fmt.Errorf("ping spreadsheet: %w", err)
	}
	return nil
}

// parseRow tolerates short rows: older entries may miss token or expiry
// columns and still count as records for duplicate detection.
func parseRow(row []any) domain.SubscriptionRecord {
	var rec domain.SubscriptionRecord
	if len(row) > 0 {
		rec.Email = strings.ToLower(strings.TrimSpace(asString(row[0])))
	}
	if len(row) > 1 {
		rec.CreatedAt = parseTime(asString(row[1]))
	}
	if len(row) > 2 {
		rec.Status = domain.Status(asString(row[2]))
	}
	if len(row) > 3 {
		rec.Token = asString(row[3])
	}
	if len(row) > 4 {
		rec.ExpiresAt = parseTime(asString(row[4]))
	}
	return rec
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// googleClient is the production rowsClient backed by the Sheets API.
type googleClient struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetID       int64
}

func (c *googleClient) getRange(ctx context.Context, rng string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *googleClient) appendRow(ctx context.Context, rng string, row []any) error {
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, rng, &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (c *googleClient) updateCell(ctx context.Context, rng string, value any) error {
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rng, &sheets.ValueRange{Values: [][]any{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (c *googleClient) deleteRows(ctx context.Context, rows []int64) error {
	reqs := make([]*sheets.Request, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    c.sheetID,
					Dimension:  "ROWS",
					StartIndex: r,
					EndIndex:   r + 1,
				},
			},
		})
	}
	_, err := c.svc.Spreadsheets.
		BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	return err
}
