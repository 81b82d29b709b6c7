// Package google mirrors transactions into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const DefaultSheetName = "Transactions"

// header is written to row 1 of an empty sheet. Column A holds the unique id
// and is the lookup key for idempotent export and removal.
var header = []any{"Unique ID", "Date", "Type", "Category", "Description", "Amount (INR)", "Original Currency", "Original Amount"}

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// serializes row lookups with the writes that depend on them
	mu sync.Mutex
}

var _ ports.TransactionExporter = (*Exporter)(nil)

// New creates an Exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := serviceAccountCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// serviceAccountCredentials prefers inline JSON, then the file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export writes tx as one row. A transaction already present in column A is
// left alone and its existing row reference returned.
func (e *Exporter) Export(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if row := indexOf(ids, tx.UniqueID); row >= 0 {
		slog.InfoContext(ctx, "Transaction already exported", "unique_id", tx.UniqueID, "row", row+1)
		return e.rowRef(row + 1), nil
	}

	if len(ids) == 0 {
		if err := e.writeRow(ctx, 1, header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		ids = append(ids, "Unique ID")
	}

	next := len(ids) + 1
	if err := e.writeRow(ctx, next, toRow(tx)); err != nil {
		return "", err
	}
	return e.rowRef(next), nil
}

// ExportedIDs returns the unique ids already present in the sheet.
func (e *Exporter) ExportedIDs(ctx context.Context) (map[string]struct{}, error) {
	if e.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.readIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if i == 0 || id == "" {
			continue
		}
		out[id] = struct{}{}
	}
	return out, nil
}

// Remove deletes the row holding uniqueID. A missing row is not an error.
func (e *Exporter) Remove(ctx context.Context, uniqueID string) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, err := e.readIDs(ctx)
	if err != nil {
		return err
	}
	row := indexOf(ids, uniqueID)
	if row < 0 {
		slog.WarnContext(ctx, "Transaction not found in sheet, nothing to remove", "unique_id", uniqueID)
		return nil
	}

	sheetID, err := e.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row),
					EndIndex:        int64(row + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row+1, e.sheetName, err)
	}

	slog.InfoContext(ctx, "Removed transaction row", "unique_id", uniqueID, "row", row+1)
	return nil
}

func (e *Exporter) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if cols := toStrings(row); len(cols) > 0 {
			ids[i] = cols[0]
		}
	}
	return ids, nil
}

func (e *Exporter) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:H%d", e.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (e *Exporter) sheetID(ctx context.Context) (int64, error) {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == e.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", e.sheetName)
}

func (e *Exporter) rowRef(row int) string {
	return fmt.Sprintf("%s!A%d:H%d", e.sheetName, row, row)
}

func toRow(tx core.Transaction) []any {
	kind := "Expense"
	if tx.IsIncome {
		kind = "Income"
	}
	origCurrency, origAmount := "", ""
	if o := tx.Original; o != nil {
		origCurrency, origAmount = o.Currency, o.Amount.String()
	}
	return []any{
		tx.UniqueID,
		tx.Date.Format("2006-01-02 15:04"),
		kind,
		tx.Category,
		tx.Description,
		tx.Amount.String(),
		origCurrency,
		origAmount,
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}
