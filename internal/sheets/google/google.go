package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"saldo/internal/core"
	applog "saldo/internal/log"
	ports "saldo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// Ensure interface conformance
var (
	_ ports.LedgerWriter = (*Client)(nil)
	_ ports.LedgerReader = (*Client)(nil)
)

type Config struct {
	SpreadsheetID string
	SheetName     string

	// Service account credentials: inline JSON wins over the file path.
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a ledger client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName}
}

func credentials(ctx context.Context, cfg Config) ([]byte, error) {
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

// UpsertTransactions rewrites rows whose id is already present and appends
// the rest. The header is written when the sheet is empty.
func (c *Client) UpsertTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}
	index := rowIndex(ids)

	var (
		updates  []*gsheet.ValueRange
		appended [][]any
	)
	if len(ids) == 0 {
		appended = append(appended, toAny(ports.Header))
	}
	for _, tx := range txs {
		row := toAny(ports.Row(tx))
		if n, ok := index[tx.ID]; ok {
			updates = append(updates, &gsheet.ValueRange{
				Range:  c.rowRange(n),
				Values: [][]any{row},
			})
			continue
		}
		appended = append(appended, row)
	}

	if len(updates) > 0 {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             updates,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update rows in sheet %s: %w", c.sheet, err)
		}
	}

	if len(appended) > 0 {
		rng := fmt.Sprintf("%s!A:%s", c.sheet, ports.LastColumn)
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: appended}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append rows to sheet %s: %w", c.sheet, err)
		}
	}

	slog.InfoContext(ctx, "Ledger rows written",
		applog.FieldComponent, applog.ComponentSheets,
		"sheet", c.sheet,
		"updated", len(updates),
		"appended", len(txs)-len(updates))
	return nil
}

// DeleteTransactions clears the rows of ids. Row positions are kept so
// concurrent readers never see shifted rows.
func (c *Client) DeleteTransactions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	column, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}
	index := rowIndex(column)

	var ranges []string
	for _, id := range ids {
		if n, ok := index[id]; ok {
			ranges = append(ranges, c.rowRange(n))
		}
	}
	if len(ranges) == 0 {
		slog.DebugContext(ctx, "No ledger rows to clear", "ids", ids)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear rows in sheet %s: %w", c.sheet, err)
	}

	slog.InfoContext(ctx, "Ledger rows cleared",
		applog.FieldComponent, applog.ComponentSheets,
		"sheet", c.sheet,
		applog.FieldRows, len(ranges))
	return nil
}

// ListRows returns every non-empty row of the ledger sheet.
func (c *Client) ListRows(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheet, ports.LastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheet, err)
	}

	var out [][]string
	for _, row := range resp.Values {
		cells := toStrings(row)
		if len(cells) == 0 {
			continue
		}
		out = append(out, cells)
	}
	return out, nil
}

func (c *Client) readIDColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column of %s: %w", c.sheet, err)
	}
	return resp.Values, nil
}

func (c *Client) rowRange(n int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, n, ports.LastColumn, n)
}

// rowIndex maps transaction ids to 1-based sheet row numbers.
func rowIndex(column [][]any) map[int64]int {
	index := make(map[int64]int, len(column))
	for i, row := range column {
		if len(row) == 0 {
			continue
		}
		if id, ok := ports.ParseID(fmt.Sprint(row[0])); ok {
			index[id] = i + 1
		}
	}
	return index
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
