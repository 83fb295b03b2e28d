package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"schoolaccounts/internal/cache"
	"schoolaccounts/internal/core"
	ports "schoolaccounts/internal/sheets"
)

// DefaultSheetName is the base sheet name; the transaction year is prefixed.
const DefaultSheetName = "Ledger"

const (
	rowIndexSize = 4096
	rowIndexTTL  = 10 * time.Minute
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client mirrors ledger transactions into year-prefixed sheets, one row per
// transaction keyed by the id in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu     sync.Mutex
	sheets map[string]bool
	// rowIndex maps "<sheet>|<id>" to a 1-based row number.
	rowIndex *cache.LRUCache[int]
}

// Ensure interface conformance
var (
	_ ports.LedgerMirror = (*Client)(nil)
	_ ports.MirrorReader = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, cfg.SheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	base := strings.TrimSpace(sheetName)
	if base == "" {
		base = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		sheets:        make(map[string]bool),
		rowIndex:      cache.NewLRUCache[int](rowIndexSize, rowIndexTTL),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when cfg names none.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", "component", "sheets")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "component", "sheets", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SheetFor returns the sheet that holds transactions dated in year.
func (c *Client) SheetFor(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// UpsertTransaction updates the row carrying t.ID or appends a new one.
func (c *Client) UpsertTransaction(ctx context.Context, t core.TransactionDetail) (string, error) {
	if t.ID == "" {
		return "", errors.New("transaction id is required")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.SheetFor(t.Date.Year())
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}
	row, err := c.findRow(ctx, sheet, t.ID)
	if err != nil {
		return "", err
	}

	vr := &gsheet.ValueRange{Values: [][]any{encodeRow(ports.RowFromTransaction(t))}}
	if row > 0 {
		rng := a1(sheet, fmt.Sprintf("A%d:%s%d", row, lastColumn(), row))
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			c.rowIndex.Delete(indexKey(sheet, t.ID))
			return "", fmt.Errorf("failed to update row %d in sheet %s: %w", row, sheet, err)
		}
		return rng, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(sheet, "A:"+lastColumn()), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to append to sheet %s: %w", sheet, err)
	}
	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
		if n := rowNumber(ref); n > 0 {
			c.rowIndex.Set(indexKey(sheet, t.ID), n)
		}
	}
	return ref, nil
}

// ListRows reads every mirrored row of the year's sheet.
func (c *Client) ListRows(ctx context.Context, year int) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := a1(c.SheetFor(year), "A2:"+lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return decodeRows(resp.Values), nil
}

// ensureSheet creates the sheet with its header row when it does not exist.
func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	c.mu.Lock()
	known := c.sheets[sheet]
	c.mu.Unlock()
	if known {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	exists := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		rng := a1(sheet, "A1:"+lastColumn()+"1")
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header to sheet %s: %w", sheet, err)
		}
		slog.InfoContext(ctx, "Created mirror sheet", "component", "sheets", "sheet", sheet)
	}

	c.mu.Lock()
	c.sheets[sheet] = true
	c.mu.Unlock()
	return nil
}

// findRow returns the 1-based row holding id, or 0 when it is not mirrored yet.
func (c *Client) findRow(ctx context.Context, sheet, id string) (int, error) {
	if n, ok := c.rowIndex.Get(indexKey(sheet, id)); ok {
		return n, nil
	}
	rng := a1(sheet, "A:A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read ids from %s: %w", sheet, err)
	}
	found := 0
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || i == 0 {
			continue
		}
		c.rowIndex.Set(indexKey(sheet, v), i+1)
		if v == id {
			found = i + 1
		}
	}
	return found, nil
}

func indexKey(sheet, id string) string {
	return sheet + "|" + id
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
