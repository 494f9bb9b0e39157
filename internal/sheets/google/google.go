package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contas/internal/core"
	"contas/internal/sheets"

	gsheet "google.golang.org/api/sheets/v4"
)

var _ sheets.TransactionMirror = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// New creates a Sheets client. OAuth user credentials are used when an OAuth
// client is configured, service account credentials otherwise.
func New(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	opts, err := clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheet)
	return NewWithService(svc, spreadsheetID, sheet), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = "Ledger"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

// AppendTransactions appends the rows after the last filled row of the sheet.
func (c *Client) AppendTransactions(ctx context.Context, txs []core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(txs) == 0 {
		return "", nil
	}

	values := make([][]any, len(txs))
	for i, t := range txs {
		values[i] = sheets.Row(t)
	}
	rng := fmt.Sprintf("%s!A:%c", c.sheet, 'A'+len(sheets.Header)-1)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transactions mirrored to sheet", "rows", len(txs), "range", ref)
	return ref, nil
}

// EnsureHeader writes the header row when the sheet's first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	first := c.sheet + "!A1:A1"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, first).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", first, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheet+"!A1", &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
