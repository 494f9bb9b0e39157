package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"contas/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu       sync.Mutex
	paths    []string
	bodies   []gsheet.ValueRange
	firstRow [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &vr)
		f.bodies = append(f.bodies, vr)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Ledger!A2:I3", "updatedRows": len(vr.Values)},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Ledger!A1:A1", "values": f.firstRow})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &vr)
		f.bodies = append(f.bodies, vr)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func TestAppendTransactions(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendTransactions(context.Background(), []core.Transaction{
		{ID: 1, Date: core.NewDate(2025, 1, 1), AccountName: "Expenses", Kind: core.Income, Amount: core.Money{Cents: 1000}, Tag: core.TagOrdinary},
		{ID: 2, Date: core.NewDate(2025, 1, 2), AccountName: "Expenses", Kind: core.Expense, Amount: core.Money{Cents: 250}, Tag: core.TagOrdinary},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Ledger!A2:I3" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.bodies) != 1 || len(fake.bodies[0].Values) != 2 {
		t.Fatalf("expected one append with two rows, got %+v", fake.bodies)
	}
	if got := fake.bodies[0].Values[1][4]; got != "-2.50" {
		t.Fatalf("expected signed amount -2.50, got %v", got)
	}
	if !strings.Contains(fake.paths[0], "/v4/spreadsheets/sheet-id/values/Ledger!A:I:append") {
		t.Fatalf("unexpected request path %q", fake.paths[0])
	}
}

func TestAppendNothing(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	if _, err := c.AppendTransactions(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.paths) != 0 {
		t.Fatalf("no request expected, got %v", fake.paths)
	}
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if len(fake.bodies) != 1 || fake.bodies[0].Values[0][0] != "ID" {
		t.Fatalf("expected header write, got %+v", fake.bodies)
	}

	fake = &fakeSheets{firstRow: [][]any{{"ID"}}}
	c = newTestClient(t, fake)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if len(fake.bodies) != 0 {
		t.Fatalf("header already present, expected no write")
	}
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendTransactions(context.Background(), []core.Transaction{{ID: 1}}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), " ", "Ledger"); err == nil {
		t.Fatalf("expected error for missing spreadsheet id")
	}
}
