package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/core"
)

// fakeSheets serves the handful of Values endpoints the client uses.
type fakeSheets struct {
	mu        sync.Mutex
	idColumn  [][]any
	updated   []string
	appended  [][]any
	cleared   []string
	lastPaths []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPaths = append(f.lastPaths, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		json.NewEncoder(w).Encode(map[string]any{"range": "Ledger!A:A", "values": f.idColumn})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateValuesRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, vr := range req.Data {
			f.updated = append(f.updated, vr.Range)
		}
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchClear"):
		var req gsheet.BatchClearValuesRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.cleared = append(f.cleared, req.Ranges...)
		w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func tx(id int64, title string) core.Transaction {
	return core.Transaction{
		ID: id, UserID: 1, Title: title, Amount: core.Money{Cents: 1999}, Type: core.Expense,
		Date: core.NewDate(2025, 4, 2), Recurrence: core.RecurrenceOneTime,
	}
}

func TestUpsertTransactions_EmptySheetWritesHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if err := c.UpsertTransactions(context.Background(), []core.Transaction{tx(1, "Books")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(fake.appended) != 2 {
		t.Fatalf("expected header and one row, got %v", fake.appended)
	}
	if fake.appended[0][0] != "ID" || fake.appended[1][2] != "Books" || fake.appended[1][7] != "19.99" {
		t.Fatalf("unexpected appended rows %v", fake.appended)
	}
}

func TestUpsertTransactions_UpdatesExistingRows(t *testing.T) {
	fake := &fakeSheets{idColumn: [][]any{{"ID"}, {"5"}, {}, {"9"}}}
	c := newTestClient(t, fake)

	err := c.UpsertTransactions(context.Background(), []core.Transaction{tx(9, "Edited"), tx(10, "New")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(fake.updated) != 1 || fake.updated[0] != "Ledger!A4:J4" {
		t.Fatalf("unexpected updates %v", fake.updated)
	}
	if len(fake.appended) != 1 || fake.appended[0][0] != "10" {
		t.Fatalf("unexpected appends %v", fake.appended)
	}
}

func TestDeleteTransactions_ClearsKnownRows(t *testing.T) {
	fake := &fakeSheets{idColumn: [][]any{{"ID"}, {"5"}, {"6"}}}
	c := newTestClient(t, fake)

	if err := c.DeleteTransactions(context.Background(), []int64{6, 77}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "Ledger!A3:J3" {
		t.Fatalf("unexpected cleared ranges %v", fake.cleared)
	}

	fake.cleared = nil
	if err := c.DeleteTransactions(context.Background(), []int64{77}); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if len(fake.cleared) != 0 {
		t.Fatalf("nothing should be cleared, got %v", fake.cleared)
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{sheet: DefaultSheetName}
	if err := c.UpsertTransactions(context.Background(), []core.Transaction{tx(1, "a")}); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.UpsertTransactions(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert should be a no-op, got %v", err)
	}
}

func TestRowIndex(t *testing.T) {
	idx := rowIndex([][]any{{"ID"}, {"3"}, {}, {float64(8)}, {"x"}})
	if len(idx) != 2 || idx[3] != 2 || idx[8] != 4 {
		t.Fatalf("unexpected index %v", idx)
	}
}
