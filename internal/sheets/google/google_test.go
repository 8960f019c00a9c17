package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"spendlog/internal/core"

	goption "google.golang.org/api/option"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := resolveCredentials("", ""); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	got, err := resolveCredentials(` {"type":"service_account"} `, "/ignored")
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials: %q %v", got, err)
	}

	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = resolveCredentials("", file)
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", file)
	if got, err = resolveCredentials("", ""); err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("ADC fallback: %q %v", got, err)
	}

	if _, err := resolveCredentials("", "/non/existent.json"); err == nil {
		t.Fatal("expected read error")
	}
}

func TestBuildRows(t *testing.T) {
	rows := buildRows([]core.Expense{
		{ID: "1", Date: "2024-03-05T10:00:00.000Z", Description: "=SUM(A1)", Category: "Food", Amount: 12.5},
	})
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][3] != "Amount" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "=SUM(A1)" || rows[1][3] != 12.5 {
		t.Errorf("unexpected row %v", rows[1])
	}

	if got := buildRows(nil); len(got) != 1 {
		t.Errorf("empty export should still write the header, got %d rows", len(got))
	}
}

func TestExport_AgainstFakeAPI(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
		written  struct {
			Values [][]any `json:"values"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests = append(requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &written)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		SheetName:     "Mirror",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Export(context.Background(), []core.Expense{
		{ID: "a", Date: "2024-03-05", Description: "Lunch", Category: "Food", Amount: 250},
		{ID: "b", Date: "2024-03-04", Description: "Bus", Category: "Transport", Amount: 20},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Rows != 2 || res.Range != "Mirror!A1:D3" {
		t.Errorf("unexpected result %+v", res)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 2 {
		t.Fatalf("expected clear + update, got %v", requests)
	}
	if !strings.HasPrefix(requests[0], "POST ") || !strings.Contains(requests[0], ":clear") {
		t.Errorf("first call should clear, got %s", requests[0])
	}
	if !strings.HasPrefix(requests[1], "PUT ") || !strings.Contains(requests[1], "valueInputOption=RAW") {
		t.Errorf("second call should write RAW values, got %s", requests[1])
	}
	if len(written.Values) != 3 || written.Values[1][1] != "Lunch" {
		t.Errorf("unexpected values written: %v", written.Values)
	}
}

func TestExport_Uninitialized(t *testing.T) {
	var c Client
	if _, err := c.Export(context.Background(), nil); err == nil {
		t.Fatal("expected error from client without service")
	}
}
