//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"spendlog/internal/core"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_ExportToRealSheet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	now := time.Now()
	res, err := client.Export(ctx, []core.Expense{
		core.NewExpense("integration-1", 12.5, "Integration test", "Others", now.Format(core.DayLayout), now),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if res.Rows != 1 {
		t.Errorf("expected 1 row, got %d", res.Rows)
	}
	t.Logf("Exported to %s", res.Range)
}
