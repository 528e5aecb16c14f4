//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"studentspend/internal/core"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_GoogleSheetsFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	saJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	saFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if saJSON == "" && saFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, Options{
		SpreadsheetID:      spreadsheetID,
		StudentsSheet:      os.Getenv("GOOGLE_STUDENTS_SHEET"),
		ContactSheet:       os.Getenv("GOOGLE_CONTACT_SHEET"),
		ServiceAccountFile: saFile,
		ServiceAccountJSON: saJSON,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	t.Run("RosterReader", func(t *testing.T) {
		rows, err := client.ReadRoster(ctx)
		if err != nil {
			t.Fatalf("Failed to read roster: %v", err)
		}
		t.Logf("Read %d roster rows", len(rows))
	})

	t.Run("ContactInbox", func(t *testing.T) {
		err := client.AppendContact(ctx, core.ContactMessage{
			Name:    "Integration Test",
			Email:   "integration@university.edu",
			Message: "Automated test message",
		}, time.Now())
		if err != nil {
			t.Fatalf("Failed to append contact: %v", err)
		}
	})
}
