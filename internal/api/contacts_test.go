package api

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"socialflow/internal/models"
)

func TestContactsCSVQuotesSpecialCharacters(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	contacts := []models.Contact{
		{Name: `Acme, Inc. "EU"`, Phone: "111", Email: "eu@acme.test", Tags: "vip,beta", OptedIn: true, CreatedAt: created},
		{Name: "Plain", Phone: "222", CreatedAt: created},
	}

	out, err := contactsCSV(contacts)
	if err != nil {
		t.Fatalf("csv build failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("export is not parseable CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[1][0] != `Acme, Inc. "EU"` {
		t.Fatalf("name with comma and quotes corrupted: %q", records[1][0])
	}
	if records[1][3] != "vip,beta" {
		t.Fatalf("tags with comma corrupted: %q", records[1][3])
	}
	if records[1][5] != "true" || records[2][5] != "false" {
		t.Fatalf("opt-in column corrupted: %q / %q", records[1][5], records[2][5])
	}
}
