package inbox

import (
	"testing"
	"time"

	"socialflow/internal/models"
	"socialflow/internal/whatsapp"
)

func TestEligibleRecipientsMarketing(t *testing.T) {
	contacts := []models.Contact{
		{ID: "a", Phone: "111", OptedIn: true},
		{ID: "b", Phone: "222", OptedIn: false},
		{ID: "c", Phone: "333", OptedIn: true},
		{ID: "d", Phone: "444", OptedIn: false},
	}

	eligible := EligibleRecipients(contacts, whatsapp.CategoryMarketing)
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible contacts, got %d", len(eligible))
	}
	if eligible[0].ID != "a" || eligible[1].ID != "c" {
		t.Fatalf("expected exactly the opted-in subset in order, got %v", eligible)
	}
}

func TestEligibleRecipientsUtilityUnrestricted(t *testing.T) {
	contacts := []models.Contact{
		{ID: "a", OptedIn: false},
		{ID: "b", OptedIn: true},
	}

	for _, category := range []string{whatsapp.CategoryUtility, whatsapp.CategoryAuthentication} {
		eligible := EligibleRecipients(contacts, category)
		if len(eligible) != 2 {
			t.Fatalf("%s: expected all contacts eligible, got %d", category, len(eligible))
		}
	}
}

func TestEligibleRecipientsEmpty(t *testing.T) {
	eligible := EligibleRecipients(nil, whatsapp.CategoryMarketing)
	if len(eligible) != 0 {
		t.Fatalf("expected empty result, got %v", eligible)
	}
}

func TestBuildLastMessageIndex(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{ContactPhone: "111", Content: "old", Timestamp: base},
		{ContactPhone: "222", Content: "only", Timestamp: base.Add(time.Minute)},
		{ContactPhone: "111", Content: "new", Timestamp: base.Add(2 * time.Minute)},
		{ContactPhone: "111", Content: "middle", Timestamp: base.Add(time.Minute)},
		{ContactPhone: "", Content: "orphan", Timestamp: base.Add(3 * time.Minute)},
	}

	index := BuildLastMessageIndex(messages)
	if len(index) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(index))
	}
	if index["111"].Content != "new" {
		t.Fatalf("expected newest message kept for 111, got %q", index["111"].Content)
	}
	if index["222"].Content != "only" {
		t.Fatalf("expected single message kept for 222, got %q", index["222"].Content)
	}
}

func TestCanAdvanceMessageStatus(t *testing.T) {
	cases := []struct {
		current, next string
		want          bool
	}{
		{"sent", "delivered", true},
		{"sent", "read", true},
		{"delivered", "read", true},
		{"sent", "failed", true},
		{"delivered", "sent", false},
		{"read", "delivered", false},
		{"read", "sent", false},
		{"failed", "delivered", false},
		{"sent", "sent", false},
		{"received", "read", false},
		{"sent", "bogus", false},
	}

	for _, tc := range cases {
		if got := CanAdvanceMessageStatus(tc.current, tc.next); got != tc.want {
			t.Fatalf("%s -> %s: expected %t, got %t", tc.current, tc.next, tc.want, got)
		}
	}
}
