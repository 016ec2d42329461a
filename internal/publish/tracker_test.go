package publish

import (
	"strings"
	"testing"
	"unicode/utf8"

	"socialflow/internal/platform"
)

func newTestTracker(t *testing.T, platforms ...platform.Platform) *Tracker {
	t.Helper()
	rows := make([]Row, 0, len(platforms))
	for _, p := range platforms {
		rows = append(rows, Row{Platform: p, ChannelID: "c-" + string(p)})
	}
	tracker, err := NewTracker(rows)
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}
	return tracker
}

func advance(t *testing.T, tracker *Tracker, p platform.Platform, statuses ...PublishStatus) {
	t.Helper()
	for _, s := range statuses {
		if err := tracker.Advance(p, s, "", ""); err != nil {
			t.Fatalf("advance %s to %s failed: %v", p, s, err)
		}
	}
}

func TestTrackerRejectsDuplicatePlatform(t *testing.T) {
	_, err := NewTracker([]Row{
		{Platform: platform.Facebook},
		{Platform: platform.Facebook},
	})
	if err == nil {
		t.Fatalf("expected duplicate platform to be rejected")
	}
}

func TestTrackerRejectsIllegalTransitions(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing, StatusPublished)

	if err := tracker.Advance(platform.Facebook, StatusPending, "", ""); err == nil {
		t.Fatalf("expected published -> pending to be rejected")
	}
	if err := tracker.Advance(platform.Facebook, StatusFailed, "", "late failure"); err == nil {
		t.Fatalf("expected published -> failed to be rejected")
	}
	if err := tracker.Advance(platform.Instagram, StatusPublished, "", ""); err == nil {
		t.Fatalf("expected pending -> published to be rejected")
	}

	rows := tracker.Rows()
	if rows[0].Status != StatusPublished {
		t.Fatalf("expected facebook row to stay published, got %s", rows[0].Status)
	}
	if rows[1].Status != StatusPending {
		t.Fatalf("expected instagram row to stay pending, got %s", rows[1].Status)
	}
}

func TestTrackerAggregateCompleted(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing, StatusPublished)
	advance(t, tracker, platform.Instagram, StatusQueued, StatusPublishing, StatusPublished)

	if got := tracker.Aggregate(); got != BulkCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if got := tracker.Progress(); got != 100 {
		t.Fatalf("expected 100%% progress, got %d", got)
	}
}

func TestTrackerAggregateFailed(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing)
	if err := tracker.Advance(platform.Facebook, StatusFailed, "", "rate limited"); err != nil {
		t.Fatalf("fail transition rejected: %v", err)
	}
	advance(t, tracker, platform.Instagram, StatusQueued, StatusPublishing)
	if err := tracker.Advance(platform.Instagram, StatusFailed, "", "expired token"); err != nil {
		t.Fatalf("fail transition rejected: %v", err)
	}

	if got := tracker.Aggregate(); got != BulkFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}

func TestTrackerPartialFailureScenario(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram, platform.LinkedIn)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing, StatusPublished)
	advance(t, tracker, platform.Instagram, StatusQueued, StatusPublishing, StatusPublished)
	advance(t, tracker, platform.LinkedIn, StatusQueued, StatusPublishing)
	if err := tracker.Advance(platform.LinkedIn, StatusFailed, "", "rate limited"); err != nil {
		t.Fatalf("fail transition rejected: %v", err)
	}

	if got := tracker.Aggregate(); got != BulkPartial {
		t.Fatalf("expected partial, got %s", got)
	}
	if got := tracker.Progress(); got != 100 {
		t.Fatalf("expected 100%% progress, got %d", got)
	}

	published, failed, pending := tracker.Counts()
	if published != 2 || failed != 1 || pending != 0 {
		t.Fatalf("expected counts 2/1/0, got %d/%d/%d", published, failed, pending)
	}

	// terminal aggregate freezes every row
	if err := tracker.Advance(platform.LinkedIn, StatusCancelled, "", ""); err == nil {
		t.Fatalf("expected mutation after terminal aggregate to be rejected")
	}
}

func TestTrackerProgressMonotonic(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram, platform.Twitter, platform.LinkedIn)

	steps := []struct {
		p      platform.Platform
		status PublishStatus
	}{
		{platform.Facebook, StatusQueued},
		{platform.Instagram, StatusQueued},
		{platform.Twitter, StatusQueued},
		{platform.LinkedIn, StatusQueued},
		{platform.Facebook, StatusPublishing},
		{platform.Facebook, StatusPublished},
		{platform.Instagram, StatusPublishing},
		{platform.Twitter, StatusPublishing},
		{platform.Instagram, StatusFailed},
		{platform.LinkedIn, StatusPublishing},
		{platform.Twitter, StatusPublished},
		{platform.LinkedIn, StatusPublished},
	}

	last := tracker.Progress()
	for _, step := range steps {
		errMsg := ""
		if step.status == StatusFailed {
			errMsg = "boom"
		}
		if err := tracker.Advance(step.p, step.status, "", errMsg); err != nil {
			t.Fatalf("advance %s to %s failed: %v", step.p, step.status, err)
		}
		got := tracker.Progress()
		if got < last {
			t.Fatalf("progress regressed from %d to %d at %s -> %s", last, got, step.p, step.status)
		}
		last = got
	}
	if last != 100 {
		t.Fatalf("expected final progress 100, got %d", last)
	}
}

func TestTrackerProgressEmpty(t *testing.T) {
	tracker, err := NewTracker(nil)
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}
	if got := tracker.Progress(); got != 0 {
		t.Fatalf("expected 0%% for empty tracker, got %d", got)
	}
}

func TestTrackerCancel(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook, platform.Instagram)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing, StatusPublished)

	if err := tracker.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := tracker.Aggregate(); got != BulkCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}

	rows := tracker.Rows()
	if rows[0].Status != StatusPublished {
		t.Fatalf("cancel must not touch terminal rows, got %s", rows[0].Status)
	}
	if rows[1].Status != StatusCancelled {
		t.Fatalf("expected pending row cancelled, got %s", rows[1].Status)
	}

	// cancel is idempotent, further advances are not allowed
	if err := tracker.Cancel(); err != nil {
		t.Fatalf("repeated cancel failed: %v", err)
	}
	if err := tracker.Advance(platform.Instagram, StatusPublishing, "", ""); err == nil {
		t.Fatalf("expected advance after cancel to be rejected")
	}
}

func TestTrackerCancelAfterTerminal(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing, StatusPublished)

	if err := tracker.Cancel(); err == nil {
		t.Fatalf("expected cancel of completed attempt to be rejected")
	}
}

func TestTrackerTruncatesErrors(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook)
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing)
	if err := tracker.Advance(platform.Facebook, StatusFailed, "", string(long)); err != nil {
		t.Fatalf("fail transition rejected: %v", err)
	}

	rows := tracker.Rows()
	if len(rows[0].Error) > maxErrorLen {
		t.Fatalf("expected error truncated to %d chars, got %d", maxErrorLen, len(rows[0].Error))
	}
}

func TestTrackerTruncatesOnRuneBoundary(t *testing.T) {
	tracker := newTestTracker(t, platform.Facebook)
	advance(t, tracker, platform.Facebook, StatusQueued, StatusPublishing)
	if err := tracker.Advance(platform.Facebook, StatusFailed, "", strings.Repeat("é", 300)); err != nil {
		t.Fatalf("fail transition rejected: %v", err)
	}

	rows := tracker.Rows()
	if len(rows[0].Error) > maxErrorLen {
		t.Fatalf("expected error truncated to %d bytes, got %d", maxErrorLen, len(rows[0].Error))
	}
	if !utf8.ValidString(rows[0].Error) {
		t.Fatalf("truncation split a multi-byte character: %q", rows[0].Error)
	}
}
