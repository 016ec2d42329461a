package publish

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"socialflow/internal/platform"
)

// PublishStatus is the per-platform state of one bulk publish row.
type PublishStatus string

const (
	StatusPending    PublishStatus = "pending"
	StatusQueued     PublishStatus = "queued"
	StatusPublishing PublishStatus = "publishing"
	StatusPublished  PublishStatus = "published"
	StatusFailed     PublishStatus = "failed"
	StatusCancelled  PublishStatus = "cancelled"
)

// Terminal reports whether a row can no longer change state.
func (s PublishStatus) Terminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[PublishStatus][]PublishStatus{
	StatusPending:    {StatusQueued, StatusPublishing, StatusFailed, StatusCancelled},
	StatusQueued:     {StatusPublishing, StatusFailed, StatusCancelled},
	StatusPublishing: {StatusPublished, StatusFailed, StatusCancelled},
}

// CanAdvanceTo reports whether next is a legal successor of s. Terminal
// states have no successors; regressions like published -> pending are
// rejected here rather than trusted to callers.
func (s PublishStatus) CanAdvanceTo(next PublishStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BulkStatus is the aggregate status of a whole bulk publish attempt.
type BulkStatus string

const (
	BulkPending    BulkStatus = "pending"
	BulkPublishing BulkStatus = "publishing"
	BulkCompleted  BulkStatus = "completed"
	BulkPartial    BulkStatus = "partial"
	BulkFailed     BulkStatus = "failed"
	BulkCancelled  BulkStatus = "cancelled"
)

// Terminal reports whether the attempt as a whole is finished.
func (s BulkStatus) Terminal() bool {
	switch s {
	case BulkCompleted, BulkPartial, BulkFailed, BulkCancelled:
		return true
	}
	return false
}

const maxErrorLen = 200

// Row is one platform's slot in a Tracker.
type Row struct {
	Platform    platform.Platform
	ChannelID   string
	ChannelName string
	Status      PublishStatus
	PlatformURL string
	Error       string
}

// Tracker holds the per-platform rows of one bulk publish attempt and
// derives the aggregate status and progress from them. All transitions are
// pushed in by the caller; the tracker never infers one on its own.
type Tracker struct {
	mu        sync.Mutex
	rows      []Row
	index     map[platform.Platform]int
	cancelled bool
}

// NewTracker builds a tracker with one pending row per platform. Duplicate
// platforms are rejected.
func NewTracker(rows []Row) (*Tracker, error) {
	t := &Tracker{
		rows:  make([]Row, len(rows)),
		index: make(map[platform.Platform]int, len(rows)),
	}
	for i, r := range rows {
		if _, dup := t.index[r.Platform]; dup {
			return nil, fmt.Errorf("duplicate platform %s", r.Platform)
		}
		r.Status = StatusPending
		r.PlatformURL = ""
		r.Error = ""
		t.rows[i] = r
		t.index[r.Platform] = i
	}
	return t, nil
}

// Advance moves one platform's row to the given status. It fails when the
// platform is unknown, the transition is illegal, or the aggregate status is
// already terminal.
func (t *Tracker) Advance(p platform.Platform, next PublishStatus, platformURL, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.aggregateLocked().Terminal() {
		return fmt.Errorf("bulk publish already %s", t.aggregateLocked())
	}
	i, ok := t.index[p]
	if !ok {
		return fmt.Errorf("platform %s is not part of this publish", p)
	}
	row := &t.rows[i]
	if !row.Status.CanAdvanceTo(next) {
		return fmt.Errorf("illegal transition %s -> %s for %s", row.Status, next, p)
	}

	row.Status = next
	if next == StatusPublished {
		row.PlatformURL = platformURL
	}
	if next == StatusFailed {
		row.Error = truncate(errMsg, maxErrorLen)
	}
	return nil
}

// Cancel marks every non-terminal row cancelled and pins the aggregate to
// cancelled. Cancelling an already terminal attempt fails; repeating a
// cancel does not.
func (t *Tracker) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return nil
	}
	if t.aggregateLocked().Terminal() {
		return fmt.Errorf("bulk publish already %s", t.aggregateLocked())
	}
	for i := range t.rows {
		if !t.rows[i].Status.Terminal() {
			t.rows[i].Status = StatusCancelled
		}
	}
	t.cancelled = true
	return nil
}

// Aggregate derives the attempt-wide status from the rows.
func (t *Tracker) Aggregate() BulkStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aggregateLocked()
}

func (t *Tracker) aggregateLocked() BulkStatus {
	if t.cancelled {
		return BulkCancelled
	}

	total := len(t.rows)
	published, failed, pending, terminal := 0, 0, 0, 0
	for _, r := range t.rows {
		switch r.Status {
		case StatusPublished:
			published++
		case StatusFailed:
			failed++
		case StatusPending:
			pending++
		}
		if r.Status.Terminal() {
			terminal++
		}
	}

	if total == 0 {
		return BulkPending
	}
	if terminal < total {
		if pending == total {
			return BulkPending
		}
		return BulkPublishing
	}
	switch {
	case published == total:
		return BulkCompleted
	case published == 0 && failed > 0:
		return BulkFailed
	case published > 0:
		return BulkPartial
	default:
		// everything cancelled row-wise without an explicit Cancel
		return BulkCancelled
	}
}

// Progress is round(100 * (published+failed) / total), 0 for an empty
// tracker.
func (t *Tracker) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rows) == 0 {
		return 0
	}
	done := 0
	for _, r := range t.rows {
		if r.Status == StatusPublished || r.Status == StatusFailed {
			done++
		}
	}
	return int(float64(done)/float64(len(t.rows))*100 + 0.5)
}

// Rows returns a copy of the current rows in their original order.
func (t *Tracker) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Counts returns the published, failed and not-yet-terminal row counts.
func (t *Tracker) Counts() (published, failed, pending int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.rows {
		switch {
		case r.Status == StatusPublished:
			published++
		case r.Status == StatusFailed:
			failed++
		case !r.Status.Terminal():
			pending++
		}
	}
	return
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back up to a rune boundary so a multi-byte character is never split
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
