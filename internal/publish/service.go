package publish

import (
	"context"
	"fmt"
	"log"
	"sync"

	"socialflow/internal/models"
	"socialflow/internal/platform"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Publisher performs the actual platform publish for one channel. The
// implementation is an opaque outbound REST call.
type Publisher interface {
	Publish(ctx context.Context, p platform.Platform, channel models.Channel, content string) (platformURL string, err error)
}

// Enqueuer hands a created bulk post to the background queue.
type Enqueuer interface {
	EnqueueBulkPublish(postID string) error
}

// Notifier receives progress events as rows change. May be nil.
type Notifier interface {
	NotifyPublishProgress(postID string, status BulkStatus, progress int, results []models.PublishResult)
}

// Service owns the bulk publish lifecycle: validation, persistence, queueing
// and the worker-side fan-out.
type Service struct {
	db        *gorm.DB
	publisher Publisher
	enqueuer  Enqueuer
	notifier  Notifier

	// per-platform concurrency limit for the fan-out
	concurrency int
}

func NewService(db *gorm.DB, publisher Publisher, enqueuer Enqueuer, notifier Notifier) *Service {
	return &Service{
		db:          db,
		publisher:   publisher,
		enqueuer:    enqueuer,
		notifier:    notifier,
		concurrency: 10,
	}
}

// AvailableChannelsForBrand builds the composer snapshot for a brand. The
// content type narrows the target platforms to those whose capability table
// entry accepts it ("video" drops text-only targets, for example).
func (s *Service) AvailableChannelsForBrand(brandID, contentType string) (AvailableChannels, error) {
	var channels []models.Channel
	if err := s.db.Where("brand_id = ? AND status = ?", brandID, "active").Find(&channels).Error; err != nil {
		return AvailableChannels{}, err
	}

	targets := platform.All
	if contentType != "" {
		kind := platform.MediaKind(contentType)
		var filtered []platform.Platform
		for _, p := range platform.All {
			if platform.CapabilityFor(p).AllowsMedia(kind) {
				filtered = append(filtered, p)
			}
		}
		targets = filtered
	}

	return BuildAvailableChannels(targets, channels), nil
}

// SubmitRequest is the validated input to a bulk publish.
type SubmitRequest struct {
	BrandID          string
	Content          string
	Assignments      []Assignment
	EnabledPlatforms []platform.Platform
}

// Submit validates the request, creates the bulk post with one pending row
// per enabled platform and enqueues the publish task.
func (s *Service) Submit(req SubmitRequest) (*models.BulkPost, error) {
	if req.BrandID == "" {
		return nil, fmt.Errorf("brand id is required")
	}
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if len(req.EnabledPlatforms) == 0 {
		return nil, fmt.Errorf("select at least one platform")
	}

	avail, err := s.AvailableChannelsForBrand(req.BrandID, "")
	if err != nil {
		return nil, err
	}

	// the request is authoritative: drop the seeded toggles and rebuild the
	// set from it, keeping the default first-channel selections
	set := NewAssignmentSet(avail)
	for _, p := range avail.TargetPlatforms {
		set.SetEnabled(p, false)
	}
	for _, a := range req.Assignments {
		if !a.Platform.IsValid() {
			return nil, fmt.Errorf("unknown platform %q", a.Platform)
		}
		// last write per platform wins
		if err := set.Assign(a.Platform, a.ChannelID); err != nil {
			return nil, err
		}
	}
	for _, p := range req.EnabledPlatforms {
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown platform %q", p)
		}
		limits := platform.CapabilityFor(p)
		if limits.MaxCharacters > 0 && len([]rune(req.Content)) > limits.MaxCharacters {
			return nil, fmt.Errorf("content exceeds %d character limit for %s", limits.MaxCharacters, p)
		}
		if err := set.SetEnabled(p, true); err != nil {
			return nil, err
		}
	}

	var rows []models.PublishResult
	for _, a := range set.EnabledAssignments() {
		channelName := ""
		for _, ch := range avail.Channels[a.Platform] {
			if ch.ID == a.ChannelID {
				channelName = ch.DisplayName
				break
			}
		}
		rows = append(rows, models.PublishResult{
			Platform:    string(a.Platform),
			ChannelID:   a.ChannelID,
			ChannelName: channelName,
			Status:      string(StatusPending),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("select at least one platform")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	post := models.BulkPost{
		ID:      id,
		BrandID: req.BrandID,
		Content: req.Content,
		Status:  string(BulkPending),
		Results: rows,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueBulkPublish(post.ID); err != nil {
			// publish attempt exists but will never run; fail it outright
			s.db.Model(&models.BulkPost{}).Where("id = ?", post.ID).Update("status", string(BulkFailed))
			s.db.Model(&models.PublishResult{}).Where("bulk_post_id = ?", post.ID).
				Updates(map[string]interface{}{"status": string(StatusFailed), "error": "queue unavailable"})
			return nil, fmt.Errorf("failed to queue publish: %w", err)
		}
	}

	return &post, nil
}

// Run executes the fan-out for a previously submitted bulk post. Called from
// the queue worker.
func (s *Service) Run(ctx context.Context, postID string) error {
	var post models.BulkPost
	if err := s.db.Preload("Results").Where("id = ?", postID).First(&post).Error; err != nil {
		return err
	}
	if BulkStatus(post.Status).Terminal() {
		// cancelled (or replayed task); nothing to do
		return nil
	}

	trackerRows := make([]Row, 0, len(post.Results))
	for _, r := range post.Results {
		trackerRows = append(trackerRows, Row{
			Platform:    platform.Platform(r.Platform),
			ChannelID:   r.ChannelID,
			ChannelName: r.ChannelName,
		})
	}
	tracker, err := NewTracker(trackerRows)
	if err != nil {
		return err
	}

	for _, r := range post.Results {
		if err := tracker.Advance(platform.Platform(r.Platform), StatusQueued, "", ""); err != nil {
			return err
		}
	}
	s.persistProgress(&post, tracker)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.concurrency)

	for _, r := range post.Results {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(row models.PublishResult) {
			defer wg.Done()
			defer func() { <-semaphore }()

			p := platform.Platform(row.Platform)
			if err := tracker.Advance(p, StatusPublishing, "", ""); err != nil {
				log.Printf("Skipping %s for post %s: %v", p, post.ID, err)
				return
			}
			s.persistProgress(&post, tracker)

			var channel models.Channel
			if err := s.db.Where("id = ?", row.ChannelID).First(&channel).Error; err != nil {
				tracker.Advance(p, StatusFailed, "", "channel no longer exists")
				s.persistProgress(&post, tracker)
				return
			}

			url, err := s.publisher.Publish(ctx, p, channel, post.Content)
			if err != nil {
				log.Printf("Error publishing post %s to %s: %v", post.ID, p, err)
				tracker.Advance(p, StatusFailed, "", err.Error())
			} else {
				tracker.Advance(p, StatusPublished, url, "")
			}
			s.persistProgress(&post, tracker)
		}(r)
	}

	wg.Wait()
	s.persistProgress(&post, tracker)
	return nil
}

// persistProgress writes the tracker rows and aggregate back to the database
// and fans the snapshot out to the notifier. A cancel may land between two
// writes, so the persisted aggregate is re-read first: once it is cancelled
// the tracker freezes and nothing is written back.
func (s *Service) persistProgress(post *models.BulkPost, tracker *Tracker) {
	var current models.BulkPost
	if err := s.db.Select("status").Where("id = ?", post.ID).First(&current).Error; err == nil {
		if BulkStatus(current.Status) == BulkCancelled {
			tracker.Cancel()
			return
		}
	}

	rows := tracker.Rows()
	for _, r := range rows {
		updates := map[string]interface{}{"status": string(r.Status)}
		if r.PlatformURL != "" {
			updates["platform_url"] = r.PlatformURL
		}
		if r.Error != "" {
			updates["error"] = r.Error
		}
		if err := s.db.Model(&models.PublishResult{}).
			Where("bulk_post_id = ? AND platform = ? AND status <> ?",
				post.ID, string(r.Platform), string(StatusCancelled)).
			Updates(updates).Error; err != nil {
			log.Printf("Error saving publish result for post %s: %v", post.ID, err)
		}
	}

	aggregate := tracker.Aggregate()
	if err := s.db.Model(&models.BulkPost{}).
		Where("id = ? AND status <> ?", post.ID, string(BulkCancelled)).
		Update("status", string(aggregate)).Error; err != nil {
		log.Printf("Error saving bulk post %s: %v", post.ID, err)
	}

	if s.notifier != nil {
		var results []models.PublishResult
		s.db.Where("bulk_post_id = ?", post.ID).Order("id").Find(&results)
		s.notifier.NotifyPublishProgress(post.ID, aggregate, tracker.Progress(), results)
	}
}

// StatusResponse is the polling payload for one bulk publish attempt.
type StatusResponse struct {
	PostID   string                 `json:"post_id"`
	Status   BulkStatus             `json:"status"`
	Progress int                    `json:"progress"`
	Results  []models.PublishResult `json:"results"`
}

// Status loads the persisted state of a bulk publish attempt.
func (s *Service) Status(postID string) (*StatusResponse, error) {
	var post models.BulkPost
	if err := s.db.Preload("Results").Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, err
	}

	total := len(post.Results)
	done := 0
	for _, r := range post.Results {
		if r.Status == string(StatusPublished) || r.Status == string(StatusFailed) {
			done++
		}
	}
	progress := 0
	if total > 0 {
		progress = int(float64(done)/float64(total)*100 + 0.5)
	}

	return &StatusResponse{
		PostID:   post.ID,
		Status:   BulkStatus(post.Status),
		Progress: progress,
		Results:  post.Results,
	}, nil
}

// Cancel marks every non-terminal row of the attempt cancelled. Cancelling
// an attempt that already reached a terminal aggregate fails; repeating a
// cancel is a no-op.
func (s *Service) Cancel(postID string) (*StatusResponse, error) {
	var post models.BulkPost
	if err := s.db.Preload("Results").Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, err
	}

	current := BulkStatus(post.Status)
	if current == BulkCancelled {
		return s.Status(postID)
	}
	if current.Terminal() {
		return nil, fmt.Errorf("bulk publish already %s", current)
	}

	for _, r := range post.Results {
		if !PublishStatus(r.Status).Terminal() {
			if err := s.db.Model(&models.PublishResult{}).Where("id = ?", r.ID).
				Update("status", string(StatusCancelled)).Error; err != nil {
				return nil, err
			}
		}
	}
	if err := s.db.Model(&models.BulkPost{}).Where("id = ?", postID).
		Update("status", string(BulkCancelled)).Error; err != nil {
		return nil, err
	}

	resp, err := s.Status(postID)
	if err == nil && s.notifier != nil {
		s.notifier.NotifyPublishProgress(postID, resp.Status, resp.Progress, resp.Results)
	}
	return resp, err
}
