package publish

import (
	"context"
	"sync"
	"testing"
	"time"

	"socialflow/internal/models"
	"socialflow/internal/platform"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// a single connection keeps the in-memory database shared across goroutines
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Channel{}, &models.BulkPost{}, &models.PublishResult{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// gatedPublisher blocks inside Publish until released, so a test can act
// while the fan-out is mid-flight.
type gatedPublisher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *gatedPublisher) Publish(ctx context.Context, _ platform.Platform, _ models.Channel, _ string) (string, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return "https://example.com/posts/1", nil
}

func TestCancelDuringRunStaysCancelled(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.Channel{ID: "ch-fb", BrandID: "b1", Platform: "facebook", DisplayName: "Acme", Status: "active"})
	db.Create(&models.BulkPost{
		ID:      "post-1",
		BrandID: "b1",
		Content: "hello",
		Status:  string(BulkPending),
		Results: []models.PublishResult{
			{Platform: "facebook", ChannelID: "ch-fb", ChannelName: "Acme", Status: string(StatusPending)},
		},
	})

	pub := newGatedPublisher()
	svc := NewService(db, pub, nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- svc.Run(context.Background(), "post-1")
	}()

	select {
	case <-pub.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("publisher never started")
	}

	resp, err := svc.Cancel("post-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if resp.Status != BulkCancelled {
		t.Fatalf("expected cancelled aggregate, got %s", resp.Status)
	}

	close(pub.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run never finished")
	}

	// the finished fan-out must not resurrect the cancelled attempt
	var post models.BulkPost
	if err := db.Preload("Results").Where("id = ?", "post-1").First(&post).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if post.Status != string(BulkCancelled) {
		t.Fatalf("expected aggregate to stay cancelled, got %s", post.Status)
	}
	for _, r := range post.Results {
		if r.Status != string(StatusCancelled) {
			t.Fatalf("expected %s row to stay cancelled, got %s", r.Platform, r.Status)
		}
	}
}

func TestSubmitDefaultsToFirstChannel(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.Channel{ID: "ch-fb", BrandID: "b1", Platform: "facebook", DisplayName: "Acme", Status: "active"})

	svc := NewService(db, nil, nil, nil)
	post, err := svc.Submit(SubmitRequest{
		BrandID:          "b1",
		Content:          "hello",
		EnabledPlatforms: []platform.Platform{platform.Facebook},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(post.Results) != 1 {
		t.Fatalf("expected 1 result row, got %d", len(post.Results))
	}
	if post.Results[0].ChannelID != "ch-fb" {
		t.Fatalf("expected the connected channel preselected, got %q", post.Results[0].ChannelID)
	}
}

func TestSubmitRejectsForeignChannel(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.Channel{ID: "ch-fb", BrandID: "b1", Platform: "facebook", DisplayName: "Acme", Status: "active"})
	db.Create(&models.Channel{ID: "ch-tw", BrandID: "b1", Platform: "twitter", DisplayName: "@acme", Status: "active"})

	svc := NewService(db, nil, nil, nil)
	_, err := svc.Submit(SubmitRequest{
		BrandID:          "b1",
		Content:          "hello",
		Assignments:      []Assignment{{Platform: platform.Facebook, ChannelID: "ch-tw"}},
		EnabledPlatforms: []platform.Platform{platform.Facebook},
	})
	if err == nil {
		t.Fatalf("expected cross-platform channel assignment to be rejected")
	}
}

func TestSubmitRejectsPlatformWithoutChannel(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.Channel{ID: "ch-fb", BrandID: "b1", Platform: "facebook", DisplayName: "Acme", Status: "active"})
	db.Create(&models.Channel{ID: "ch-ig", BrandID: "b1", Platform: "instagram", DisplayName: "acme", Status: "expired"})

	svc := NewService(db, nil, nil, nil)

	// no instagram channel at all from the composer's point of view: the only
	// one is expired and expired channels are not offered
	_, err := svc.Submit(SubmitRequest{
		BrandID:          "b1",
		Content:          "hello",
		EnabledPlatforms: []platform.Platform{platform.Instagram},
	})
	if err == nil {
		t.Fatalf("expected enabling a platform without an active channel to fail")
	}
}
