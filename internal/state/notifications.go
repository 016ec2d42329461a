package state

import (
	"log"
	"sync"

	"socialflow/internal/models"

	"github.com/robfig/cron"
	"gorm.io/gorm"
)

// NotificationProvider keeps a user's notification list fresh by polling on
// a fixed 30 second interval while a user is present. The poll is the only
// recurring background operation and is always stopped on logout or
// shutdown.
type NotificationProvider struct {
	mu     sync.RWMutex
	db     *gorm.DB
	userID string
	items  []models.Notification
	poller *cron.Cron
}

func NewNotificationProvider(db *gorm.DB) *NotificationProvider {
	return &NotificationProvider{db: db}
}

// Start begins polling for the given user, replacing any previous poll.
func (p *NotificationProvider) Start(userID string) {
	p.Stop()

	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()

	p.poll()

	c := cron.New()
	if err := c.AddFunc("@every 30s", p.poll); err != nil {
		log.Printf("Error scheduling notification poll: %v", err)
		return
	}
	c.Start()

	p.mu.Lock()
	p.poller = c
	p.mu.Unlock()
}

// Stop cancels the poll and clears the notification list.
func (p *NotificationProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.poller != nil {
		p.poller.Stop()
		p.poller = nil
	}
	p.userID = ""
	p.items = nil
}

func (p *NotificationProvider) poll() {
	p.mu.RLock()
	userID := p.userID
	p.mu.RUnlock()
	if userID == "" {
		return
	}

	var items []models.Notification
	if err := p.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(100).Find(&items).Error; err != nil {
		// background fetch failures reset nothing and surface nothing
		log.Printf("Error polling notifications: %v", err)
		return
	}

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
}

// Notifications returns the cached list.
func (p *NotificationProvider) Notifications() []models.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Notification, len(p.items))
	copy(out, p.items)
	return out
}

// UnreadCount counts unread notifications in the cached list.
func (p *NotificationProvider) UnreadCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, item := range p.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification read and refreshes the cache.
func (p *NotificationProvider) MarkRead(id string) error {
	if err := p.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error; err != nil {
		return err
	}
	p.poll()
	return nil
}
