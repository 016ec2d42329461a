package models

import (
	"time"
)

// Organization is a tenant account.
type Organization struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Brand is a marketing identity under an organization. It owns channels,
// posts and WhatsApp contacts.
type Brand struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrganizationID string    `gorm:"index;type:varchar(64);not null" json:"organization_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	LogoURL        string    `gorm:"type:text" json:"logo_url"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Brand) TableName() string {
	return "brands"
}

// Channel is one connected social account belonging to a brand.
type Channel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BrandID     string    `gorm:"index;type:varchar(64);not null" json:"brand_id"`
	Platform    string    `gorm:"type:varchar(32);not null" json:"platform"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name"`
	Username    string    `gorm:"type:varchar(255)" json:"username"`
	AvatarURL   string    `gorm:"type:text" json:"avatar_url"`
	Status      string    `gorm:"type:varchar(20);default:'active'" json:"status"` // active, expired, error, disconnected
	Metadata    string    `gorm:"type:text" json:"metadata"`                       // provider-specific JSON (follower counts etc.)
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// BulkPost is one bulk publish attempt across several platforms.
type BulkPost struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BrandID   string          `gorm:"index;type:varchar(64);not null" json:"brand_id"`
	Content   string          `gorm:"type:text" json:"content"`
	Status    string          `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Results   []PublishResult `gorm:"foreignKey:BulkPostID;constraint:OnDelete:CASCADE;" json:"results"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BulkPost) TableName() string {
	return "bulk_posts"
}

// PublishResult is the per-platform row of a bulk publish attempt.
type PublishResult struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BulkPostID  string    `gorm:"index;type:varchar(64);not null" json:"bulk_post_id"`
	Platform    string    `gorm:"type:varchar(32);not null" json:"platform"`
	ChannelID   string    `gorm:"type:varchar(64)" json:"channel_id"`
	ChannelName string    `gorm:"type:varchar(255)" json:"channel_name"`
	Status      string    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PlatformURL string    `gorm:"type:text" json:"platform_url,omitempty"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PublishResult) TableName() string {
	return "publish_results"
}

// Contact represents a WhatsApp contact of a brand.
type Contact struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BrandID      string     `gorm:"index;type:varchar(64);not null" json:"brand_id"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	Phone        string     `gorm:"index;type:varchar(50);not null" json:"phone"`
	Email        string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Tags         string     `gorm:"type:text" json:"tags"`   // comma separated
	Groups       string     `gorm:"type:text" json:"groups"` // comma separated
	OptedIn      bool       `gorm:"default:false" json:"opted_in"`
	OptedInAt    *time.Time `json:"opted_in_at,omitempty"`
	CustomFields string     `gorm:"type:text" json:"custom_fields,omitempty"` // JSON
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Message represents a WhatsApp message, inbound or outbound.
type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MessageID    string    `gorm:"index;type:varchar(255)" json:"message_id"` // WhatsApp message id (wamid)
	BrandID      string    `gorm:"index;type:varchar(64);not null" json:"brand_id"`
	ContactPhone string    `gorm:"index;type:varchar(50)" json:"contact_phone"`
	Direction    string    `gorm:"type:varchar(10);not null" json:"direction"` // inbound, outbound
	Type         string    `gorm:"type:varchar(50)" json:"type"`
	Content      string    `gorm:"type:text" json:"content"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, delivered, read, failed, received
	Error        string    `gorm:"type:text" json:"error,omitempty"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Template represents a WhatsApp message template.
type Template struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BrandID    string    `gorm:"index;type:varchar(64)" json:"brand_id"`
	ChannelID  string    `gorm:"type:varchar(64)" json:"channel_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Language   string    `gorm:"type:varchar(50)" json:"language"`
	Category   string    `gorm:"type:varchar(100)" json:"category"` // MARKETING, UTILITY, AUTHENTICATION
	Status     string    `gorm:"type:varchar(50)" json:"status"`    // PENDING, APPROVED, REJECTED
	Components string    `gorm:"type:text" json:"components"`       // JSON components
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// Notification is a user-facing notification row polled by the dashboard.
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"index;type:varchar(64);not null" json:"user_id"`
	Kind      string    `gorm:"type:varchar(50)" json:"kind"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Setting is a key/value row used as the persisted client-state store
// (current organization, current brand, tour progress and so on).
type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}
