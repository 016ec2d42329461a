package inbox

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"socialflow/internal/models"
	"socialflow/internal/platform"
	"socialflow/internal/whatsapp"

	"gorm.io/gorm"
)

// ErrNoChannel means the brand has no connected WhatsApp channel. The inbox
// cannot operate without one; callers surface this as a hard precondition,
// not a recoverable error.
var ErrNoChannel = errors.New("brand has no WhatsApp channel")

// Sender is the outbound side of the WhatsApp Cloud client.
type Sender interface {
	SendText(to, body string) (string, error)
	SendTemplate(to, templateName, languageCode string, components []whatsapp.ComponentObj) (string, error)
}

// Service coordinates contacts, messages and template sends for the
// WhatsApp inbox.
type Service struct {
	db     *gorm.DB
	sender Sender
}

func NewService(db *gorm.DB, sender Sender) *Service {
	return &Service{db: db, sender: sender}
}

// Channel returns the brand's active WhatsApp channel or ErrNoChannel.
func (s *Service) Channel(brandID string) (*models.Channel, error) {
	var channel models.Channel
	err := s.db.Where("brand_id = ? AND platform = ? AND status = ?",
		brandID, string(platform.WhatsApp), "active").First(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoChannel
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// ContactFilter narrows a brand's contact list.
type ContactFilter struct {
	Tags   []string
	Groups []string
	Search string
}

// Contacts lists a brand's contacts, newest first, applying the filter.
func (s *Service) Contacts(brandID string, filter ContactFilter) ([]models.Contact, error) {
	q := s.db.Where("brand_id = ?", brandID)
	for _, tag := range filter.Tags {
		q = q.Where("tags LIKE ?", "%"+tag+"%")
	}
	for _, group := range filter.Groups {
		q = q.Where("groups LIKE ?", "%"+group+"%")
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var contacts []models.Contact
	if err := q.Order("created_at DESC").Find(&contacts).Error; err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return contacts, nil
}

// EligibleRecipients filters a contact list down to valid recipients for a
// template category. MARKETING requires opt-in; UTILITY and AUTHENTICATION
// are unrestricted. The input order is preserved.
func EligibleRecipients(contacts []models.Contact, category string) []models.Contact {
	if category != whatsapp.CategoryMarketing {
		return contacts
	}
	eligible := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.OptedIn {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// Messages lists a brand's messages newest first, optionally scoped to one
// contact phone, with limit/page pagination.
func (s *Service) Messages(brandID, contactPhone string, limit, page int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	q := s.db.Where("brand_id = ?", brandID)
	if contactPhone != "" {
		q = q.Where("contact_phone = ?", contactPhone)
	}

	var messages []models.Message
	err := q.Order("timestamp DESC").Limit(limit).Offset((page - 1) * limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// BuildLastMessageIndex groups a message page by counterpart phone and keeps
// the newest message per phone. Used as the best-effort chat-list preview.
func BuildLastMessageIndex(messages []models.Message) map[string]models.Message {
	index := make(map[string]models.Message)
	for _, m := range messages {
		if m.ContactPhone == "" {
			continue
		}
		current, ok := index[m.ContactPhone]
		if !ok || m.Timestamp.After(current.Timestamp) {
			index[m.ContactPhone] = m
		}
	}
	return index
}

// LastMessages fetches a recent page of brand messages and reduces it to the
// last message per contact.
func (s *Service) LastMessages(brandID string, limit int) (map[string]models.Message, error) {
	messages, err := s.Messages(brandID, "", limit, 1)
	if err != nil {
		return nil, err
	}
	return BuildLastMessageIndex(messages), nil
}

// RecipientResult is the per-recipient outcome of a send.
type RecipientResult struct {
	ContactID string `json:"contact_id"`
	Phone     string `json:"phone"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendSummary is the per-recipient result summary of one send call.
type SendSummary struct {
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []RecipientResult `json:"results"`
}

func (s *Service) loadRecipients(brandID string, recipientIDs []string) ([]models.Contact, error) {
	if len(recipientIDs) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	var contacts []models.Contact
	if err := s.db.Where("brand_id = ? AND id IN ?", brandID, recipientIDs).Find(&contacts).Error; err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("no matching contacts for brand")
	}
	return contacts, nil
}

// SendText sends a text message to each recipient through the brand's
// WhatsApp channel and records the outbound rows. There is no optimistic
// insertion: callers re-fetch the conversation after a send.
func (s *Service) SendText(brandID string, recipientIDs []string, text string) (*SendSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if _, err := s.Channel(brandID); err != nil {
		return nil, err
	}
	contacts, err := s.loadRecipients(brandID, recipientIDs)
	if err != nil {
		return nil, err
	}

	summary := &SendSummary{}
	for _, contact := range contacts {
		result := RecipientResult{ContactID: contact.ID, Phone: contact.Phone}
		messageID, err := s.sender.SendText(contact.Phone, text)
		if err != nil {
			log.Printf("Failed to send text to %s: %v", contact.Phone, err)
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.MessageID = messageID
			summary.Sent++
			s.recordOutbound(brandID, contact.Phone, messageID, "text", text)
		}
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// SendTemplate sends a template to each recipient. MARKETING templates only
// go to opted-in contacts; skipped contacts are reported as failed rows so
// the caller sees exactly what happened.
func (s *Service) SendTemplate(brandID, templateName, languageCode string, recipientIDs []string, components []whatsapp.ComponentObj) (*SendSummary, error) {
	if templateName == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if languageCode == "" {
		languageCode = "en_US"
	}
	if _, err := s.Channel(brandID); err != nil {
		return nil, err
	}
	contacts, err := s.loadRecipients(brandID, recipientIDs)
	if err != nil {
		return nil, err
	}

	category := whatsapp.CategoryUtility
	var tmpl models.Template
	if err := s.db.Where("brand_id = ? AND name = ?", brandID, templateName).First(&tmpl).Error; err == nil {
		category = tmpl.Category
	}

	summary := &SendSummary{}
	for _, contact := range contacts {
		result := RecipientResult{ContactID: contact.ID, Phone: contact.Phone}
		if category == whatsapp.CategoryMarketing && !contact.OptedIn {
			result.Error = "contact has not opted in to marketing messages"
			summary.Failed++
			summary.Results = append(summary.Results, result)
			continue
		}

		messageID, err := s.sender.SendTemplate(contact.Phone, templateName, languageCode, components)
		if err != nil {
			log.Printf("Failed to send template %s to %s: %v", templateName, contact.Phone, err)
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.MessageID = messageID
			summary.Sent++
			s.recordOutbound(brandID, contact.Phone, messageID, "template", "Template: "+templateName)
		}
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

func (s *Service) recordOutbound(brandID, phone, messageID, msgType, content string) {
	message := models.Message{
		MessageID:    messageID,
		BrandID:      brandID,
		ContactPhone: phone,
		Direction:    "outbound",
		Type:         msgType,
		Content:      content,
		Status:       "sent",
		Timestamp:    time.Now(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		log.Printf("Error recording outbound message: %v", err)
	}
}

var statusRank = map[string]int{
	"sent":      1,
	"delivered": 2,
	"read":      3,
}

// CanAdvanceMessageStatus reports whether a delivery-status webhook may move
// a message from current to next. Status only ever moves forward; failed is
// terminal and out-of-order webhook delivery never regresses a message.
func CanAdvanceMessageStatus(current, next string) bool {
	if current == "failed" || current == next {
		return false
	}
	if next == "failed" {
		return true
	}
	currentRank, ok := statusRank[current]
	if !ok {
		// inbound messages ("received") never change status
		return false
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank > currentRank
}

// AdvanceMessageStatus applies a status webhook to the stored message,
// enforcing forward-only movement.
func (s *Service) AdvanceMessageStatus(messageID, status, errMsg string) error {
	var message models.Message
	if err := s.db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		return err
	}
	if !CanAdvanceMessageStatus(message.Status, status) {
		return nil
	}
	updates := map[string]interface{}{"status": status}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	return s.db.Model(&models.Message{}).Where("id = ?", message.ID).Updates(updates).Error
}
