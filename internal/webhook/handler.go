package webhook

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"socialflow/internal/config"
	"socialflow/internal/inbox"
	"socialflow/internal/models"
	"socialflow/internal/platform"
	"socialflow/internal/ws"
	pkgmodels "socialflow/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	Config *config.Config
	DB     *gorm.DB
	Inbox  *inbox.Service
	Hub    *ws.Hub
}

func NewHandler(cfg *config.Config, db *gorm.DB, inboxSvc *inbox.Service, hub *ws.Hub) *Handler {
	return &Handler{
		Config: cfg,
		DB:     db,
		Inbox:  inboxSvc,
		Hub:    hub,
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			log.Println("Webhook verified successfully!")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

func (h *Handler) HandleEvent(c *gin.Context) {
	var payload pkgmodels.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Error binding JSON: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value

			brandID := h.brandForPhoneNumber(value.Metadata.PhoneNumberID)
			if brandID == "" {
				log.Printf("No brand for phone number id %s, dropping event", value.Metadata.PhoneNumberID)
				continue
			}

			profileNames := make(map[string]string)
			for _, contact := range value.Contacts {
				profileNames[contact.WaID] = contact.Profile.Name
			}

			for _, message := range value.Messages {
				h.storeIncoming(brandID, message, profileNames[message.From])
			}
			for _, status := range value.Statuses {
				h.applyStatus(status)
			}
		}
	}

	c.Status(http.StatusOK)
}

// brandForPhoneNumber resolves the receiving WhatsApp channel to its brand
// via the channel metadata.
func (h *Handler) brandForPhoneNumber(phoneNumberID string) string {
	if phoneNumberID == "" {
		return ""
	}
	var channel models.Channel
	err := h.DB.Where("platform = ? AND metadata LIKE ?",
		string(platform.WhatsApp), "%"+phoneNumberID+"%").First(&channel).Error
	if err == nil {
		return channel.BrandID
	}
	// single-number deployments configure the id directly
	if phoneNumberID == h.Config.PhoneNumberID {
		err = h.DB.Where("platform = ?", string(platform.WhatsApp)).First(&channel).Error
		if err == nil {
			return channel.BrandID
		}
	}
	return ""
}

func (h *Handler) storeIncoming(brandID string, message pkgmodels.IncomingMessage, profileName string) {
	var content string
	msgType := message.Type

	switch message.Type {
	case "text":
		content = message.Text.Body
	case "image":
		if message.Image != nil {
			content = "[image]:" + message.Image.ID
			if message.Image.Caption != "" {
				content += ":" + message.Image.Caption
			}
		}
	case "video":
		if message.Video != nil {
			content = "[video]:" + message.Video.ID
			if message.Video.Caption != "" {
				content += ":" + message.Video.Caption
			}
		}
	case "audio":
		if message.Audio != nil {
			content = "[audio]:" + message.Audio.ID
		}
	case "document":
		if message.Document != nil {
			content = "[document]:" + message.Document.ID
			if message.Document.Filename != "" {
				content += ":" + message.Document.Filename
			}
		}
	default:
		content = "[" + message.Type + "]"
	}
	log.Printf("Received %s message from %s", msgType, message.From)

	timestamp := time.Now()
	if epoch, err := strconv.ParseInt(message.Timestamp, 10, 64); err == nil {
		timestamp = time.Unix(epoch, 0)
	}

	row := models.Message{
		MessageID:    message.ID,
		BrandID:      brandID,
		ContactPhone: message.From,
		Direction:    "inbound",
		Type:         msgType,
		Content:      content,
		Status:       "received",
		Timestamp:    timestamp,
	}
	if err := h.DB.Create(&row).Error; err != nil {
		log.Printf("Error inserting message: %v", err)
		return
	}

	h.upsertContact(brandID, message.From, profileName)

	if h.Hub != nil {
		h.Hub.NotifyMessage(row)
	}
}

// upsertContact auto-saves the sender as a brand contact, keeping an
// existing name if one was set by hand.
func (h *Handler) upsertContact(brandID, phone, name string) {
	var contact models.Contact
	err := h.DB.Where("brand_id = ? AND phone = ?", brandID, phone).First(&contact).Error
	if err == nil {
		if contact.Name == "" && name != "" {
			h.DB.Model(&contact).Update("name", name)
		}
		return
	}
	if name == "" {
		name = phone
	}
	contact = models.Contact{
		ID:      uuid.NewString(),
		BrandID: brandID,
		Name:    name,
		Phone:   phone,
	}
	if err := h.DB.Create(&contact).Error; err != nil {
		log.Printf("Error saving contact: %v", err)
	}
}

func (h *Handler) applyStatus(status pkgmodels.StatusUpdate) {
	errMsg := ""
	if len(status.Errors) > 0 {
		errMsg = status.Errors[0].Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("%s (code %d)", status.Errors[0].Title, status.Errors[0].Code)
		}
	}
	if err := h.Inbox.AdvanceMessageStatus(status.ID, status.Status, errMsg); err != nil {
		log.Printf("Error applying status %s to %s: %v", status.Status, status.ID, err)
	}
}
