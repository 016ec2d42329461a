package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"socialflow/internal/config"
	"socialflow/internal/inbox"
	"socialflow/internal/models"
	"socialflow/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WhatsAppHandler struct {
	Client *whatsapp.Client
	Inbox  *inbox.Service
	Config *config.Config
	DB     *gorm.DB
}

func NewWhatsAppHandler(client *whatsapp.Client, inboxSvc *inbox.Service, cfg *config.Config, db *gorm.DB) *WhatsAppHandler {
	return &WhatsAppHandler{Client: client, Inbox: inboxSvc, Config: cfg, DB: db}
}

// brandForChannel resolves a channel id to its owning brand.
func (h *WhatsAppHandler) brandForChannel(c *gin.Context, channelID string) (string, bool) {
	var channel models.Channel
	if err := h.DB.Where("id = ?", channelID).First(&channel).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return "", false
	}
	return channel.BrandID, true
}

func (h *WhatsAppHandler) writeSendError(c *gin.Context, err error) {
	if errors.Is(err, inbox.ErrNoChannel) {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Connect a WhatsApp channel for this brand first"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type sendTextRequest struct {
	ChannelID    string   `json:"channel_id" binding:"required"`
	RecipientIDs []string `json:"recipient_ids" binding:"required"`
	Text         string   `json:"text" binding:"required"`
}

// SendText sends a text message to each recipient and returns the
// per-recipient summary.
func (h *WhatsAppHandler) SendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brandID, ok := h.brandForChannel(c, req.ChannelID)
	if !ok {
		return
	}

	summary, err := h.Inbox.SendText(brandID, req.RecipientIDs, req.Text)
	if err != nil {
		h.writeSendError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type sendTemplateRequest struct {
	ChannelID    string                  `json:"channel_id" binding:"required"`
	TemplateName string                  `json:"template_name" binding:"required"`
	LanguageCode string                  `json:"language_code"`
	RecipientIDs []string                `json:"recipient_ids" binding:"required"`
	Components   []whatsapp.ComponentObj `json:"components"`
}

// SendTemplate sends a template to each recipient. Marketing templates are
// restricted to opted-in contacts.
func (h *WhatsAppHandler) SendTemplate(c *gin.Context) {
	var req sendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brandID, ok := h.brandForChannel(c, req.ChannelID)
	if !ok {
		return
	}

	summary, err := h.Inbox.SendTemplate(brandID, req.TemplateName, req.LanguageCode, req.RecipientIDs, req.Components)
	if err != nil {
		h.writeSendError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SendMedia is the documented unsupported path: it always answers 501.
func (h *WhatsAppHandler) SendMedia(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": whatsapp.ErrMediaSendUnsupported.Error()})
}

// GetMessages returns a paginated message history, newest first, optionally
// scoped to one contact phone.
func (h *WhatsAppHandler) GetMessages(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	messages, err := h.Inbox.Messages(brandID, c.Query("contactPhone"), limit, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"page":     page,
		"limit":    limit,
	})
}

// GetLastMessages returns the last message per contact phone for the chat
// list preview.
func (h *WhatsAppHandler) GetLastMessages(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	index, err := h.Inbox.LastMessages(brandID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, index)
}

// GetTemplates returns stored templates from the local database.
func (h *WhatsAppHandler) GetTemplates(c *gin.Context) {
	q := h.DB.Order("created_at DESC")
	if brandID := c.Query("brandId"); brandID != "" {
		q = q.Where("brand_id = ?", brandID)
	}

	var templates []models.Template
	if err := q.Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

// SyncTemplates fetches templates from Meta and stores them locally.
func (h *WhatsAppHandler) SyncTemplates(c *gin.Context) {
	if h.Config.WhatsAppBusinessAccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WABA_ID not configured"})
		return
	}

	rawTemplates, err := h.Client.GetTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates from Meta: " + err.Error()})
		return
	}

	templatesMap, ok := rawTemplates.(map[string]interface{})
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid response format from Meta"})
		return
	}
	data, ok := templatesMap["data"].([]interface{})
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "No templates found", "count": 0})
		return
	}

	brandID := c.Query("brandId")
	syncedCount := 0
	for _, item := range data {
		tmpl, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := tmpl["id"].(string)
		name, _ := tmpl["name"].(string)
		if id == "" || name == "" {
			continue
		}
		language, _ := tmpl["language"].(string)
		category, _ := tmpl["category"].(string)
		status, _ := tmpl["status"].(string)

		componentsJSON := "[]"
		if components, ok := tmpl["components"]; ok {
			if compBytes, err := json.Marshal(components); err == nil {
				componentsJSON = string(compBytes)
			}
		}

		template := models.Template{
			ID:         id,
			BrandID:    brandID,
			Name:       name,
			Language:   language,
			Category:   category,
			Status:     status,
			Components: componentsJSON,
		}
		if err := h.DB.Save(&template).Error; err != nil {
			log.Printf("Error saving template %s: %v", name, err)
			continue
		}
		syncedCount++
	}

	c.JSON(http.StatusOK, gin.H{"status": "Templates synced", "count": syncedCount})
}

type templateButtonDTO struct {
	Type        string `json:"type" binding:"required"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	PhoneNumber string `json:"phone_number"`
}

type createTemplateRequest struct {
	BrandID    string              `json:"brand_id" binding:"required"`
	ChannelID  string              `json:"channel_id"`
	Name       string              `json:"name" binding:"required"`
	Language   string              `json:"language"`
	Category   string              `json:"category"`
	BodyText   string              `json:"body_text"`
	HeaderText string              `json:"header_text"`
	FooterText string              `json:"footer_text"`
	Buttons    []templateButtonDTO `json:"buttons"`
}

// CreateTemplate builds the component array through the template builder so
// every structural invariant is enforced before we touch the network, then
// submits it to Meta and persists the pending template.
func (h *WhatsAppHandler) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	builder := whatsapp.NewTemplateBuilder()
	builder.SetName(req.Name)
	if req.Language != "" {
		builder.SetLanguage(req.Language)
	}
	if req.Category != "" {
		if err := builder.SetCategory(req.Category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	builder.SetBodyText(req.BodyText)
	if req.HeaderText != "" {
		if err := builder.AddHeader(req.HeaderText); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.FooterText != "" {
		if err := builder.AddFooter(req.FooterText); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if len(req.Buttons) > 0 {
		if err := builder.AddButtons(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		for _, b := range req.Buttons {
			err := builder.AddButton(whatsapp.TemplateButton{
				Type:        b.Type,
				Text:        b.Text,
				URL:         b.URL,
				PhoneNumber: b.PhoneNumber,
			})
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
	}

	def, err := builder.Build()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Client.CreateTemplate(def)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	componentsJSON, _ := json.Marshal(def.Components)
	status := created.Status
	if status == "" {
		status = "PENDING"
	}
	template := models.Template{
		ID:         created.ID,
		BrandID:    req.BrandID,
		ChannelID:  req.ChannelID,
		Name:       def.Name,
		Language:   def.Language,
		Category:   def.Category,
		Status:     status,
		Components: string(componentsJSON),
	}
	if err := h.DB.Save(&template).Error; err != nil {
		log.Printf("Error saving template %s: %v", def.Name, err)
	}

	c.JSON(http.StatusCreated, template)
}

// DeleteTemplate deletes a template by name, both at Meta and locally.
func (h *WhatsAppHandler) DeleteTemplate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template name required (query param 'name')"})
		return
	}

	if err := h.Client.DeleteTemplate(name); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.DB.Where("name = ?", name).Delete(&models.Template{})

	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

// UploadMedia pushes a file to the Cloud API media store.
func (h *WhatsAppHandler) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	resp, err := h.Client.UploadMedia(fileBytes, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RetrieveMediaURL resolves a media id to its download URL.
func (h *WhatsAppHandler) RetrieveMediaURL(c *gin.Context) {
	mediaID := c.Param("id")
	url, err := h.Client.RetrieveMediaURL(mediaID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
