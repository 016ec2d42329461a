package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"socialflow/internal/inbox"
	"socialflow/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContactHandler struct {
	DB    *gorm.DB
	Inbox *inbox.Service
}

func NewContactHandler(db *gorm.DB, inboxSvc *inbox.Service) *ContactHandler {
	return &ContactHandler{DB: db, Inbox: inboxSvc}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	filter := inbox.ContactFilter{
		Tags:   splitCSV(c.Query("tags")),
		Groups: splitCSV(c.Query("groups")),
		Search: c.Query("search"),
	}

	contacts, err := h.Inbox.Contacts(brandID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

type createContactRequest struct {
	BrandID string `json:"brand_id" binding:"required"`
	Name    string `json:"name"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email"`
	Tags    string `json:"tags"`
	Groups  string `json:"groups"`
	OptedIn bool   `json:"opted_in"`
	Notes   string `json:"notes"`
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact := models.Contact{
		ID:      uuid.NewString(),
		BrandID: req.BrandID,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Tags:    req.Tags,
		Groups:  req.Groups,
		OptedIn: req.OptedIn,
		Notes:   req.Notes,
	}
	if req.OptedIn {
		now := time.Now()
		contact.OptedInAt = &now
	}

	if err := h.DB.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact"})
		return
	}

	c.JSON(http.StatusCreated, contact)
}

type updateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Tags    string `json:"tags"`
	Groups  string `json:"groups"`
	OptedIn *bool  `json:"opted_in"`
	Notes   string `json:"notes"`
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	id := c.Param("id")
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":   req.Name,
		"email":  req.Email,
		"tags":   req.Tags,
		"groups": req.Groups,
		"notes":  req.Notes,
	}
	if req.OptedIn != nil {
		updates["opted_in"] = *req.OptedIn
		if *req.OptedIn {
			updates["opted_in_at"] = time.Now()
		}
	}

	result := h.DB.Model(&models.Contact{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contact updated"})
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id := c.Param("id")

	result := h.DB.Delete(&models.Contact{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contact deleted"})
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	contacts, err := h.Inbox.Contacts(brandID, inbox.ContactFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body, err := contactsCSV(contacts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")
	c.String(http.StatusOK, body)
}

// contactsCSV renders the export; names and tags may contain commas or
// quotes, so fields go through a real CSV writer.
func contactsCSV(contacts []models.Contact) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Name", "Phone", "Email", "Tags", "Groups", "Opted In", "Created At"})
	for _, contact := range contacts {
		w.Write([]string{
			contact.Name,
			contact.Phone,
			contact.Email,
			contact.Tags,
			contact.Groups,
			strconv.FormatBool(contact.OptedIn),
			contact.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.String(), w.Error()
}
