package api

import (
	"net/http"

	"socialflow/internal/models"
	"socialflow/internal/platform"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChannelHandler struct {
	DB *gorm.DB
}

func NewChannelHandler(db *gorm.DB) *ChannelHandler {
	return &ChannelHandler{DB: db}
}

// GetChannels lists a brand's connected channels, optionally scoped to one
// platform.
func (h *ChannelHandler) GetChannels(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	q := h.DB.Where("brand_id = ?", brandID)
	if p := c.Query("platform"); p != "" {
		q = q.Where("platform = ?", p)
	}

	var channels []models.Channel
	if err := q.Order("created_at").Find(&channels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	c.JSON(http.StatusOK, channels)
}

type connectChannelRequest struct {
	BrandID     string `json:"brand_id" binding:"required"`
	Platform    string `json:"platform" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	Metadata    string `json:"metadata"`
}

// ConnectChannel registers a connected social account for a brand. The
// OAuth dance happens elsewhere; this endpoint records its result.
func (h *ChannelHandler) ConnectChannel(c *gin.Context) {
	var req connectChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !platform.Platform(req.Platform).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform"})
		return
	}

	channel := models.Channel{
		ID:          uuid.NewString(),
		BrandID:     req.BrandID,
		Platform:    req.Platform,
		DisplayName: req.DisplayName,
		Username:    req.Username,
		AvatarURL:   req.AvatarURL,
		Status:      "active",
		Metadata:    req.Metadata,
	}
	if err := h.DB.Create(&channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect channel"})
		return
	}

	c.JSON(http.StatusCreated, channel)
}

type channelStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateChannelStatus records a connection-status refresh (active, expired,
// error, disconnected).
func (h *ChannelHandler) UpdateChannelStatus(c *gin.Context) {
	var req channelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case "active", "expired", "error", "disconnected":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown channel status"})
		return
	}

	result := h.DB.Model(&models.Channel{}).Where("id = ?", c.Param("id")).Update("status", req.Status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update channel"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Channel updated"})
}

func (h *ChannelHandler) DisconnectChannel(c *gin.Context) {
	result := h.DB.Delete(&models.Channel{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect channel"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Channel disconnected"})
}
