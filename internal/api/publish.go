package api

import (
	"errors"
	"net/http"

	"socialflow/internal/platform"
	"socialflow/internal/publish"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PublishHandler struct {
	Service *publish.Service
}

func NewPublishHandler(service *publish.Service) *PublishHandler {
	return &PublishHandler{Service: service}
}

// GetAvailableChannels returns the composer snapshot: target platforms,
// channels per platform, and which targets have nothing connected.
func (h *PublishHandler) GetAvailableChannels(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}

	available, err := h.Service.AvailableChannelsForBrand(brandID, c.Query("contentType"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, available)
}

type assignmentDTO struct {
	Platform  string `json:"platform" binding:"required"`
	ChannelID string `json:"channel_id" binding:"required"`
}

type bulkPublishRequest struct {
	BrandID          string          `json:"brand_id" binding:"required"`
	Content          string          `json:"content" binding:"required"`
	Assignments      []assignmentDTO `json:"assignments" binding:"required"`
	EnabledPlatforms []string        `json:"enabled_platforms" binding:"required"`
}

// SubmitBulkPublish validates the request, creates the attempt and queues
// the fan-out.
func (h *PublishHandler) SubmitBulkPublish(c *gin.Context) {
	var req bulkPublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submit := publish.SubmitRequest{
		BrandID: req.BrandID,
		Content: req.Content,
	}
	for _, a := range req.Assignments {
		submit.Assignments = append(submit.Assignments, publish.Assignment{
			Platform:  platform.Platform(a.Platform),
			ChannelID: a.ChannelID,
		})
	}
	for _, p := range req.EnabledPlatforms {
		submit.EnabledPlatforms = append(submit.EnabledPlatforms, platform.Platform(p))
	}

	post, err := h.Service.Submit(submit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id": post.ID,
		"results": post.Results,
	})
}

// GetBulkPublishStatus is the polling endpoint for the progress dialog.
func (h *PublishHandler) GetBulkPublishStatus(c *gin.Context) {
	status, err := h.Service.Status(c.Param("postId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bulk publish not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// CancelBulkPublish cancels every non-terminal row of an attempt.
func (h *PublishHandler) CancelBulkPublish(c *gin.Context) {
	status, err := h.Service.Cancel(c.Param("postId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bulk publish not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
