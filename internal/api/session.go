package api

import (
	"net/http"

	"socialflow/internal/models"
	"socialflow/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler exposes the tenant-state providers: current user,
// organization and brand selection, and the notification feed.
type SessionHandler struct {
	Auth          *state.AuthProvider
	Organizations *state.OrganizationProvider
	Brands        *state.BrandProvider
	Notifications *state.NotificationProvider
}

func NewSessionHandler(auth *state.AuthProvider, orgs *state.OrganizationProvider, brands *state.BrandProvider, notifications *state.NotificationProvider) *SessionHandler {
	return &SessionHandler{
		Auth:          auth,
		Organizations: orgs,
		Brands:        brands,
		Notifications: notifications,
	}
}

// GetSession returns the hydrated session state in one shot.
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":         h.Auth.CurrentUser(),
		"organization": h.Organizations.Current(),
		"brand":        h.Brands.Current(),
	})
}

type loginRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login stores the user profile and starts the notification poll.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := state.User{ID: req.ID, Name: req.Name, Email: req.Email, Role: state.Role(req.Role)}
	if err := h.Auth.Login(user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Notifications.Start(user.ID)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout clears the session state and stops the notification poll.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.Notifications.Stop()
	if err := h.Auth.Logout(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Logged out"})
}

func (h *SessionHandler) GetOrganizations(c *gin.Context) {
	c.JSON(http.StatusOK, h.Organizations.List())
}

type createOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *SessionHandler) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org := models.Organization{ID: uuid.NewString(), Name: req.Name}
	if err := h.Organizations.Create(org); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create organization"})
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h *SessionHandler) SelectOrganization(c *gin.Context) {
	if err := h.Organizations.Select(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	// brand collection is scoped to the organization
	h.Brands.Refresh()
	c.JSON(http.StatusOK, gin.H{"organization": h.Organizations.Current()})
}

func (h *SessionHandler) GetBrands(c *gin.Context) {
	c.JSON(http.StatusOK, h.Brands.List())
}

type createBrandRequest struct {
	Name    string `json:"name" binding:"required"`
	LogoURL string `json:"logo_url"`
}

func (h *SessionHandler) CreateBrand(c *gin.Context) {
	var req createBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brand := models.Brand{ID: uuid.NewString(), Name: req.Name, LogoURL: req.LogoURL}
	if err := h.Brands.Create(brand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (h *SessionHandler) SelectBrand(c *gin.Context) {
	if err := h.Brands.Select(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": h.Brands.Current()})
}

func (h *SessionHandler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.Notifications.Notifications(),
		"unread":        h.Notifications.UnreadCount(),
	})
}

func (h *SessionHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Notification read"})
}
