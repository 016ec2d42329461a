package api

import (
	"net/http"

	"socialflow/internal/state"

	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on the current user's role. Requests with
// no session pass through, so deployments that never call the login endpoint
// keep working; once someone is logged in their role is enforced.
func RequirePermission(auth *state.AuthProvider, perm state.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := auth.CurrentUser(); user != nil && !user.Role.Allows(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
