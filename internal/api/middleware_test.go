package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"socialflow/internal/models"
	"socialflow/internal/state"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAuthProvider(t *testing.T) *state.AuthProvider {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return state.NewAuthProvider(state.NewLocalStore(db))
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := newTestAuthProvider(t)

	r := gin.New()
	r.POST("/channels", RequirePermission(auth, state.PermManageChannels), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/channels", nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("expected sessionless request to pass, got %d", code)
	}

	if err := auth.Login(state.User{ID: "u1", Role: state.RoleViewer}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if code := post(); code != http.StatusForbidden {
		t.Fatalf("expected viewer to be denied, got %d", code)
	}

	if err := auth.Login(state.User{ID: "u1", Role: state.RoleAdmin}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if code := post(); code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", code)
	}
}
