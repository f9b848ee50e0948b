package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/coinvest/config"
	"github.com/yourusername/coinvest/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, config.Migrate(db))
	return db
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(testDB(t), &config.Config{JWTSecret: "s", JWTRefreshSecret: "r"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(testDB(t), &config.Config{JWTSecret: "s", JWTRefreshSecret: "r"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/wallet", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/admin/users", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBootstrapAdmin(t *testing.T) {
	db := testDB(t)
	cfg := &config.Config{
		AdminEmail:    "ops@example.com",
		AdminPassword: "Sup3rSecret!",
	}

	assert.NoError(t, bootstrapAdmin(db, cfg))

	var admin models.User
	assert.NoError(t, db.Where("email = ?", "ops@example.com").First(&admin).Error)
	assert.Equal(t, "admin", admin.Role)
	assert.True(t, admin.Verified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("Sup3rSecret!")))

	// Idempotent on restart.
	assert.NoError(t, bootstrapAdmin(db, cfg))
	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// No-op when not configured.
	assert.NoError(t, bootstrapAdmin(db, &config.Config{}))
}
