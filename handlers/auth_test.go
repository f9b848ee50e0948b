package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/coinvest/config"
	"github.com/yourusername/coinvest/middleware"
	"github.com/yourusername/coinvest/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, config.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		JWTRefreshSecret:     "test-refresh-secret",
		DepositWalletAddress: "bc1qplatformwallet",
	}
}

func registerBody() map[string]interface{} {
	return map[string]interface{}{
		"first_name":        "Alice",
		"last_name":         "Smith",
		"username":          "alices",
		"email":             "alice@example.com",
		"password":          "S3curePass!",
		"country":           "US",
		"security_question": "First pet?",
		"security_answer":   "Rex",
		"wallet_address":    "bc1qalicewallet",
	}
}

func postJSON(router *gin.Engine, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return serve(router, w, req)
}

func serve(router *gin.Engine, w *httptest.ResponseRecorder, req *http.Request) *httptest.ResponseRecorder {
	router.ServeHTTP(w, req)
	return w
}

func authRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(db, cfg)
	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	router.POST("/refresh", handler.Refresh)
	router.POST("/forgot-password", handler.ForgotPassword)
	router.POST("/reset-password", handler.ResetPassword)
	router.POST("/change-password", func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Next()
	}, handler.ChangePassword)
	return router
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	router := authRouter(db, testConfig())

	t.Run("Stores referral code from URL verbatim", func(t *testing.T) {
		w := postJSON(router, "/register?ref=ABC123", registerBody(), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")

		var user models.User
		assert.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
		assert.Equal(t, "ABC123", user.ReferralCode)
		assert.Equal(t, "0", user.Balance.String())
		assert.False(t, user.Verified)

		// Password is hashed, never stored verbatim.
		assert.NotEqual(t, "S3curePass!", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("S3curePass!")))

		// Referral log entry exists even though no referrer "ABC123" exists.
		var referral models.Referral
		assert.NoError(t, db.Where("code = ?", "ABC123").First(&referral).Error)
		assert.Equal(t, user.ID, referral.ReferredUserID)
	})

	t.Run("Duplicate email rejected", func(t *testing.T) {
		w := postJSON(router, "/register", registerBody(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing fields rejected", func(t *testing.T) {
		body := registerBody()
		delete(body, "security_question")
		body["email"] = "bob@example.com"
		body["username"] = "bobby"
		w := postJSON(router, "/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	router := authRouter(db, testConfig())

	w := postJSON(router, "/register", registerBody(), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	t.Run("Valid credentials", func(t *testing.T) {
		w := postJSON(router, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "S3curePass!",
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
		assert.Contains(t, w.Body.String(), "refresh_token")
	})

	t.Run("Wrong password", func(t *testing.T) {
		w := postJSON(router, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "wrongpass123",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Unknown email", func(t *testing.T) {
		w := postJSON(router, "/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "S3curePass!",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefresh(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	router := authRouter(db, cfg)

	w := postJSON(router, "/register", registerBody(), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	assert.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)

	t.Run("Valid refresh token", func(t *testing.T) {
		token, err := middleware.GenerateToken(user.ID, user.Role, cfg.JWTRefreshSecret, time.Hour)
		assert.NoError(t, err)

		w := postJSON(router, "/refresh", map[string]string{"refresh_token": token}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("Access token signed with wrong secret rejected", func(t *testing.T) {
		token, err := middleware.GenerateToken(user.ID, user.Role, cfg.JWTSecret, time.Hour)
		assert.NoError(t, err)

		w := postJSON(router, "/refresh", map[string]string{"refresh_token": token}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	db := setupTestDB(t)
	router := authRouter(db, testConfig())

	w := postJSON(router, "/register", registerBody(), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	t.Run("Generic response for unknown email", func(t *testing.T) {
		w := postJSON(router, "/forgot-password", map[string]string{"email": "nobody@example.com"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.PasswordReset{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Reset flow", func(t *testing.T) {
		w := postJSON(router, "/forgot-password", map[string]string{"email": "alice@example.com"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var reset models.PasswordReset
		assert.NoError(t, db.First(&reset).Error)

		w = postJSON(router, "/reset-password", map[string]string{
			"token":        reset.Token,
			"new_password": "N3wPassword!",
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = postJSON(router, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "N3wPassword!",
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		// Token is single use.
		w = postJSON(router, "/reset-password", map[string]string{
			"token":        reset.Token,
			"new_password": "An0therPass!",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	router := authRouter(db, testConfig())

	w := postJSON(router, "/register", registerBody(), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	t.Run("Wrong current password", func(t *testing.T) {
		w := postJSON(router, "/change-password", map[string]string{
			"current_password": "wrongpass123",
			"new_password":     "N3wPassword!",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Re-authenticates then updates", func(t *testing.T) {
		w := postJSON(router, "/change-password", map[string]string{
			"current_password": "S3curePass!",
			"new_password":     "N3wPassword!",
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = postJSON(router, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "N3wPassword!",
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
