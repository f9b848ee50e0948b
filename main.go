package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/coinvest/config"
	"github.com/yourusername/coinvest/handlers"
	"github.com/yourusername/coinvest/middleware"
	"github.com/yourusername/coinvest/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Seed the operator account when configured
	if err := bootstrapAdmin(db, cfg); err != nil {
		log.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	router := setupRouter(db, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting coinvest API server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "coinvest-api",
		})
	})

	authHandler := handlers.NewAuthHandler(db, cfg)
	walletHandler := handlers.NewWalletHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/change-password", middleware.JwtAuthMiddleware(cfg), authHandler.ChangePassword)
		}

		user := api.Group("", middleware.JwtAuthMiddleware(cfg))
		{
			user.GET("/wallet", walletHandler.GetWallet)
			user.GET("/wallet/transactions", walletHandler.ListTransactions)
			user.POST("/wallet/deposits", walletHandler.Deposit)
			user.POST("/wallet/withdrawals", walletHandler.Withdraw)
			user.POST("/wallet/transfers", walletHandler.Transfer)
			user.POST("/bank-accounts", walletHandler.LinkBankAccount)
			user.GET("/bank-accounts", walletHandler.ListBankAccounts)
			user.GET("/referrals", walletHandler.ListReferrals)
		}

		admin := api.Group("/admin", middleware.JwtAuthMiddleware(cfg), middleware.RequireRole("admin"))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.POST("/users/:id/adjust", adminHandler.AdjustBalance)
			admin.POST("/users/:id/verify", adminHandler.VerifyUser)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/transactions", adminHandler.ListTransactions)
			admin.POST("/transactions/:id/confirm", adminHandler.ConfirmTransaction)
			admin.GET("/settings/chat-widget", adminHandler.GetChatWidget)
			admin.PUT("/settings/chat-widget", adminHandler.SetChatWidget)
		}
	}

	return router
}

// bootstrapAdmin creates the operator account from ADMIN_EMAIL and
// ADMIN_PASSWORD on first start. Access control is the role claim checked by
// the middleware, not a shared console password.
func bootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), 12)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        cfg.AdminEmail,
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
		Verified:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("admin account created for %s", cfg.AdminEmail)
	return nil
}
