package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/yourusername/coinvest/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	JWTRefreshSecret     string
	PriceFeedURL         string
	DepositWalletAddress string
	AdminEmail           string
	AdminPassword        string
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	return &Config{
		Port:                 os.Getenv("PORT"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTRefreshSecret:     os.Getenv("JWT_REFRESH_SECRET"),
		PriceFeedURL:         getEnvOrDefault("PRICE_FEED_URL", "https://api.coingecko.com/api/v3"),
		DepositWalletAddress: getEnvOrDefault("DEPOSIT_WALLET_ADDRESS", "bc1quk28pa8ujaghsthl6lhwdfemfvv00prhyw6lt0"),
		AdminEmail:           os.Getenv("ADMIN_EMAIL"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
	}, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Migrate runs the schema migration for every model. Split out from InitDB
// so tests can run it against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.BankAccount{},
		&models.Referral{},
		&models.PasswordReset{},
		&models.SiteSetting{},
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
