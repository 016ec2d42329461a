package database

import (
	"fmt"
	"log"

	"socialflow/internal/config"
	"socialflow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

// InitGorm connects to PostgreSQL when DB_HOST is set, otherwise falls back
// to a local SQLite file for development.
func InitGorm(cfg *config.Config) {
	var err error
	if cfg.DBHost != "" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		GormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	} else {
		GormDB, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Connected to database successfully")

	// Auto Migration
	err = GormDB.AutoMigrate(
		&models.Organization{},
		&models.Brand{},
		&models.Channel{},
		&models.BulkPost{},
		&models.PublishResult{},
		&models.Contact{},
		&models.Message{},
		&models.Template{},
		&models.Notification{},
		&models.Setting{},
	)
	if err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}

	log.Println("Database migration completed")
}

// SyncConfig reconciles credential settings between the environment and the
// settings table: values already stored win, new env values are persisted.
func SyncConfig(cfg *config.Config) {
	settings := []struct {
		Key   string
		Value *string
	}{
		{"VERIFY_TOKEN", &cfg.VerifyToken},
		{"WHATSAPP_TOKEN", &cfg.WhatsAppToken},
		{"PHONE_NUMBER_ID", &cfg.PhoneNumberID},
		{"WABA_ID", &cfg.WhatsAppBusinessAccountID},
		{"CONNECTOR_BASE_URL", &cfg.ConnectorBaseURL},
	}

	for _, s := range settings {
		var setting models.Setting
		if err := GormDB.Where("key = ?", s.Key).First(&setting).Error; err == nil {
			if setting.Value != "" {
				*s.Value = setting.Value
			}
		} else {
			if *s.Value != "" {
				GormDB.Create(&models.Setting{
					Key:   s.Key,
					Value: *s.Value,
				})
			}
		}
	}
	log.Println("System settings synchronized from database")
}
