package models

import (
	"fmt"

	"github.com/scholarpoint/scholarpoint/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Project{},
		&CollaborationRequest{},
		&SystemConfig{},
		&ActivityLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default system configs if not exists
func SeedDefaultData() error {
	defaultConfigs := []SystemConfig{
		{Key: "email_enabled", Value: "false", Type: "bool", Group: "email", Label: "Enable Email Notifications"},
		{Key: "email_host", Value: "", Type: "string", Group: "email", Label: "SMTP Host"},
		{Key: "email_port", Value: "587", Type: "int", Group: "email", Label: "SMTP Port"},
		{Key: "email_username", Value: "", Type: "string", Group: "email", Label: "SMTP Username"},
		{Key: "email_password", Value: "", Type: "string", Group: "email", Label: "SMTP Password"},
		{Key: "email_from", Value: "", Type: "string", Group: "email", Label: "Sender Address"},
		{Key: "email_use_tls", Value: "false", Type: "bool", Group: "email", Label: "Use SSL/TLS"},
		{Key: "pending_reminder_enabled", Value: "false", Type: "bool", Group: "reminder", Label: "Enable Pending Request Reminder"},
		{Key: "pending_reminder_time", Value: "09:00", Type: "string", Group: "reminder", Label: "Pending Request Reminder Time"},
		{Key: "activity_log_retention_days", Value: "30", Type: "int", Group: "system", Label: "Activity Log Retention Days"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("key = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
