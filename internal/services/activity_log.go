package services

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
	"gorm.io/gorm"
)

var activityDB *gorm.DB

// InitActivityLogger sets the database used by the package-level log helpers.
func InitActivityLogger(db *gorm.DB) {
	activityDB = db
}

// LogActivity records an info-level platform action. Best effort: a failed
// write never affects the triggering operation.
func LogActivity(module, action, message string, userID *uint, extra interface{}) {
	writeActivity("info", module, action, message, userID, extra)
}

// LogActivityError records an error-level platform action.
func LogActivityError(module, action, message string, userID *uint, extra interface{}) {
	writeActivity("error", module, action, message, userID, extra)
}

func writeActivity(level, module, action, message string, userID *uint, extra interface{}) {
	if activityDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.ActivityLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	activityDB.Create(entry)
}

var activityCleanupCron *cron.Cron

// StartActivityCleanupScheduler removes activity logs older than the
// configured retention every night at 03:00.
func StartActivityCleanupScheduler(db *gorm.DB) {
	activityCleanupCron = cron.New()

	_, err := activityCleanupCron.AddFunc("0 3 * * *", func() {
		CleanupActivityLogs(db)
	})
	if err != nil {
		logger.Errorf("[ActivityLog] Failed to schedule cleanup: %v", err)
		return
	}

	activityCleanupCron.Start()
	logger.Infof("[ActivityLog] Cleanup scheduler started")
}

// StopActivityCleanupScheduler stops the cleanup cron.
func StopActivityCleanupScheduler() {
	if activityCleanupCron != nil {
		activityCleanupCron.Stop()
	}
}

// CleanupActivityLogs deletes logs older than the configured retention days.
func CleanupActivityLogs(db *gorm.DB) {
	days := activityRetentionDays(db)
	cutoff := time.Now().AddDate(0, 0, -days)

	result := db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		logger.Errorf("[ActivityLog] Cleanup failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.Infof("[ActivityLog] Removed %d entries older than %d days", result.RowsAffected, days)
	}
}

func activityRetentionDays(db *gorm.DB) int {
	var cfg models.SystemConfig
	if err := db.Where("key = ?", "activity_log_retention_days").First(&cfg).Error; err != nil {
		return 30
	}
	days, err := strconv.Atoi(cfg.Value)
	if err != nil || days <= 0 {
		return 30
	}
	return days
}
