package services

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
	"gorm.io/gorm"
)

// PendingReminderService sends project owners a daily digest of collaboration
// requests still awaiting a response.
type PendingReminderService struct {
	db             *gorm.DB
	notifier       *NotificationService
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewPendingReminderService(db *gorm.DB, notifier *NotificationService) *PendingReminderService {
	return &PendingReminderService{
		db:       db,
		notifier: notifier,
	}
}

func (s *PendingReminderService) StartScheduler() {
	s.cronScheduler = cron.New()

	s.updateSchedule()

	s.cronScheduler.Start()
	logger.Infof("[Reminder] Scheduler started")
}

func (s *PendingReminderService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *PendingReminderService) updateSchedule() {
	if s.currentEntryID != 0 {
		s.cronScheduler.Remove(s.currentEntryID)
	}

	reminderTime := s.getReminderTime()
	parts := strings.Split(reminderTime, ":")
	hour := "9"
	minute := "0"
	if len(parts) == 2 {
		hour = parts[0]
		minute = parts[1]
	}

	cronExpr := fmt.Sprintf("%s %s * * *", minute, hour)

	entryID, err := s.cronScheduler.AddFunc(cronExpr, func() {
		s.SendPendingDigests()
	})
	if err != nil {
		logger.Errorf("[Reminder] Failed to add cron job: %v", err)
		return
	}

	s.currentEntryID = entryID
	logger.Infof("[Reminder] Scheduled at %s (cron: %s)", reminderTime, cronExpr)
}

func (s *PendingReminderService) getReminderTime() string {
	var config models.SystemConfig
	if err := s.db.Where("key = ?", "pending_reminder_time").First(&config).Error; err != nil {
		return "09:00"
	}
	return config.Value
}

func (s *PendingReminderService) isEnabled() bool {
	var config models.SystemConfig
	if err := s.db.Where("key = ?", "pending_reminder_enabled").First(&config).Error; err != nil {
		return false
	}
	return config.Value == "true"
}

type pendingProjectCount struct {
	ProjectID uint
	Count     int
}

// SendPendingDigests enqueues one digest mail per project that has pending
// collaboration requests.
func (s *PendingReminderService) SendPendingDigests() {
	if !s.isEnabled() {
		logger.Debug().Msg("pending reminder disabled, skipping")
		return
	}

	var counts []pendingProjectCount
	err := s.db.Model(&models.CollaborationRequest{}).
		Select("project_id, COUNT(*) as count").
		Where("status = ?", models.RequestStatusPending).
		Group("project_id").
		Scan(&counts).Error
	if err != nil {
		logger.Errorf("[Reminder] Failed to collect pending counts: %v", err)
		return
	}

	sent := 0
	for _, pc := range counts {
		var project models.Project
		if err := s.db.First(&project, pc.ProjectID).Error; err != nil {
			continue
		}

		var owner models.User
		if err := s.db.First(&owner, project.AuthorID).Error; err != nil {
			continue
		}

		s.notifier.NotifyPendingDigest(&owner, &project, pc.Count)
		sent++
	}

	if sent > 0 {
		logger.Infof("[Reminder] Queued pending digests for %d project(s)", sent)
	}
}
