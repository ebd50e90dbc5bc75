package main

import (
	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/internal/handlers"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/internal/services"
	"github.com/scholarpoint/scholarpoint/internal/utils"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	collabService   *services.CollaborationService
	reminderService *services.PendingReminderService
	taskQueue       services.TaskQueue
	worker          *services.Worker
	authHandler     *handlers.AuthHandler
	projectHandler  *handlers.ProjectHandler
	collabHandler   *handlers.CollaborationHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Initialize activity logger and its cleanup scheduler
	services.InitActivityLogger(db)
	services.StartActivityCleanupScheduler(db)

	// Initialize notification pipeline (Redis-backed if enabled, otherwise sync)
	taskQueue := services.InitTaskQueue(cfg)
	notifier := services.NewNotificationService(db, taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifier.Deliver)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifier.Deliver)
			worker.Start()
		}
	}

	// Collaboration workflow
	collabService := services.NewCollaborationService(db, notifier)

	// Pending request reminder scheduler
	reminderService := services.NewPendingReminderService(db, notifier)
	reminderService.StartScheduler()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		collabService:   collabService,
		reminderService: reminderService,
		taskQueue:       taskQueue,
		worker:          worker,
		authHandler:     authHandler,
		projectHandler:  handlers.NewProjectHandler(db, collabService),
		collabHandler:   handlers.NewCollaborationHandler(collabService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()
	services.StopActivityCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
