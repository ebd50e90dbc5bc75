package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
)

// Worker processes notification tasks from the async queue
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *NotificationTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a new worker instance
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function to process notification tasks
func (w *Worker) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeNotification, w.handleNotificationTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

// handleNotificationTask processes a single notification task
func (w *Worker) handleNotificationTask(ctx context.Context, t *asynq.Task) error {
	var task NotificationTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Infof("[Worker] Failed to unmarshal task: %v", err)
		return err
	}

	logger.Infof("[Worker] Processing notification task: kind=%s, project_id=%d, to=%s",
		task.Kind, task.ProjectID, task.To)

	if w.processor == nil {
		logger.Infof("[Worker] Warning: no processor set")
		return nil
	}

	return w.processor(ctx, &task)
}
