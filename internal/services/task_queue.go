package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/pkg/logger"
)

const (
	TaskTypeNotification = "notification:send"
)

// Notification kinds
const (
	NotifyKindRequestReceived = "request_received"
	NotifyKindRequestApproved = "request_approved"
	NotifyKindRequestRejected = "request_rejected"
	NotifyKindPendingDigest   = "pending_digest"
)

// NotificationTask is a collaboration email to be delivered off the request
// path.
type NotificationTask struct {
	Kind            string `json:"kind"`
	To              string `json:"to"`
	ToName          string `json:"to_name"`
	ProjectID       uint   `json:"project_id"`
	ProjectTitle    string `json:"project_title"`
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
	Reason          string `json:"reason,omitempty"`
	Expertise       string `json:"expertise,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	PendingCount    int    `json:"pending_count,omitempty"`
}

// TaskQueue defines the interface for notification task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *NotificationTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a notification task to the async queue
func (q *AsyncQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotification, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process delivery (no Redis)
type SyncQueue struct {
	processor func(context.Context, *NotificationTask) error
}

// NewSyncQueue creates a new synchronous queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function to process tasks
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.processor = processor
}

// Enqueue hands the task to the processor in a goroutine so delivery never
// blocks the triggering request.
func (q *SyncQueue) Enqueue(task *NotificationTask) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, task will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close is a no-op for sync queue
func (q *SyncQueue) Close() error {
	return nil
}
