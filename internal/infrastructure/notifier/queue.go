package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/pkg/logger"
	"marketplace.backend/pkg/utils"
)

const (
	// Redis keys
	JobQueueKey      = "outbox:queue"
	JobProcessingKey = "outbox:processing"

	DefaultMaxRetries = 3
	DefaultWorkers    = 2

	popTimeout = time.Second
)

// JobKind selects the handler for a job
type JobKind string

const (
	JobKindEmail        JobKind = "email"
	JobKindNotification JobKind = "notification"
)

// Job is one outbox entry. It is stored in the Redis lists as JSON.
type Job struct {
	ID         string          `json:"id"`
	Kind       JobKind         `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HandlerFunc processes the payload of one job
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Queue is a Redis list backed outbox with a fixed worker pool.
type Queue struct {
	client     *redis.Client
	workers    int
	maxRetries int
	metrics    *metrics.Metrics
	handlers   map[JobKind]HandlerFunc

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a queue on client. m may be nil.
func NewQueue(client *redis.Client, workers, maxRetries int, m *metrics.Metrics) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Queue{
		client:     client,
		workers:    workers,
		maxRetries: maxRetries,
		metrics:    m,
		handlers:   make(map[JobKind]HandlerFunc),
	}
}

// Handle registers the handler for kind. Call before Start.
func (q *Queue) Handle(kind JobKind, h HandlerFunc) {
	q.handlers[kind] = h
}

// Enqueue stores a new job with payload marshalled as JSON
func (q *Queue) Enqueue(ctx context.Context, kind JobKind, payload interface{}) (*Job, error) {
	if q == nil || q.client == nil {
		return nil, errors.New("outbox queue not configured")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	job := &Job{
		ID:         utils.GenerateUUIDv7().String(),
		Kind:       kind,
		Payload:    raw,
		MaxRetries: q.maxRetries,
		CreatedAt:  time.Now().UTC(),
	}
	if err := q.push(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *Queue) push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, JobQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Start launches the workers. Jobs left in the processing list by a previous
// crash are moved back to the queue first.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})

	q.recover(ctx)

	fields := []zap.Field{zap.Int("workers", q.workers)}
	if pending, err := q.Len(ctx); err == nil {
		fields = append(fields, zap.Int64("pending", pending))
	}
	logger.Info(ctx, "Outbox workers starting", fields...)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop signals the workers and waits for in-flight jobs
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	close(q.stopCh)
	q.running = false
	q.wg.Wait()

	ctx := context.Background()
	if pending, err := q.Len(ctx); err == nil && pending > 0 {
		logger.Warn(ctx, "Outbox workers stopped with jobs waiting", zap.Int64("pending", pending))
		return
	}
	logger.Info(ctx, "Outbox workers stopped")
}

func (q *Queue) recover(ctx context.Context) {
	for {
		data, err := q.client.RPopLPush(ctx, JobProcessingKey, JobQueueKey).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logger.Error(ctx, "Outbox recovery failed", zap.Error(err))
			}
			return
		}
		logger.Warn(ctx, "Outbox job requeued after restart", zap.Int("bytes", len(data)))
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		if _, err := q.ProcessNext(ctx, popTimeout); err != nil {
			logger.Error(ctx, "Outbox worker error", zap.Int("worker", id), zap.Error(err))
			select {
			case <-q.stopCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessNext waits up to timeout for one job and runs it. It reports whether
// a job was taken.
func (q *Queue) ProcessNext(ctx context.Context, timeout time.Duration) (bool, error) {
	data, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	defer q.client.LRem(ctx, JobProcessingKey, 1, data)

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		logger.Error(ctx, "Outbox dropped malformed job", zap.Error(err))
		q.metrics.ObserveOutbox("unknown", "dropped")
		return true, nil
	}

	handler, found := q.handlers[job.Kind]
	if !found {
		logger.Error(ctx, "Outbox dropped job without handler",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
		)
		q.metrics.ObserveOutbox(string(job.Kind), "dropped")
		return true, nil
	}

	if err := handler(ctx, job.Payload); err != nil {
		q.retry(ctx, &job, err)
		return true, nil
	}

	q.metrics.ObserveOutbox(string(job.Kind), "succeeded")
	return true, nil
}

func (q *Queue) retry(ctx context.Context, job *Job, cause error) {
	job.Attempts++
	job.LastError = cause.Error()

	if job.Attempts > job.MaxRetries {
		logger.Error(ctx, "Outbox job failed permanently",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Int("attempts", job.Attempts),
			zap.Error(cause),
		)
		q.metrics.ObserveOutbox(string(job.Kind), "failed")
		return
	}

	logger.Warn(ctx, "Outbox job will be retried",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempt", job.Attempts),
		zap.Error(cause),
	)
	if err := q.push(ctx, job); err != nil {
		logger.Error(ctx, "Outbox requeue failed", zap.String("job_id", job.ID), zap.Error(err))
		q.metrics.ObserveOutbox(string(job.Kind), "failed")
		return
	}
	q.metrics.ObserveOutbox(string(job.Kind), "retried")
}

// Len returns the number of jobs waiting
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}
