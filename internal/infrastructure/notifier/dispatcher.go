package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/domain/repositories"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/pkg/logger"
)

type emailSender interface {
	Send(ctx context.Context, msg entities.EmailMessage) error
}

type eventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Dispatcher delivers post-commit side effects. Work goes through the Redis
// outbox when a queue is configured, otherwise it runs in a goroutine.
// Failures are logged and never reach the caller.
type Dispatcher struct {
	queue         *Queue
	mailer        emailSender
	notifications repositories.NotificationRepository
	events        eventPublisher
	metrics       *metrics.Metrics
	inflight      sync.WaitGroup
}

// NewDispatcher wires the delivery handlers. queue and events may be nil.
func NewDispatcher(queue *Queue, mailer emailSender, notifications repositories.NotificationRepository, events eventPublisher, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		queue:         queue,
		mailer:        mailer,
		notifications: notifications,
		events:        events,
		metrics:       m,
	}
	if queue != nil {
		queue.Handle(JobKindEmail, d.handleEmail)
		queue.Handle(JobKindNotification, d.handleNotification)
	}
	return d
}

// SendEmail accepts msg for delivery. It returns false when the message can
// never be delivered.
func (d *Dispatcher) SendEmail(ctx context.Context, msg entities.EmailMessage) bool {
	if msg.To == "" {
		logger.Warn(ctx, "Email dropped, no recipient", zap.String("template", msg.Template))
		return false
	}
	if _, err := Render(msg); err != nil {
		logger.Error(ctx, "Email dropped", zap.String("template", msg.Template), zap.Error(err))
		return false
	}

	if d.enqueue(ctx, JobKindEmail, msg) {
		return true
	}
	d.fallback(ctx, JobKindEmail, func(ctx context.Context) error {
		return d.mailer.Send(ctx, msg)
	})
	return true
}

// SendNotification stores the in-app notification and broadcasts it
func (d *Dispatcher) SendNotification(ctx context.Context, n entities.Notification) {
	if d.enqueue(ctx, JobKindNotification, n) {
		return
	}
	d.fallback(ctx, JobKindNotification, func(ctx context.Context) error {
		return d.deliverNotification(ctx, n)
	})
}

// Wait blocks until every fallback delivery has finished
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) enqueue(ctx context.Context, kind JobKind, payload interface{}) bool {
	if d.queue == nil {
		return false
	}
	job, err := d.queue.Enqueue(ctx, kind, payload)
	if err != nil {
		logger.Warn(ctx, "Outbox unavailable, delivering directly", zap.String("kind", string(kind)), zap.Error(err))
		return false
	}
	logger.Debug(ctx, "Outbox job queued", zap.String("job_id", job.ID), zap.String("kind", string(kind)))
	return true
}

func (d *Dispatcher) fallback(ctx context.Context, kind JobKind, deliver func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := deliver(detached); err != nil {
			logger.Error(detached, "Direct delivery failed", zap.String("kind", string(kind)), zap.Error(err))
			d.metrics.ObserveOutbox(string(kind), "failed")
			return
		}
		d.metrics.ObserveOutbox(string(kind), "direct")
	}()
}

func (d *Dispatcher) handleEmail(ctx context.Context, payload json.RawMessage) error {
	var msg entities.EmailMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode email job: %w", err)
	}
	return d.mailer.Send(ctx, msg)
}

func (d *Dispatcher) handleNotification(ctx context.Context, payload json.RawMessage) error {
	var n entities.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("decode notification job: %w", err)
	}
	return d.deliverNotification(ctx, n)
}

func (d *Dispatcher) deliverNotification(ctx context.Context, n entities.Notification) error {
	if err := d.notifications.Create(ctx, &n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if d.events == nil {
		return nil
	}
	// The row is written; a lost broadcast is not worth a duplicate on retry.
	if err := d.events.Publish(ctx, Event{
		EventType:  string(n.Type),
		UserID:     n.UserID.String(),
		Title:      n.Title,
		Data:       n.Data,
		OccurredAt: n.CreatedAt,
	}); err != nil {
		logger.Warn(ctx, "Event publish failed",
			zap.String("notification_id", n.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
