package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/pkg/logger"
)

const defaultSweepInterval = time.Minute

// ExpirySweeper is the part of the subscription usecase the job drives
type ExpirySweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (*entities.ExpirySummary, error)
}

// SubscriptionExpiryJob periodically expires lapsed subscriptions and trials
type SubscriptionExpiryJob struct {
	sweeper  ExpirySweeper
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSubscriptionExpiryJob(sweeper ExpirySweeper, interval time.Duration, m *metrics.Metrics) *SubscriptionExpiryJob {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SubscriptionExpiryJob{
		sweeper:  sweeper,
		interval: interval,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
	}
}

// Start blocks, sweeping on every tick until ctx is cancelled or Stop is called
func (j *SubscriptionExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "Subscription expiry job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Subscription expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Subscription expiry job stopped")
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}

func (j *SubscriptionExpiryJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

// RunOnce performs a single sweep. Partial results are returned with the error.
func (j *SubscriptionExpiryJob) RunOnce(ctx context.Context) (*entities.ExpirySummary, error) {
	summary, err := j.sweeper.ExpireDue(ctx, j.now())
	if summary == nil {
		summary = &entities.ExpirySummary{}
	}
	j.metrics.ObserveSweep(err, summary.SubscriptionsExpired, summary.TrialsEnded, summary.UsersDemoted)

	if err != nil {
		logger.Error(ctx, "Subscription expiry sweep failed",
			zap.Int("subscriptions_expired", summary.SubscriptionsExpired),
			zap.Int("trials_ended", summary.TrialsEnded),
			zap.Error(err),
		)
		return summary, err
	}

	if summary.SubscriptionsExpired+summary.TrialsEnded > 0 {
		logger.Info(ctx, "Subscription expiry sweep finished",
			zap.Int("subscriptions_expired", summary.SubscriptionsExpired),
			zap.Int("trials_ended", summary.TrialsEnded),
			zap.Int("users_demoted", summary.UsersDemoted),
		)
	}
	return summary, nil
}
