package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace.backend/internal/config"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/infrastructure/datasources/postgres"
	"marketplace.backend/internal/infrastructure/gateway"
	"marketplace.backend/internal/infrastructure/jobs"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/internal/infrastructure/notifier"
	"marketplace.backend/internal/infrastructure/repositories"
	"marketplace.backend/internal/usecases"
	"marketplace.backend/pkg/logger"
	"marketplace.backend/pkg/redis"
)

var openSweepDB = postgres.OpenGorm

var openSweepSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

// sweepRuntime is what one sweep needs: the sweep itself and a way to drain
// notifications it triggered before the process exits.
type sweepRuntime struct {
	run   func(ctx context.Context) (*entities.ExpirySummary, error)
	drain func()
}

type sweepDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (sweepRuntime, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultSweepDeps() sweepDeps {
	return sweepDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: prepareSweep,
		out:     os.Stdout,
	}
}

func prepareSweep(cfg *config.Config) (sweepRuntime, io.Closer, error) {
	db, err := openSweepDB(cfg.Database)
	if err != nil {
		return sweepRuntime{}, nil, fmt.Errorf("failed to connect db: %w", err)
	}
	sqlDB, err := openSweepSQLDB(db)
	if err != nil {
		return sweepRuntime{}, nil, fmt.Errorf("failed to init sql db: %w", err)
	}

	// Notifications are delivered directly; a one-shot process has no worker pool.
	if err := redis.Init(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Warn(context.Background(), "Redis unavailable, domain events are not published", zap.Error(err))
	}
	m := metrics.New()
	dispatcher := notifier.NewDispatcher(nil, notifier.NewMailer(cfg.SMTP),
		repositories.NewNotificationRepository(db),
		notifier.NewEventPublisher(redis.GetClient(), cfg.Outbox.Channel), m)

	subscriptions := usecases.NewSubscriptionUsecase(
		repositories.NewUnitOfWork(db),
		repositories.NewUserRepository(db),
		repositories.NewSellerProfileRepository(db),
		repositories.NewSubscriptionRepository(db),
		gateway.NewClient(cfg.Gateway, m),
		dispatcher,
		usecases.SubscriptionConfig{
			TrialDays:       cfg.Subscription.TrialDays,
			CallbackBaseURL: cfg.Server.PublicURL,
			ExpiryBatchSize: cfg.Subscription.SweepBatch,
		},
	)
	return sweepRuntime{
		run:   jobs.NewSubscriptionExpiryJob(subscriptions, cfg.Subscription.SweepInterval, m).RunOnce,
		drain: dispatcher.Wait,
	}, sqlDB, nil
}

func runSweep(args []string, deps sweepDeps) error {
	def := defaultSweepDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("expiry-sweep", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	timeout := fs.Duration("timeout", 2*time.Minute, "abort the sweep after this long")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	logger.Init(cfg.Server.Env)
	defer logger.Sync()
	defer func() { _ = redis.Close() }()

	rt, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()
	if rt.drain != nil {
		defer rt.drain()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, err := rt.run(ctx)
	if summary != nil {
		if *asJSON {
			if encErr := json.NewEncoder(deps.out).Encode(summary); encErr != nil {
				return encErr
			}
		} else {
			_, _ = fmt.Fprintf(deps.out, "subscriptions_expired=%d\ntrials_ended=%d\nusers_demoted=%d\n",
				summary.SubscriptionsExpired, summary.TrialsEnded, summary.UsersDemoted)
		}
	}
	if err != nil {
		return fmt.Errorf("expiry sweep failed: %w", err)
	}
	return nil
}

func main() {
	if err := runSweep(os.Args[1:], defaultSweepDeps()); err != nil {
		log.Fatal(err)
	}
}
