package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/app/background"
	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/badgerstore"
	infrastructure "github.com/LavaJover/shvark-rates-service/internal/infrastructure/exchange_providers"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Dependencies struct {
	Config   *config.RatesConfig
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.RateSyncMetrics

	RateRepo        domain.RateRepository
	RateSyncUsecase *usecase.DefaultRateSyncUsecase
	Health          *grpcapi.HealthReporter
	Tasks           *background.BackgroundTasks

	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func InitializeDependencies(cfg *config.RatesConfig, log *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: log,
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewRateSyncMetrics(deps.Registry)

	repo, cycleLogger, err := deps.initStore()
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("rate store: %w", err)
	}
	deps.RateRepo = repo

	publisher, err := deps.initPublisher()
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("rate publisher: %w", err)
	}

	provider := infrastructure.NewFixerProvider(cfg.Fixer, log.With("provider", "fixer"))

	deps.RateSyncUsecase, err = usecase.NewDefaultRateSyncUsecase(
		repo,
		provider,
		publisher,
		cycleLogger,
		deps.Metrics,
		log,
		usecase.RateSyncConfig{
			Currencies:        cfg.Sync.Currencies,
			Concurrency:       cfg.Sync.Concurrency,
			MissingRatePolicy: usecase.MissingRatePolicy(cfg.Sync.MissingRatePolicy),
		},
	)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("rate sync usecase: %w", err)
	}

	deps.Health = grpcapi.NewHealthReporter(log)
	deps.Tasks = background.NewBackgroundTasks(deps.RateSyncUsecase, cfg.Sync, log, deps.Health)

	return deps, nil
}

func (d *Dependencies) initStore() (domain.RateRepository, logger.SyncCycleLogger, error) {
	switch d.Config.Store.Driver {
	case "badger":
		db, err := badgerstore.Open(d.Config.Store.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		d.closers = append(d.closers, closerFunc(db.Close))
		d.Logger.Info("using badger rate store", "path", d.Config.Store.BadgerPath)
		return badgerstore.NewRateRepository(db), nil, nil
	default:
		db := postgres.MustInitDB(d.Config)
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		d.closers = append(d.closers, sqlDB)
		d.Logger.Info("using postgres rate store")
		return repository.NewDefaultRateRepository(db), logger.NewPGSyncCycleLogger(db), nil
	}
}

func (d *Dependencies) initPublisher() (domain.RateEventPublisher, error) {
	if !d.Config.Kafka.Enabled {
		return nil, nil
	}
	kp, err := kafka.NewDefaultKafkaPublisher(d.Config.Kafka)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, kp)
	d.Logger.Info("publishing rate events", "topic", d.Config.Kafka.Topic)
	return kafka.NewRatePublisher(kp, d.Logger), nil
}

// WarmRateGauges exposes the cached rates before the first cycle runs.
func (d *Dependencies) WarmRateGauges(ctx context.Context) {
	lister, ok := d.RateRepo.(domain.RateLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	records, err := lister.ListRates(ctx)
	if err != nil {
		d.Logger.Warn("failed to list cached rates", "error", err)
		return
	}
	for _, r := range records {
		d.Metrics.CurrencyRate.WithLabelValues(r.Code).Set(r.Rate)
	}
	d.Logger.Info("cached rates loaded", "count", len(records))
}

// Close releases stores and publishers in reverse order of creation.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
