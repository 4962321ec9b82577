package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/jaevor/go-nanoid"
	"golang.org/x/sync/errgroup"
)

type RateSyncUsecase interface {
	RunCycle(ctx context.Context) (*CycleReport, error)
}

// MissingRatePolicy decides what happens to a stale code the provider
// did not quote (absent or malformed entry).
type MissingRatePolicy string

const (
	// MissingRateZero applies 0.0 and still stamps today.
	MissingRateZero MissingRatePolicy = "zero"
	// MissingRateKeep leaves the record untouched so it stays stale.
	MissingRateKeep MissingRatePolicy = "keep"
)

type RateSyncConfig struct {
	Currencies        []string
	Concurrency       int
	MissingRatePolicy MissingRatePolicy
}

// CycleReport summarises one evaluate, gate, fetch, apply run.
type CycleReport struct {
	CycleID string
	Day     time.Time

	Evaluated int
	Fresh     int
	Stale     int
	Missing   int
	Created   int

	Fetched int
	Applied int
	Skipped int

	ReadErrors  map[string]error
	WriteErrors map[string]error
	FetchFailed bool

	Duration time.Duration
}

// NeedsFetch reports whether the gate let the cycle reach the provider.
func (r *CycleReport) NeedsFetch() bool {
	return r.Stale+r.Missing > 0
}

// Healthy is false when the cycle could not refresh what it needed to.
func (r *CycleReport) Healthy() bool {
	return !r.FetchFailed && len(r.WriteErrors) == 0
}

type DefaultRateSyncUsecase struct {
	RateRepo    domain.RateRepository
	Provider    domain.RateProvider
	Publisher   domain.RateEventPublisher
	CycleLogger logger.SyncCycleLogger
	Metrics     *metrics.RateSyncMetrics
	Logger      *slog.Logger

	cfg   RateSyncConfig
	now   func() time.Time
	newID func() string
}

// NewDefaultRateSyncUsecase wires the coordinator. publisher and cycleLogger
// may be nil.
func NewDefaultRateSyncUsecase(
	rateRepo domain.RateRepository,
	provider domain.RateProvider,
	publisher domain.RateEventPublisher,
	cycleLogger logger.SyncCycleLogger,
	syncMetrics *metrics.RateSyncMetrics,
	log *slog.Logger,
	cfg RateSyncConfig,
) (*DefaultRateSyncUsecase, error) {
	if len(cfg.Currencies) == 0 {
		return nil, fmt.Errorf("rate sync needs at least one currency")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	switch cfg.MissingRatePolicy {
	case "":
		cfg.MissingRatePolicy = MissingRateZero
	case MissingRateZero, MissingRateKeep:
	default:
		return nil, fmt.Errorf("unknown missing rate policy %q", cfg.MissingRatePolicy)
	}
	if log == nil {
		log = slog.Default()
	}

	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	return &DefaultRateSyncUsecase{
		RateRepo:    rateRepo,
		Provider:    provider,
		Publisher:   publisher,
		CycleLogger: cycleLogger,
		Metrics:     syncMetrics,
		Logger:      log,
		cfg:         cfg,
		now:         time.Now,
		newID:       idGenerator,
	}, nil
}

// SetClock replaces the wall clock used to derive "today".
func (uc *DefaultRateSyncUsecase) SetClock(now func() time.Time) {
	uc.now = now
}

// evaluation holds per-code results of the first phase, indexed like
// the universe.
type evaluation struct {
	states     []domain.Freshness
	created    []bool
	readErrs   []error
	createErrs []error
	staleCount int64
}

func (uc *DefaultRateSyncUsecase) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := uc.now()
	today := domain.Day(start)
	codes := uc.cfg.Currencies

	report := &CycleReport{
		CycleID:     uc.newID(),
		Day:         today,
		Evaluated:   len(codes),
		ReadErrors:  make(map[string]error),
		WriteErrors: make(map[string]error),
	}
	log := uc.Logger.With("cycle_id", report.CycleID, "day", today.Format(time.DateOnly))

	ev := uc.evaluateAll(ctx, today)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	writeErrs := ev.createErrs
	for i, code := range codes {
		switch {
		case ev.readErrs[i] != nil:
			report.ReadErrors[code] = ev.readErrs[i]
			continue
		case ev.states[i] == domain.Fresh:
			report.Fresh++
		case ev.states[i] == domain.Stale:
			report.Stale++
		case ev.states[i] == domain.Missing:
			report.Missing++
		}
		if ev.created[i] {
			report.Created++
		}
	}

	if ev.staleCount == 0 {
		log.Debug("all rates are fresh, skipping upstream")
		uc.finish(ctx, log, report, writeErrs, start)
		return report, nil
	}

	log.Info("stale rates found, fetching", "stale", ev.staleCount, "provider", uc.Provider.GetName())

	fetchStart := time.Now()
	quotes, err := uc.Provider.FetchAll(ctx, codes)
	uc.Metrics.RecordUpstream(uc.Provider.GetName(), time.Since(fetchStart).Seconds(), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		log.Error("rate fetch failed, nothing applied this cycle", "error", err)
		report.FetchFailed = true
		uc.finish(ctx, log, report, writeErrs, start)
		return report, nil
	}
	report.Fetched = len(quotes)

	updates := uc.applyAll(ctx, log, report.CycleID, ev, quotes, today, writeErrs)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for i := range updates {
		if updates[i] != nil {
			report.Applied++
		}
	}
	report.Skipped = int(ev.staleCount) - report.Applied - countErrs(writeErrs)

	uc.publish(ctx, log, updates)
	uc.finish(ctx, log, report, writeErrs, start)
	return report, nil
}

// evaluateAll classifies every code concurrently. Missing codes get a
// zero-rate placeholder record.
func (uc *DefaultRateSyncUsecase) evaluateAll(ctx context.Context, today time.Time) *evaluation {
	codes := uc.cfg.Currencies
	ev := &evaluation{
		states:     make([]domain.Freshness, len(codes)),
		created:    make([]bool, len(codes)),
		readErrs:   make([]error, len(codes)),
		createErrs: make([]error, len(codes)),
	}

	var stale atomic.Int64
	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)

	for i, code := range codes {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			record, err := uc.RateRepo.FindByCode(ctx, code)
			switch {
			case errors.Is(err, domain.ErrRateNotFound):
				ev.states[i] = domain.Missing
				placeholder := &domain.RateRecord{Code: code}
				if err := uc.RateRepo.Upsert(ctx, placeholder); err != nil {
					ev.createErrs[i] = err
					uc.Metrics.RecordStoreError("write")
					uc.Logger.Warn("failed to create rate record", "code", code, "error", err)
				} else {
					ev.created[i] = true
				}
			case err != nil:
				ev.readErrs[i] = err
				uc.Metrics.RecordStoreError("read")
				uc.Logger.Warn("failed to read rate record, treating as fresh", "code", code, "error", err)
				return nil
			default:
				ev.states[i] = domain.Evaluate(record, today)
				if ev.states[i] == domain.Stale && record.LastUpdateDay == nil {
					uc.Logger.Debug("rate never confirmed", "code", code)
				}
			}

			if ev.states[i].NeedsFetch() {
				stale.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	ev.staleCount = stale.Load()
	return ev
}

// applyAll stamps today on every code found stale or missing. The
// returned slice is indexed like the universe; nil means nothing applied.
func (uc *DefaultRateSyncUsecase) applyAll(
	ctx context.Context,
	log *slog.Logger,
	cycleID string,
	ev *evaluation,
	quotes domain.RateQuotes,
	today time.Time,
	writeErrs []error,
) []*domain.RateUpdate {
	codes := uc.cfg.Currencies
	updates := make([]*domain.RateUpdate, len(codes))

	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)

	for i, code := range codes {
		if ev.readErrs[i] != nil || !ev.states[i].NeedsFetch() {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rate, quoted := quotes[code]
			if !quoted {
				if uc.cfg.MissingRatePolicy == MissingRateKeep {
					log.Warn("no usable quote, keeping record", "code", code)
					return nil
				}
				log.Warn("no usable quote, applying zero rate", "code", code)
				rate = 0
			}

			day := today
			record := &domain.RateRecord{
				Code:          code,
				Rate:          rate,
				LastUpdateDay: &day,
			}
			if err := uc.RateRepo.Upsert(ctx, record); err != nil {
				writeErrs[i] = err
				uc.Metrics.RecordStoreError("write")
				log.Error("failed to apply rate", "code", code, "error", err)
				return nil
			}

			writeErrs[i] = nil
			uc.Metrics.RecordApplied(code, rate, !quoted)
			updates[i] = &domain.RateUpdate{
				CycleID: cycleID,
				Code:    code,
				Rate:    rate,
				Day:     today,
			}
			return nil
		})
	}
	_ = g.Wait()

	return updates
}

func (uc *DefaultRateSyncUsecase) publish(ctx context.Context, log *slog.Logger, updates []*domain.RateUpdate) {
	if uc.Publisher == nil {
		return
	}
	batch := make([]domain.RateUpdate, 0, len(updates))
	for _, u := range updates {
		if u != nil {
			batch = append(batch, *u)
		}
	}
	if len(batch) == 0 {
		return
	}
	if err := uc.Publisher.PublishRateUpdates(ctx, batch); err != nil {
		uc.Metrics.RecordPublishError()
		log.Warn("failed to publish rate updates", "count", len(batch), "error", err)
	}
}

func (uc *DefaultRateSyncUsecase) finish(
	ctx context.Context,
	log *slog.Logger,
	report *CycleReport,
	writeErrs []error,
	start time.Time,
) {
	for i, err := range writeErrs {
		if err != nil {
			report.WriteErrors[uc.cfg.Currencies[i]] = fmt.Errorf("%s: %w", uc.cfg.Currencies[i], err)
		}
	}
	report.Duration = uc.now().Sub(start)

	result := metrics.CycleApplied
	switch {
	case report.FetchFailed:
		result = metrics.CycleFetchFailed
	case !report.NeedsFetch():
		result = metrics.CycleUpToDate
	}
	uc.Metrics.RecordCycle(result, report.Duration.Seconds(), report.Fresh, report.Stale, report.Missing)

	if uc.CycleLogger != nil {
		event := logger.SyncCycleEvent{
			CycleID:     report.CycleID,
			Day:         report.Day,
			Evaluated:   report.Evaluated,
			Stale:       report.Stale,
			Missing:     report.Missing,
			Created:     report.Created,
			Applied:     report.Applied,
			ReadErrors:  len(report.ReadErrors),
			WriteErrors: len(report.WriteErrors),
			FetchFailed: report.FetchFailed,
			DurationMs:  report.Duration.Milliseconds(),
			Timestamp:   time.Now().UTC(),
		}
		if err := uc.CycleLogger.LogSyncCycle(ctx, event); err != nil {
			log.Warn("failed to record sync cycle", "error", err)
		}
	}

	log.Info("rate sync cycle finished",
		"result", result,
		"fresh", report.Fresh,
		"stale", report.Stale,
		"missing", report.Missing,
		"applied", report.Applied,
		"read_errors", len(report.ReadErrors),
		"write_errors", len(report.WriteErrors),
		"duration", report.Duration,
	)
}

func countErrs(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
