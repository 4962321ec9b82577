package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/usecase"
)

// CycleObserver is notified after every sync cycle. report is non-nil
// even when err reports a cancelled or timed out cycle.
type CycleObserver interface {
	ObserveCycle(report *usecase.CycleReport, err error)
}

type BackgroundTasks struct {
	RateSyncUsecase usecase.RateSyncUsecase
	Interval        time.Duration
	CycleTimeout    time.Duration
	Observers       []CycleObserver
	Logger          *slog.Logger

	wg sync.WaitGroup
}

func NewBackgroundTasks(rateSyncUC usecase.RateSyncUsecase, cfg config.Sync, logger *slog.Logger, observers ...CycleObserver) *BackgroundTasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundTasks{
		RateSyncUsecase: rateSyncUC,
		Interval:        cfg.Interval,
		CycleTimeout:    cfg.CycleTimeout,
		Observers:       observers,
		Logger:          logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		bt.RunRatesSync(ctx)
	}()
}

// Wait blocks until every task started by StartAll has returned.
func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

// RunRatesSync runs a cycle right away and then one per Interval until ctx
// is done. The timer is re-armed only after a cycle returns.
func (bt *BackgroundTasks) RunRatesSync(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	bt.Logger.Info("rates sync started", "interval", bt.Interval, "cycle_timeout", bt.CycleTimeout)

	for {
		select {
		case <-ctx.Done():
			bt.Logger.Info("rates sync stopped")
			return
		case <-timer.C:
			bt.runRatesCycle(ctx)
			timer.Reset(bt.Interval)
		}
	}
}

func (bt *BackgroundTasks) runRatesCycle(ctx context.Context) {
	cycleCtx := ctx
	if bt.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, bt.CycleTimeout)
		defer cancel()
	}

	report, err := bt.RateSyncUsecase.RunCycle(cycleCtx)
	if err != nil {
		bt.Logger.Warn("rates sync cycle interrupted", "error", err)
	}

	for _, o := range bt.Observers {
		o.ObserveCycle(report, err)
	}
}
