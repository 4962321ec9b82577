package grpcapi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const RatesSyncService = "rates.sync"

// SyncStatus is the outcome of the most recent sync cycle.
type SyncStatus struct {
	Serving     bool      `json:"serving"`
	LastCycleID string    `json:"last_cycle_id,omitempty"`
	LastCycleAt time.Time `json:"last_cycle_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// HealthReporter maps cycle outcomes onto the standard gRPC health service.
// The sync service is NOT_SERVING until the first healthy cycle.
type HealthReporter struct {
	server *health.Server
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	status SyncStatus
}

func NewHealthReporter(logger *slog.Logger) *HealthReporter {
	if logger == nil {
		logger = slog.Default()
	}
	s := health.NewServer()
	s.SetServingStatus(RatesSyncService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{
		server: s,
		logger: logger,
		now:    time.Now,
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

func (h *HealthReporter) ObserveCycle(report *usecase.CycleReport, err error) {
	status := SyncStatus{LastCycleAt: h.now().UTC()}
	if report != nil {
		status.LastCycleID = report.CycleID
	}

	switch {
	case err != nil:
		status.LastError = err.Error()
	case report == nil:
		status.LastError = "no cycle report"
	case report.FetchFailed:
		status.LastError = "upstream fetch failed"
	case len(report.WriteErrors) > 0:
		status.LastError = "rate store writes failed"
	default:
		status.Serving = true
	}

	h.mu.Lock()
	changed := h.status.Serving != status.Serving
	h.status = status
	h.mu.Unlock()

	servingStatus := healthpb.HealthCheckResponse_NOT_SERVING
	if status.Serving {
		servingStatus = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus(RatesSyncService, servingStatus)

	if changed {
		h.logger.Info("rates sync health changed", "serving", status.Serving, "reason", status.LastError)
	}
}

func (h *HealthReporter) Status() SyncStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Shutdown flips every service to NOT_SERVING and ignores later updates.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
