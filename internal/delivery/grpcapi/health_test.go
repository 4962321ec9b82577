package grpcapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/LavaJover/shvark-rates-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func checkStatus(t *testing.T, h *HealthReporter) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: RatesSyncService})
	require.NoError(t, err)
	return resp.Status
}

func TestHealthReporter(t *testing.T) {
	h := NewHealthReporter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, h))
	assert.False(t, h.Status().Serving)

	h.ObserveCycle(&usecase.CycleReport{CycleID: "c1"}, nil)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, h))
	assert.True(t, h.Status().Serving)
	assert.Equal(t, "c1", h.Status().LastCycleID)

	h.ObserveCycle(&usecase.CycleReport{CycleID: "c2", FetchFailed: true}, nil)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, h))
	assert.Equal(t, "upstream fetch failed", h.Status().LastError)

	h.ObserveCycle(&usecase.CycleReport{CycleID: "c3", WriteErrors: map[string]error{"EUR": errors.New("x")}}, nil)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, h))

	h.ObserveCycle(&usecase.CycleReport{CycleID: "c4"}, context.DeadlineExceeded)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, h))
	assert.Equal(t, context.DeadlineExceeded.Error(), h.Status().LastError)
}

func TestHealthReporterShutdown(t *testing.T) {
	h := NewHealthReporter(nil)
	h.ObserveCycle(&usecase.CycleReport{CycleID: "c1"}, nil)
	h.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, h))
}
