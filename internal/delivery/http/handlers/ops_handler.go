package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/shvark-rates-service/internal/delivery/grpcapi"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SyncStatusProvider interface {
	Status() grpcapi.SyncStatus
}

// OpsHandler serves the operational endpoints of the service.
type OpsHandler struct {
	gatherer prometheus.Gatherer
	status   SyncStatusProvider
}

func NewOpsHandler(gatherer prometheus.Gatherer, status SyncStatusProvider) *OpsHandler {
	return &OpsHandler{
		gatherer: gatherer,
		status:   status,
	}
}

func (h *OpsHandler) RegisterRoutes(router *mux.Router) {
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
}

// Healthz answers 503 while the last sync cycle was unhealthy.
func (h *OpsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := h.status.Status()

	code := http.StatusOK
	if !status.Serving {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
