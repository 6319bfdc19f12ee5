package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/codelens/internal/api"
	"github.com/cloo-solutions/codelens/internal/domain"
	"github.com/cloo-solutions/codelens/internal/service"
)

const serviceVersion = "0.1.0"

type SystemService interface {
	Health(ctx context.Context) *service.HealthStatus
	Schema(ctx context.Context) (*domain.SchemaStatus, error)
	Stats(ctx context.Context) *domain.IndexStats
}

type SystemHandler struct {
	svc SystemService
}

func NewSystemHandler(svc SystemService) *SystemHandler {
	return &SystemHandler{svc: svc}
}

type HealthResponse struct {
	Status             string    `json:"status"`
	Version            string    `json:"version"`
	StoreConnected     bool      `json:"store_connected"`
	EmbedderConfigured bool      `json:"embedder_configured"`
	Timestamp          time.Time `json:"timestamp"`
}

// Health handles GET /health. It always answers 200; degradation is reported
// in the body so load balancers keep routing while operators investigate.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Health(r.Context())
	api.JSON(w, http.StatusOK, HealthResponse{
		Status:             status.Status,
		Version:            serviceVersion,
		StoreConnected:     status.Database,
		EmbedderConfigured: status.Embedder,
		Timestamp:          time.Now().UTC(),
	})
}

// Schema handles GET /schema.
func (h *SystemHandler) Schema(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Schema(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, status)
}

// Stats handles GET /stats.
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.Stats(r.Context()))
}
