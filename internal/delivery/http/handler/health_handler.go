package handler

import (
	"context"
	"net/http"
	"time"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/pkg/response"
)

const healthTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	result := dto.HealthResponse{Status: "healthy", Components: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			result.Components[name] = "unhealthy: " + err.Error()
			result.Status = "unhealthy"
			continue
		}
		result.Components[name] = "healthy"
	}

	if result.Status != "healthy" {
		response.Failure(w, http.StatusServiceUnavailable, "Service unhealthy", result, nil)
		return
	}
	response.Success(w, http.StatusOK, "Service healthy", result)
}
