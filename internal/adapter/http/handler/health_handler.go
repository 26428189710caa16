package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProcessorState reports the failure that halted event processing, if any.
type ProcessorState interface {
	Err() error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	store       Pinger
	redisClient *redis.Client
	processor   ProcessorState
}

// NewHealthHandler creates a new HealthHandler. redisClient and processor may be nil.
func NewHealthHandler(store Pinger, redisClient *redis.Client, processor ProcessorState) *HealthHandler {
	return &HealthHandler{
		store:       store,
		redisClient: redisClient,
		processor:   processor,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.processor != nil {
		if err := h.processor.Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "processor halted", err.Error())
			return
		}
	}

	if err := h.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unhealthy", err.Error())
		return
	}

	redisStatus := "disabled"
	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
			return
		}
		redisStatus = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "ok",
		"redis":  redisStatus,
	})
}
