package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/notex/internal/models"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HorizonFunc returns the newest stamp visible to the change feed
type HorizonFunc func() models.SyncVersion

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	pinger  Pinger
	horizon HorizonFunc
	version string
}

// NewHealthHandler создает новый handler для health check.
// horizon may be nil, then the watermark is omitted.
func NewHealthHandler(logger *slog.Logger, pinger Pinger, horizon HorizonFunc, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		pinger:  pinger,
		horizon: horizon,
		version: version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status    string             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Watermark models.SyncVersion `json:"watermark"` // последний видимый в ленте штамп
}

// Health обрабатывает GET /api/v1/health
// Возвращает 503, если база данных недоступна
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.Any("error", err))
		sendJSON(h.logger, w, HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
		return
	}

	resp := HealthResponse{Status: "ok", Version: h.version}
	if h.horizon != nil {
		resp.Watermark = h.horizon()
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}
