package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/notex/internal/server/feed"
	"github.com/iudanet/notex/internal/server/mutation"
	"github.com/iudanet/notex/internal/server/storage"
	"github.com/iudanet/notex/pkg/api"
)

// maxBodySize ограничивает размер тела запроса
const maxBodySize = 1 << 20

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, mutation.ErrValidation), errors.Is(err, feed.ErrInvalidWatermark):
		return http.StatusBadRequest
	case errors.Is(err, mutation.ErrNotFound), errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrDeletionNotFound):
		return http.StatusNotFound
	case errors.Is(err, mutation.ErrForeignKeyUnresolved):
		return http.StatusConflict
	case errors.Is(err, mutation.ErrClockUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError логирует ошибку и отправляет ответ с соответствующим статусом
// Детали внутренних ошибок клиенту не отправляются
func sendServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed", slog.Any("error", err))
		if status == http.StatusServiceUnavailable {
			sendError(logger, w, "version clock unavailable, retry later", status)
			return
		}
		sendError(logger, w, "internal server error", status)
		return
	}

	logger.WarnContext(r.Context(), op+" rejected", slog.Int("status", status), slog.Any("error", err))
	sendError(logger, w, err.Error(), status)
}

// pathID извлекает положительный идентификатор из пути
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeBody читает JSON тело запроса в v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
