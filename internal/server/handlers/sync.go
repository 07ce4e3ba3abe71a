package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/feed"
	"github.com/iudanet/notex/pkg/api"
)

// ChangeFeed определяет интерфейс ленты изменений
type ChangeFeed interface {
	ChangesSince(ctx context.Context, watermark models.SyncVersion, limit int) (*feed.Page, error)
}

// SyncHandler handles change feed requests
type SyncHandler struct {
	logger       *slog.Logger
	feed         ChangeFeed
	defaultLimit int
	maxLimit     int
}

// NewSyncHandler creates a new sync handler.
// defaultLimit applies when the request has no limit; larger limits are cut to maxLimit.
func NewSyncHandler(logger *slog.Logger, feed ChangeFeed, defaultLimit, maxLimit int) *SyncHandler {
	return &SyncHandler{
		logger:       logger,
		feed:         feed,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandleSync обрабатывает GET /api/v1/sync?since=<watermark>&limit=<n>
// Возвращает изменения со штампом больше since в порядке возрастания
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	since, ok := h.parseSince(w, r)
	if !ok {
		return
	}

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	page, err := h.feed.ChangesSince(ctx, since, limit)
	if err != nil {
		sendServiceError(h.logger, w, r, "sync", err)
		return
	}

	// Конвертируем в API формат
	entries := make([]api.FeedEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		wire, err := api.NewFeedEntry(e)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to encode feed entry",
				"sync_version", e.Version(),
				"error", err)
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}
		entries = append(entries, wire)
	}

	response := api.SyncResponse{
		Entries:       entries,
		NextWatermark: page.NextWatermark,
		HasMore:       page.HasMore,
	}

	sendJSON(h.logger, w, response, http.StatusOK)

	h.logger.DebugContext(ctx, "GET sync completed",
		"since", since,
		"entries_count", len(entries),
		"next_watermark", page.NextWatermark,
		"has_more", page.HasMore)
}

func (h *SyncHandler) parseSince(w http.ResponseWriter, r *http.Request) (models.SyncVersion, bool) {
	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		return 0, true
	}

	since, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil || since < 0 {
		h.logger.Warn("Invalid since parameter", "since", sinceStr)
		sendError(h.logger, w, "since must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}

	return models.SyncVersion(since), true
}

func (h *SyncHandler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return h.defaultLimit, true
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		h.logger.Warn("Invalid limit parameter", "limit", limitStr)
		sendError(h.logger, w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}

	if h.maxLimit > 0 && limit > h.maxLimit {
		limit = h.maxLimit
	}

	return limit, true
}
