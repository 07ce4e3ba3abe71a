package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/clock"
	"github.com/iudanet/notex/internal/server/feed"
	"github.com/iudanet/notex/internal/server/mutation"
	"github.com/iudanet/notex/internal/server/storage/sqlite"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	return slog.New(slog.NewTextHandler(io.Discard, opts))
}

type testServer struct {
	mux   *http.ServeMux
	store *sqlite.Storage
	clock *clock.Clock
}

// setupTestServer собирает handlers поверх in-memory SQLite
func setupTestServer(t *testing.T, storeOpts ...sqlite.Option) *testServer {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:", storeOpts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := setupTestLogger()
	clk := clock.New(clock.NewCounter(0), 0)
	log := mutation.NewLog(store, clk, logger)
	engine := feed.NewEngine(store, clk, logger)

	mux := http.NewServeMux()
	NewResourceHandler(logger, log, store).Register(mux)
	mux.HandleFunc("GET /api/v1/sync", NewSyncHandler(logger, engine, 100, 500).HandleSync)
	mux.HandleFunc("GET /api/v1/health", NewHealthHandler(logger, store, clk.Horizon, "test").Health)

	return &testServer{mux: mux, store: store, clock: clk}
}

// do выполняет запрос и декодирует JSON ответ в out (если out != nil)
func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}

	return w.Code
}
