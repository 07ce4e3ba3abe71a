package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/internal/server/config"
	"github.com/iudanet/notex/internal/server/middleware"
	"github.com/iudanet/notex/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, dbPath string, args ...string) *config.Config {
	t.Helper()
	args = append([]string{"-db", dbPath, "-addr", "127.0.0.1:0"}, args...)
	cfg, err := config.Parse(args, func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	return cfg
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "notex.db")

	srv, err := New(ctx, testConfig(t, dbPath), setupTestLogger(), "test")
	require.NoError(t, err)
	defer srv.Close()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go srv.hub.Run(hubCtx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Подписываемся на уведомления до мутаций
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := postJSON(t, ts.URL+"/api/v1/notebooks", `{"name":"Work"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp = postJSON(t, ts.URL+"/api/v1/notes", `{"title":"Plan","notebookId":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg api.ChangeNotification
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Watermark == 2 {
			break
		}
	}

	syncResp, err := http.Get(ts.URL + "/api/v1/sync?since=0")
	require.NoError(t, err)
	defer syncResp.Body.Close()
	require.Equal(t, http.StatusOK, syncResp.StatusCode)

	var page api.SyncResponse
	require.NoError(t, json.NewDecoder(syncResp.Body).Decode(&page))
	assert.Len(t, page.Entries, 2)
	assert.Equal(t, models.SyncVersion(2), page.NextWatermark)

	health, err := http.Get(ts.URL + healthPath)
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_ResumesClockAfterRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "notex.db")

	first, err := New(ctx, testConfig(t, dbPath), setupTestLogger(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(first.Handler())
	postJSON(t, ts.URL+"/api/v1/notebooks", `{"name":"one"}`)
	postJSON(t, ts.URL+"/api/v1/notebooks", `{"name":"two"}`)
	ts.Close()
	require.NoError(t, first.Close())

	second, err := New(ctx, testConfig(t, dbPath), setupTestLogger(), "test")
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, models.SyncVersion(2), second.clock.Horizon())

	ts = httptest.NewServer(second.Handler())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/v1/notebooks", `{"name":"three"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var nb models.Notebook
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nb))
	assert.Equal(t, models.SyncVersion(3), nb.SystemUpdatedAt)
}

func TestServer_CascadePolicyFromConfig(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "notex.db")

	srv, err := New(ctx, testConfig(t, dbPath, "-delete-policy", "cascade"), setupTestLogger(), "test")
	require.NoError(t, err)
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	postJSON(t, ts.URL+"/api/v1/notebooks", `{"name":"Work"}`)
	postJSON(t, ts.URL+"/api/v1/notes", `{"title":"Plan","notebookId":1}`)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/notebooks/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	noteResp, err := http.Get(ts.URL + "/api/v1/deletions/Note/1")
	require.NoError(t, err)
	defer noteResp.Body.Close()
	assert.Equal(t, http.StatusOK, noteResp.StatusCode)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "notex.db")

	srv, err := New(context.Background(), testConfig(t, dbPath, "-shutdown-timeout", "2s"), setupTestLogger(), "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// После остановки новые штампы не выдаются
	_, err = srv.clock.Reserve(context.Background())
	assert.Error(t, err)
}
