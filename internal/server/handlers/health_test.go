package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notex/internal/models"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedState  string
		watermark      models.SyncVersion
	}{
		{name: "storage reachable", expectedStatus: http.StatusOK, expectedState: "ok", watermark: 7},
		{name: "storage down", pingErr: errors.New("database is closed"), expectedStatus: http.StatusServiceUnavailable, expectedState: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(setupTestLogger(), &mockPinger{err: tt.pingErr},
				func() models.SyncVersion { return 7 }, "1.2.3")

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			w := httptest.NewRecorder()

			handler.Health(w, req)

			resp := w.Result()
			defer func() {
				err := resp.Body.Close()
				assert.NoError(t, err)
			}()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var healthResp HealthResponse
			err := json.NewDecoder(resp.Body).Decode(&healthResp)
			assert.NoError(t, err)

			assert.Equal(t, tt.expectedState, healthResp.Status)
			assert.Equal(t, "1.2.3", healthResp.Version)
			assert.Equal(t, tt.watermark, healthResp.Watermark)
		})
	}
}

func TestHealthHandler_RealStorage(t *testing.T) {
	srv := setupTestServer(t)

	var resp HealthResponse
	code := srv.do(t, http.MethodGet, "/api/v1/health", nil, &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, models.SyncVersion(0), resp.Watermark)

	code = srv.do(t, http.MethodPost, "/api/v1/notebooks", models.NewNotebook{Name: "Work"}, nil)
	require.Equal(t, http.StatusCreated, code)

	code = srv.do(t, http.MethodGet, "/api/v1/health", nil, &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.SyncVersion(1), resp.Watermark)
}

func TestHealthHandler_NilHorizon(t *testing.T) {
	handler := NewHealthHandler(setupTestLogger(), &mockPinger{}, nil, "")

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","watermark":0}`, w.Body.String())
}
