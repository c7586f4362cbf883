package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

type stubService struct {
	readyErr error
	status   pipeline.Status
	hasRun   bool
}

func (s *stubService) CheckReadiness(context.Context) error { return s.readyErr }

func (s *stubService) Status() (pipeline.Status, bool) { return s.status, s.hasRun }

func newTestServer(svc Service) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", svc, logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("not ready before first cycle", func(t *testing.T) {
		svc := &stubService{readyErr: errors.New("pipeline has not completed a cycle yet")}
		srv := newTestServer(svc)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not ready", body["status"])
		assert.Contains(t, body["error"], "not completed")
	})

	t.Run("ready after a cycle", func(t *testing.T) {
		srv := newTestServer(&stubService{hasRun: true})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("unavailable before first cycle", func(t *testing.T) {
		srv := newTestServer(&stubService{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("reports last cycle counts", func(t *testing.T) {
		lastRun := time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC)
		svc := &stubService{
			hasRun: true,
			status: pipeline.Status{LastRun: lastRun, Files: 2, Records: 48, Dropped: 1, Issues: 3},
		}
		srv := newTestServer(svc)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var body pipeline.Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Files)
		assert.Equal(t, 48, body.Records)
		assert.Equal(t, 1, body.Dropped)
		assert.Equal(t, 3, body.Issues)
		assert.True(t, body.LastRun.Equal(lastRun))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
