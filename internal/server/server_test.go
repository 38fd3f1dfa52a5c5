package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"idportal/internal/config"
	"idportal/internal/notifications"
	"idportal/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessCheck(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])
}

func TestReadinessCheck(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	ts.mr.Close()
	resp, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	checks, _ := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unhealthy", checks["redis"])
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	s, err := NewServerWithDeps(testConfig(), Deps{
		DB:    db,
		Store: storage.NewLocalStoreFs(afero.NewMemMapFs(), "uploads"),
	})
	require.NoError(t, err)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFeatureFlags(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.adminToken(t)

	resp, body := ts.do(t, jsonRequest(http.MethodGet, "/api/admin/feature-flags?subject=APP2026000001", adminToken, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ := body["raw"].(map[string]any)
	assert.Equal(t, "25%", raw["rollout_test"])
	assert.Equal(t, "on", raw["legacy_collect_fallback"])

	evaluated, _ := body["evaluated"].(map[string]any)
	assert.Equal(t, true, evaluated["legacy_collect_fallback"])
	assert.Contains(t, evaluated, "rollout_test")
}

func TestBuildPublisher(t *testing.T) {
	t.Run("none discards", func(t *testing.T) {
		s := &Server{config: &config.Config{EventsBackend: "none"}, notifier: notifications.NewNotifier(nil)}
		pub, err := s.buildPublisher()
		require.NoError(t, err)
		assert.IsType(t, notifications.Discard{}, pub)
	})

	t.Run("redis without a client discards", func(t *testing.T) {
		s := &Server{config: &config.Config{EventsBackend: "redis"}}
		pub, err := s.buildPublisher()
		require.NoError(t, err)
		assert.IsType(t, notifications.Discard{}, pub)
	})

	t.Run("redis uses the notifier", func(t *testing.T) {
		n := notifications.NewNotifier(nil)
		s := &Server{config: &config.Config{EventsBackend: "redis"}, notifier: n}
		pub, err := s.buildPublisher()
		require.NoError(t, err)
		assert.Same(t, n, pub)
	})
}

func TestShutdown_ClosesResources(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, ts.Shutdown(context.Background()))
	assert.Error(t, ts.rdb.Ping(context.Background()).Err())
}
