package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingestq.io/ingestq/internal/config"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Worker: config.WorkerConfig{GeneralPoolSize: 4, DrainPoolSize: 1},
		Ingest: config.IngestConfig{BatchSize: 3, MinID: 1, MaxID: 1000000007},
		Drain: config.DrainConfig{
			Interval:       10 * time.Millisecond,
			BatchesPerTick: 1,
			ProcessTimeout: time.Second,
			MaxAttempts:    3,
		},
	}
}

func TestBootstrap_InvalidJournalPath(t *testing.T) {
	cfg := testConfig()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "missing", "journal.db")

	app, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err, "Bootstrap should fail when the journal cannot be opened")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestApplication_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Journal.Path = ":memory:"

	application, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, application.Modules, 3)
	require.NoError(t, application.Start(context.Background()))
	defer func() { require.NoError(t, application.Shutdown()) }()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"ids":[1,2,3,4,5],"priority":"HIGH"}`))
	req.Header.Set("Content-Type", "application/json")
	application.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		IngestionID string `json:"ingestion_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/"+created.IngestionID, nil))
		var view domain.IngestionView
		if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
			return false
		}
		return view.Status == domain.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	w = httptest.NewRecorder()
	application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ingestq_drain_ticks_total")

	w = httptest.NewRecorder()
	application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"journal":"ok"`)
	assert.Contains(t, w.Body.String(), `"pools"`)
}

func TestApplication_RequestIDHeader(t *testing.T) {
	application, err := Bootstrap(context.Background(), testConfig())
	require.NoError(t, err)
	defer func() { _ = application.Shutdown() }()

	w := httptest.NewRecorder()
	application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	// Shutdown on empty application should not panic.
	app := &Application{}

	assert.NotPanics(t, func() {
		_ = app.Shutdown()
	}, "Shutdown on empty Application should not panic")
}
