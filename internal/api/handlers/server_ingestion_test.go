package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingestq.io/ingestq/internal/api/middleware"
	"ingestq.io/ingestq/internal/domain"
	apperrors "ingestq.io/ingestq/internal/pkg/errors"
	"ingestq.io/ingestq/internal/pkg/logger"
	"ingestq.io/ingestq/internal/service"
	"ingestq.io/ingestq/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubPools struct{}

func (stubPools) Metrics() map[string]interface{} {
	return map[string]interface{}{"drain": map[string]int{"running": 1, "free": 0, "cap": 1}}
}

func newTestRouter(t *testing.T, journal Pinger) *gin.Engine {
	t.Helper()
	st, err := store.New(domain.DefaultBatchSize)
	require.NoError(t, err)

	srv := NewServer(ServerDeps{
		IngestionService: service.NewIngestionService(st, domain.NewEventDispatcher()),
		Journal:          journal,
		Pools:            stubPools{},
		MinID:            1,
		MaxID:            1000000007,
	})

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/", srv.Root)
	r.POST("/ingest", srv.Ingest)
	r.GET("/status/:ingestion_id", srv.GetStatus)
	r.GET("/health/live", srv.GetLiveness)
	r.GET("/health/ready", srv.GetReadiness)
	return r
}

func doRequest(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	w := doRequest(newTestRouter(t, nil), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Data Ingestion API is running"}`, w.Body.String())
}

func TestIngestAndStatus(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doRequest(r, http.MethodPost, "/ingest", `{"ids":[1,2,3,4,5],"priority":"MEDIUM"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.IngestionID)

	w = doRequest(r, http.MethodGet, "/status/"+created.IngestionID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view domain.IngestionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, created.IngestionID, view.IngestionID)
	require.Equal(t, domain.StatusYetToStart, view.Status)
	require.Len(t, view.Batches, 2)
	require.Equal(t, []int64{1, 2, 3}, view.Batches[0].IDs)
	require.Equal(t, []int64{4, 5}, view.Batches[1].IDs)
	require.Equal(t, domain.StatusYetToStart, view.Batches[1].Status)
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"empty ids", `{"ids":[],"priority":"HIGH"}`, apperrors.CodeEmptyIDs},
		{"missing ids", `{"priority":"HIGH"}`, apperrors.CodeEmptyIDs},
		{"bad priority", `{"ids":[1],"priority":"URGENT"}`, apperrors.CodeInvalidPriority},
		{"padded priority", `{"ids":[1],"priority":" HIGH "}`, apperrors.CodeInvalidPriority},
		{"id below range", `{"ids":[0],"priority":"HIGH"}`, apperrors.CodeValidationFailed},
		{"id above range", `{"ids":[1000000008],"priority":"HIGH"}`, apperrors.CodeValidationFailed},
		{"non integer id", `{"ids":[1.5],"priority":"HIGH"}`, apperrors.CodeValidationFailed},
		{"malformed json", `{"ids":`, apperrors.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(newTestRouter(t, nil), http.MethodPost, "/ingest", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestIngest_RangeErrorsNameTheField(t *testing.T) {
	w := doRequest(newTestRouter(t, nil), http.MethodPost, "/ingest", `{"ids":[5,0,7],"priority":"LOW"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		FieldErrors []apperrors.FieldError `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.FieldErrors, 1)
	assert.Equal(t, "ids[1]", body.FieldErrors[0].Field)
}

func TestGetStatus_NotFound(t *testing.T) {
	w := doRequest(newTestRouter(t, nil), http.MethodGet, "/status/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeIngestionNotFound, body["code"])
}

func TestHealth(t *testing.T) {
	w := doRequest(newTestRouter(t, nil), http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(newTestRouter(t, stubPinger{}), http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	var h Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, map[string]string{"store": "ok", "journal": "ok"}, h.Checks)
	require.Contains(t, h.Pools, "drain")
	assert.Equal(t, map[string]interface{}{"running": float64(1), "free": float64(0), "cap": float64(1)}, h.Pools["drain"])

	w = doRequest(newTestRouter(t, stubPinger{err: errors.New("closed")}), http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, HealthStatusDegraded, h.Status)
}
