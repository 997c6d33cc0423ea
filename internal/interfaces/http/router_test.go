package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestService wires the real service over in-memory fakes with one
// employment case and no documents.
func newTestService(t *testing.T) caseanalysis.Service {
	t.Helper()
	repo := testutil.NewMemoryRepository()
	repo.AddCase(legalcase.Case{ID: "c1", Title: "Doe v. Acme", CaseType: "employment", Status: "open"})

	svc, err := caseanalysis.NewService(caseanalysis.Dependencies{
		Cases:            repo,
		Documents:        repo,
		DocumentAnalyses: repo,
		Corpus:           repo,
		Playbooks:        repo,
		Store:            testutil.NewMemoryAnalysisStore(),
		Logger:           testutil.NewNopLogger(),
	})
	require.NoError(t, err)
	return svc
}

type countingRecorder struct{ n int }

func (c *countingRecorder) RecordHTTPRequest(string, string, int, time.Duration) { c.n++ }

func newTestRouter(t *testing.T, rec middleware.RequestRecorder) *gin.Engine {
	t.Helper()
	return NewRouter(RouterConfig{
		CaseHandler:   handlers.NewCaseHandler(newTestService(t), testutil.NewNopLogger()),
		HealthHandler: handlers.NewHealthHandler("test"),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		RequestRecorder: rec,
		Logger:          testutil.NewNopLogger(),
	})
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRouter_AnalysisEndToEnd(t *testing.T) {
	r := newTestRouter(t, nil)

	w := get(r, "/api/v1/cases/c1/analysis")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result legalcase.CaseAnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "c1", result.CaseID)
	assert.Equal(t, "comprehensive", result.CaseAssessment.Mode)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = get(r, "/api/v1/analyses/statistics")
	require.Equal(t, http.StatusOK, w.Code)
	var stats legalcase.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalAnalyses)
}

func TestRouter_UnknownCase(t *testing.T) {
	w := get(newTestRouter(t, nil), "/api/v1/cases/missing/analysis")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CASE_001"`)
}

func TestRouter_RegenerateIsPostOnly(t *testing.T) {
	r := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/analyses/regenerate").Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/regenerate", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_cases":1`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	rec := &countingRecorder{}
	r := newTestRouter(t, rec)

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz").Code)
	w := get(r, "/metrics")
	assert.Equal(t, "# metrics", w.Body.String())
	assert.Equal(t, 3, rec.n)
}

func TestRouter_NilMembers(t *testing.T) {
	r := NewRouter(RouterConfig{})
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/analyses/statistics").Code)
}

func TestRouter_CORSAndRateLimit(t *testing.T) {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://ui.example.com"}
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	r := NewRouter(RouterConfig{
		CaseHandler: handlers.NewCaseHandler(newTestService(t), testutil.NewNopLogger()),
		CORS:        &cors,
		RateLimiter: limiter,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/statistics", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ui.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/analyses/statistics").Code)
}

func TestRouter_AuthGuardsAPIOnly(t *testing.T) {
	r := NewRouter(RouterConfig{
		CaseHandler:   handlers.NewCaseHandler(newTestService(t), testutil.NewNopLogger()),
		HealthHandler: handlers.NewHealthHandler("test"),
		Auth:          &middleware.AuthConfig{Secret: []byte("0123456789abcdef0123456789abcdef")},
	})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/analyses/statistics").Code)
	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
}

func TestRouter_ContextPropagation(t *testing.T) {
	r := newTestRouter(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/regenerate", nil).WithContext(ctx))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, "a cancelled client interrupts regeneration")
}

//Personal.AI order the ending
