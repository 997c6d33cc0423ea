package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

type testLogger struct {
	mu      sync.Mutex
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.lastMsg = fmt.Sprintf(format, args...)
	l.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.BaseURL())
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "lexcase-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url"} {
		_, err := NewClient(u)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), "url %q", u)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	custom := &http.Client{Timeout: 10 * time.Second}
	logger := &testLogger{}
	c, err := NewClient("http://api.example.com",
		WithHTTPClient(custom),
		WithLogger(logger),
		WithRetryMax(5),
		WithAPIKey("secret"),
		WithUserAgent("ops-tool/1"),
	)
	require.NoError(t, err)
	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, "secret", c.apiKey)
	assert.Equal(t, "ops-tool/1", c.userAgent)
}

func TestWithTimeout_AppliesToCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 10 * time.Second}
	c, err := NewClient("http://api.example.com", WithTimeout(time.Second), WithHTTPClient(custom))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
	assert.Equal(t, 10*time.Second, custom.Timeout, "caller's client is not mutated")
}

func TestWithRetryWait_IgnoresInvalid(t *testing.T) {
	c, err := NewClient("http://api.example.com", WithRetryWait(time.Second, time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)

	c, err = NewClient("http://api.example.com", WithRetryWait(0, time.Minute), WithRetryMax(-1))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 3, c.retryMax)
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, _ := NewClient("http://api.example.com")
	var wg sync.WaitGroup
	got := make([]*CasesClient, 50)
	for i := range got {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got[idx] = c.Cases()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(got); i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Same(t, c.Analyses(), c.Analyses())
}

func TestClient_Do_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Contains(t, r.Header.Get("User-Agent"), "lexcase-go-sdk/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	}, WithAPIKey("k1"))
	require.NoError(t, c.get(context.Background(), "test", nil))
}

func TestClient_Do_NoAuthorizationWithoutKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.get(context.Background(), "/test", nil))
}

func TestClient_Do_4xxError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "case c9 not found", "code": "CASE_001"})
	})
	err := c.get(context.Background(), "/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "CASE_001", apiErr.Code)
	assert.Equal(t, "case c9 not found", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, WithRetryMax(0))
	err := c.get(context.Background(), "/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMax(2))
	assert.Error(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_PostNotRetriedOn5xx(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Error(t, c.post(context.Background(), "/test", nil, nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_429RetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "slow down", "code": "COMMON_007"})
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.post(context.Background(), "/test", nil, nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.get(ctx, "/test", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Do_LogsRequests(t *testing.T) {
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, WithLogger(logger))
	require.NoError(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&logger.count))
	assert.Contains(t, logger.lastMsg, "GET /test 200")
}

func TestCasesClient_Analysis(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/cases/c%2F1/analysis", r.URL.EscapedPath())
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		writeJSON(w, http.StatusOK, legalcase.CaseAnalysisResult{
			CaseID:         "c/1",
			CaseAssessment: legalcase.CaseAssessment{OverallScore: 0.8, AssessmentLevel: legalcase.StrengthStrong},
		})
	})
	res, err := c.Cases().Analysis(context.Background(), "c/1", true)
	require.NoError(t, err)
	assert.Equal(t, "c/1", res.CaseID)
	assert.Equal(t, legalcase.StrengthStrong, res.CaseAssessment.AssessmentLevel)
}

func TestCasesClient_PlaybookEvaluation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cases/c1/playbook-evaluation", r.URL.Path)
		writeJSON(w, http.StatusOK, legalcase.PlaybookEvaluation{CaseID: "c1", AverageWeight: 0.6})
	})
	eval, err := c.Cases().PlaybookEvaluation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0.6, eval.AverageWeight)
}

func TestAnalysesClient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/analyses/regenerate":
			writeJSON(w, http.StatusOK, legalcase.RegenerateSummary{TotalCases: 2, AnalyzedCases: 2})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/analyses/statistics":
			writeJSON(w, http.StatusOK, legalcase.Statistics{TotalAnalyses: 2, AverageConfidence: 0.7})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	sum, err := c.Analyses().Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AnalyzedCases)

	stats, err := c.Analyses().Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.7, stats.AverageConfidence)
}

func TestAnalysesClient_RegenerateConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "regeneration already running", "code": "CASE_007"})
	})
	_, err := c.Analyses().Regenerate(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
}

//Personal.AI order the ending
