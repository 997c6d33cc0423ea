package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthRecorder struct {
	mu  sync.Mutex
	got map[string]bool
}

func (r *healthRecorder) SetHealth(component string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.got == nil {
		r.got = map[string]bool{}
	}
	r.got[component] = up
}

func newHealthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestLiveness(t *testing.T) {
	w := do(newHealthRouter(NewHealthHandler("1.2.3")), http.MethodGet, "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	var body LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		CheckFunc{Component: "store", Fn: func(context.Context) error { return nil }},
	)
	w := do(newHealthRouter(h), http.MethodGet, "/readyz")

	require.Equal(t, http.StatusOK, w.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "healthy", body.Components["store"].Status)
}

func TestReadiness_Unhealthy(t *testing.T) {
	rec := &healthRecorder{}
	h := NewHealthHandler("dev",
		CheckFunc{Component: "store", Fn: func(context.Context) error { return nil }},
		CheckFunc{Component: "corpus", Fn: func(context.Context) error { return assert.AnError }},
	).WithReporter(rec)
	w := do(newHealthRouter(h), http.MethodGet, "/readyz")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "unhealthy", body.Components["corpus"].Status)
	assert.NotEmpty(t, body.Components["corpus"].Error)
	assert.Equal(t, map[string]bool{"store": true, "corpus": false}, rec.got)
}

func TestReadiness_NoCheckers(t *testing.T) {
	w := do(newHealthRouter(NewHealthHandler("dev")), http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

//Personal.AI order the ending
