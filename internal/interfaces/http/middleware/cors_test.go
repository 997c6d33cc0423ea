package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_PreflightRequest(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	r := newEngine("/api/v1/analyses/statistics", CORS(cfg))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyses/statistics", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := serve(t, r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		wildcard bool
		creds    bool
		origin   string
		want     string
	}{
		{"exact match", []string{"https://a.com", "https://b.com"}, false, false, "https://b.com", "https://b.com"},
		{"case insensitive", []string{"https://A.com"}, false, false, "https://a.com", "https://a.com"},
		{"disallowed", []string{"https://allowed.com"}, false, false, "https://evil.com", ""},
		{"any origin", []string{"*"}, false, false, "https://x.com", "*"},
		{"any origin with credentials echoes", []string{"*"}, false, true, "https://x.com", "https://x.com"},
		{"subdomain pattern", []string{"*.example.com"}, true, false, "https://app.example.com", "https://app.example.com"},
		{"subdomain pattern mismatch", []string{"*.example.com"}, true, false, "https://other.com", ""},
		{"pattern without wildcard flag", []string{"*.example.com"}, false, false, "https://app.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowed
			cfg.AllowWildcard = tt.wildcard
			cfg.AllowCredentials = tt.creds
			r := newEngine("/", CORS(cfg))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(t, r, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.creds && tt.want != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*"}
	w := serve(t, newEngine("/", CORS(cfg)), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "ok", w.Body.String())
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExposedHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://a.com"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://a.com")
	w := serve(t, newEngine("/", CORS(cfg)), req)

	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

//Personal.AI order the ending
