package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/jobs", "192.168.1.1:1234", nil).Code)
	}
}

func TestRateLimiter_LimitsPerIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.1:2", nil).Code)

	w := hit(h, "/jobs", "10.0.0.1:3", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrorTypeRateLimited, apiErr.Type)

	// Another client has its own budget
	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.2:1", nil).Code)
}

func TestRateLimiter_ForwardedForFromTrustedProxy(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		TrustedProxies:    []string{"10.0.0.0/24"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler())
	first := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	second := map[string]string{"X-Forwarded-For": "203.0.113.8"}

	// Both proxies forward the same client, which shares one budget
	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.1:1", first).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/jobs", "10.0.0.9:1", first).Code)

	// A different forwarded client has its own budget
	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.1:1", second).Code)
}

func TestRateLimiter_IgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		TrustedProxies:    []string{"10.0.0.1"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	spoofed := map[string]string{"X-Forwarded-For": "127.0.0.1", "X-Real-IP": "127.0.0.1"}
	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "198.51.100.4:1", spoofed).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/jobs", "198.51.100.4:2", spoofed).Code)

	// Rotating the header does not buy a fresh budget either
	rotated := map[string]string{"X-Forwarded-For": "192.0.2.55"}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/jobs", "198.51.100.4:3", rotated).Code)
}

func TestRateLimiter_InvalidTrustedProxyIsIgnored(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		TrustedProxies:    []string{"not-an-ip"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler())
	spoofed := map[string]string{"X-Forwarded-For": "127.0.0.1"}

	assert.Equal(t, http.StatusOK, hit(h, "/jobs", "10.0.0.1:1", spoofed).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/jobs", "10.0.0.1:1", spoofed).Code)
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/jobs", "127.0.0.1:1", nil).Code)
		assert.Equal(t, http.StatusOK, hit(h, "/health", "10.1.1.1:1", nil).Code)
		assert.Equal(t, http.StatusOK, hit(h, "/swagger/index.html", "10.1.1.1:1", nil).Code)
	}

	// Exact entries do not match by prefix
	assert.Equal(t, http.StatusOK, hit(h, "/health/db", "10.1.1.1:1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/health/ready", "10.1.1.1:1", nil).Code)
}
