package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RateLimiter applies a per client IP request budget with IP and path whitelists
type RateLimiter struct {
	cfg          *config.RateLimitConfig
	logger       *zap.Logger
	limiter      func(http.Handler) http.Handler
	whitelistIPs map[string]bool
	exactPaths   map[string]bool
	prefixPaths  []string
	proxies      []netip.Prefix
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:          cfg,
		logger:       logger,
		whitelistIPs: make(map[string]bool),
		exactPaths:   make(map[string]bool),
	}

	for _, ip := range cfg.WhitelistIPs {
		rl.whitelistIPs[ip] = true
	}
	for _, path := range cfg.WhitelistPaths {
		if strings.HasSuffix(path, "/*") {
			rl.prefixPaths = append(rl.prefixPaths, strings.TrimSuffix(path, "*"))
			continue
		}
		rl.exactPaths[path] = true
	}
	for _, entry := range cfg.TrustedProxies {
		prefix, err := parseProxy(entry)
		if err != nil {
			logger.Warn("Ignoring invalid trusted proxy", zap.String("entry", entry), zap.Error(err))
			continue
		}
		rl.proxies = append(rl.proxies, prefix)
	}

	rl.limiter = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return rl.clientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.rateLimitExceededHandler),
	)

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
		zap.Strings("trusted_proxies", cfg.TrustedProxies),
	)

	return rl
}

// LimitByIP returns IP-based rate limiting middleware
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	limited := rl.limiter(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isPathWhitelisted(r.URL.Path) || rl.whitelistIPs[rl.clientIP(r)] {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address. When the peer is a trusted proxy the
// first X-Forwarded-For hop, then X-Real-IP, take precedence.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !rl.isTrustedProxy(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return peer
}

func (rl *RateLimiter) isTrustedProxy(peer string) bool {
	if len(rl.proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseProxy accepts a bare IP or a CIDR
func parseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		return prefix.Masked(), err
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (rl *RateLimiter) isPathWhitelisted(path string) bool {
	if rl.exactPaths[path] {
		return true
	}
	for _, prefix := range rl.prefixPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("Rate limit exceeded",
		zap.String("ip", rl.clientIP(r)),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeRateLimited,
		Title:  http.StatusText(http.StatusTooManyRequests),
		Status: http.StatusTooManyRequests,
		Detail: "Rate limit exceeded. Please try again later.",
	})
}
