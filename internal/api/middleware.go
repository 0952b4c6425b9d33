package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/hoteldistro/internal/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// AuthMiddleware validates the admin API key.
func AuthMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				log.Warn("invalid admin api key", "path", r.URL.Path, "remote", r.RemoteAddr)
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

const (
	limiterCacheSize = 10000
	limiterTTL       = time.Hour
)

// RateLimit keeps a token bucket per client address. A bucket holds burst
// requests and refills one every interval.
func RateLimit(route string, trustHeaders bool, interval time.Duration, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	cache := expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterTTL)

	getLimiter := func(addr string) *rate.Limiter {
		limiter, ok := cache.Get(addr)
		if !ok {
			limiter = rate.NewLimiter(rate.Every(interval), burst)
			cache.Add(addr, limiter)
		}
		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r, trustHeaders)
			limiter := getLimiter(addr)

			reservation := limiter.Reserve()
			if !reservation.OK() || reservation.Delay() > 0 {
				delay := reservation.Delay()
				reservation.Cancel()
				metrics.RateLimited.WithLabelValues(route).Inc()
				log.Warn("rate limited", "route", route, "remote", addr)
				if delay > 0 && delay != rate.InfDuration {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				}
				jsonError(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(burst))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%.0f", math.Max(0, limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr is the requesting IP. Forwarding headers count only when the
// server sits behind a trusted proxy.
func clientAddr(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			return xri
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
