package middleware

import (
	"blogsite/internal/telemetry"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	cleanupFrequency = 1 * time.Minute
	inactiveLimit    = 3 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client address
type IPRateLimiter struct {
	ips      map[string]*client
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	clientIP ipClientGetter
	metrics  *telemetry.Metrics
}

var (
	ErrInvalidIP = errors.New("invalid IP")
)

func NewIPRateLimiter(ctx context.Context, rps, burst int, trustedProxy bool, metrics *telemetry.Metrics) *IPRateLimiter {
	l := &IPRateLimiter{
		ips:      make(map[string]*client),
		rate:     rate.Limit(rps),
		burst:    burst,
		clientIP: getClientIPFactory(trustedProxy),
		metrics:  metrics,
	}

	go l.backgroundCleanup(ctx)
	return l
}

func (i *IPRateLimiter) backgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.cleanup()
		}
	}
}

func (i *IPRateLimiter) cleanup() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, c := range i.ips {
		if time.Since(c.lastSeen) > inactiveLimit {
			delete(i.ips, ip)
		}
	}
}

func (i *IPRateLimiter) tracked() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

func (i *IPRateLimiter) getLimiter(ip string) (*rate.Limiter, error) {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return nil, ErrInvalidIP
	}
	canonicalIP := parsedIP.String()

	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.ips[canonicalIP]
	if !ok {
		c = &client{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.ips[canonicalIP] = c
	}
	c.lastSeen = time.Now()
	return c.limiter, nil
}

func (i *IPRateLimiter) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := i.clientIP(r)

			limiter, err := i.getLimiter(ip)
			if err != nil {
				http.Error(w, "invalid ip address", http.StatusBadRequest)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(i.burst))

			if !limiter.Allow() {
				// peek at when the next token is available without consuming it
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retrySeconds := max(1, int(delay.Seconds()))

				i.metrics.RateLimitHitsTotal.Add(r.Context(), 1,
					metric.WithAttributes(attribute.String("http.method", r.Method)))
				logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)

				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")

				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
