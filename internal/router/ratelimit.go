package router

import (
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"
)

const rateLimitedMessage = "rate limit exceeded\n"

type ipBucket struct {
	tokens float64
	last   time.Time
}

// limiter is a per-IP token bucket.
type limiter struct {
	ratePerSecond float64
	burst         float64

	mu      sync.Mutex
	buckets map[string]ipBucket
}

func newLimiter(limitPerMinute, burst int) *limiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	return &limiter{
		ratePerSecond: float64(limitPerMinute) / 60.0,
		burst:         float64(burst),
		buckets:       make(map[string]ipBucket),
	}
}

func (l *limiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.buckets[ip]
	if bucket.last.IsZero() {
		bucket = ipBucket{tokens: l.burst, last: now}
	}

	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens += elapsed * l.ratePerSecond
		if bucket.tokens > l.burst {
			bucket.tokens = l.burst
		}
		bucket.last = now
	}

	if bucket.tokens < 1 {
		l.buckets[ip] = bucket
		return false
	}

	bucket.tokens--
	l.buckets[ip] = bucket
	return true
}

// RateLimit enforces per-IP connection limits using a token bucket. now
// defaults to time.Now.
func RateLimit(limitPerMinute, burst int, logger *zap.Logger, now func() time.Time) wish.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	l := newLimiter(limitPerMinute, burst)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			at := now().UTC()
			ip := remoteIP(s)
			if !l.allow(ip, at) {
				logger.Warn("session throttled",
					zap.String("event", "rate_limit_throttled"),
					zap.String("remote_ip", ip),
					zap.Time("timestamp", at),
				)
				_, _ = s.Write([]byte(rateLimitedMessage))
				return
			}
			next(s)
		}
	}
}

func remoteIP(s ssh.Session) string {
	remote := s.RemoteAddr()
	if remote == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		return remote.String()
	}

	if host == "" {
		return "unknown"
	}
	return host
}
