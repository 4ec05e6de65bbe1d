package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/property_listing/internal/logging"
)

type Config struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

func PerMinute(n, burst int) Config {
	return Config{
		Rate:            rate.Limit(float64(n) / 60.0),
		Burst:           burst,
		CleanupInterval: 5 * time.Minute,
	}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	config Config

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(config Config) *Limiter {
	l := &Limiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if l.get(ip).Allow() {
				return next(c)
			}

			logging.FromContext(c.Request().Context()).Warn("rate_limit_exceeded", "status", 429, "remote_ip", ip)
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter(l.config.Rate)))
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
		}
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cl, ok := l.clients[key]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(l.config.Rate, l.config.Burst), lastAccess: time.Now()}
	l.clients[key] = cl
	return cl.limiter
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup(now time.Time) {
	ttl := l.config.CleanupInterval * 2

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, cl := range l.clients {
		if now.Sub(cl.lastAccess) > ttl {
			delete(l.clients, key)
		}
	}
}

func retryAfter(r rate.Limit) int {
	if r <= 0 {
		return 60
	}
	sec := int(math.Ceil(1.0 / float64(r)))
	if sec < 1 {
		sec = 1
	}
	return sec
}
