package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/support-bot-backend/internal/platform/envutil"
	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

// RateLimiter answers whether one more message from a chat is allowed under
// a fixed window. Counting errors fail open so a broken counter backend
// never blocks support traffic.
type RateLimiter interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
	Close() error
}

type Config struct {
	Addr   string
	Limit  int
	Window time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Addr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Limit:  envutil.Int("RATE_LIMIT_MAX", 5),
		Window: envutil.DurationSeconds("RATE_LIMIT_WINDOW_SECONDS", 10*time.Second),
	}
}

type redisLimiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter builds a redis-backed fixed window limiter when REDIS_ADDR
// is set and reachable, and an in-process limiter otherwise.
func NewRateLimiter(log *logger.Logger, cfg Config) (RateLimiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}

	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set, using in-memory rate limiter")
		return NewMemoryRateLimiter(cfg.Limit, cfg.Window), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisLimiter{
		log:    log.With("service", "RedisRateLimiter"),
		rdb:    rdb,
		limit:  cfg.Limit,
		window: cfg.Window,
	}, nil
}

func (l *redisLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	key := fmt.Sprintf("ratelimit:chat:%d", chatID)

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.log.Warn("Rate limit counter unavailable, allowing message", "error", err.Error())
		return true, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Warn("Rate limit expire failed", "error", err.Error())
		}
	}
	return n <= int64(l.limit), nil
}

func (l *redisLimiter) Close() error {
	return l.rdb.Close()
}

type memoryWindow struct {
	count int
	reset time.Time
}

type memoryLimiter struct {
	mu        sync.Mutex
	windows   map[int64]*memoryWindow
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) RateLimiter {
	return &memoryLimiter{
		windows: make(map[int64]*memoryWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, chatID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	w, ok := l.windows[chatID]
	if !ok || now.After(w.reset) {
		l.windows[chatID] = &memoryWindow{count: 1, reset: now.Add(l.window)}
		return true, nil
	}
	w.count++
	return w.count <= l.limit, nil
}

// sweepLocked drops expired windows so chats that never return do not pin
// map entries forever. At most one pass per window length.
func (l *memoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for id, w := range l.windows {
		if now.After(w.reset) {
			delete(l.windows, id)
		}
	}
	l.lastSweep = now
}

func (l *memoryLimiter) Close() error { return nil }
