package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/resellops/backoffice/internal/config"
	"go.uber.org/zap"
)

const keyLogin = "ratelimit:login:%s"

// ErrRateLimited is returned when a caller exhausts its login budget.
var ErrRateLimited = errors.New("rate_limited")

// LoginLimiter throttles credential endpoints per client address. It is
// disabled (nil) when no redis address is configured, in which case
// every call is allowed.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLoginLimiter(cfg config.Config, log *zap.Logger) *LoginLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" || cfg.LoginRateLimit <= 0 || cfg.LoginBurst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.LoginRateLimit,
		burst:  cfg.LoginBurst,
		log:    log.Named("ratelimit"),
	}
}

// Allow reports whether the caller identified by key may attempt a
// login. Limiter failures fail open; losing redis should not lock
// operators out.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLogin, key), l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limiter unavailable", zap.Error(err))
		return true, 0
	}
	return res.Allowed, res.RetryAfter
}
