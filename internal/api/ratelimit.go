package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per client key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLoginLimiter counts attempts in fixed windows keyed per client.
// Redis failures are treated as allowed so an unavailable limiter never
// locks users out.
type RedisLoginLimiter struct {
	log    *log.Logger
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLoginLimiter(logger *log.Logger, rdb *redis.Client, limit int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		log:    logger,
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.log.Printf("rate limiter unavailable, allowing request: %s", err)
		return true, nil
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Printf("failed to set rate limit window for %q: %s", key, err)
		}
	}

	return count <= int64(l.limit), nil
}

func (s *ThermoswitchApp) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		allowed, err := s.limiter.Allow(r.Context(), "login:"+host)
		if err != nil {
			s.log.Printf("failed to check rate limit for %q: %s", host, err)
			allowed = true
		}

		if !allowed {
			errResp := NewTooManyRequestsError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next(w, r)
	}
}
