package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"rag-chatbot-backend/internal/config"
)

// RateLimitMiddleware limits requests per IP + endpoint. With a Redis
// client it uses a shared INCR/EXPIRE window and fails open when Redis is
// down; without one it falls back to in-process token buckets.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	if rdb == nil {
		return localRateLimit(cfg)
	}
	return redisRateLimit(rdb, cfg)
}

func redisRateLimit(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Fail open - don't block requests if Redis is down
			c.Next()
			return
		}

		if count == 1 {
			rdb.Expire(ctx, key, time.Duration(cfg.RateLimitWindow)*time.Second)
		}

		if count > int64(cfg.RateLimitReqs) {
			tooManyRequests(c, cfg)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.RateLimitReqs-int(count)))
		c.Next()
	}
}

func localRateLimit(cfg *config.Config) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	perSecond := rate.Limit(float64(cfg.RateLimitReqs) / float64(cfg.RateLimitWindow))

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(perSecond, cfg.RateLimitReqs)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			tooManyRequests(c, cfg)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context, cfg *config.Config) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(time.Duration(cfg.RateLimitWindow)*time.Second).Unix(), 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests. Please try again later.",
	})
}
