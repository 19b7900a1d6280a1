package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix  = "ratelimit:tb:"
	localCleanupPeriod  = 5 * time.Minute
	bucketExpirySeconds = 60
)

// tokenBucketScript refills the bucket for the elapsed time and takes one token.
// Bucket state is {last_refill, tokens}; returns 1 when the request is allowed.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstCapacity     int
}

type localLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per client IP with a token bucket.
// Buckets live in Redis when a client is configured, otherwise in process.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger

	mu     sync.Mutex
	local  map[string]*localLimiter
	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter creates a rate limiter. client may be nil.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		client: client,
		config: config,
		log:    log,
		local:  make(map[string]*localLimiter),
		stopCh: make(chan struct{}),
	}

	if client == nil && config.Enabled {
		go rl.cleanupLoop()
	}
	return rl
}

// Stop halts the background cleanup of in-process buckets.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Allow reports whether a request from clientIP may proceed.
func (rl *RateLimiter) Allow(ctx context.Context, clientIP string) bool {
	if !rl.config.Enabled {
		return true
	}
	if rl.client == nil {
		return rl.localLimiter(clientIP).Allow()
	}

	now := float64(time.Now().UnixMicro()) / 1e6
	allowed, err := tokenBucketScript.Run(ctx, rl.client, []string{rateLimitKeyPrefix + clientIP},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		strconv.FormatFloat(now, 'f', 6, 64),
		bucketExpirySeconds,
	).Int64()
	if err != nil {
		// Fail open
		rl.log.Warn("rate limiter redis error, allowing request",
			zap.String("client_ip", clientIP),
			zap.Error(err),
		)
		return true
	}
	return allowed == 1
}

// Middleware returns the gin handler enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if rl.Allow(c.Request.Context(), clientIP) {
			c.Next()
			return
		}

		rl.log.Warn("rate limit exceeded",
			zap.String("client_ip", clientIP),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		retryAfter := int(math.Ceil(1.0 / rl.config.RequestsPerSecond))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate_limit_exceeded",
			"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)",
				rl.config.RequestsPerSecond, rl.config.BurstCapacity),
		})
	}
}

func (rl *RateLimiter) localLimiter(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.local[clientIP]
	if !ok {
		l = &localLimiter{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstCapacity)}
		rl.local[clientIP] = l
	}
	l.lastAccess = time.Now()
	return l.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(localCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops buckets idle for two cleanup periods.
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, l := range rl.local {
		if now.Sub(l.lastAccess) > 2*localCleanupPeriod {
			delete(rl.local, ip)
		}
	}
}
