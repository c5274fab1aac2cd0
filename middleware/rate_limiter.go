// middleware/ratelimiter.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var (
	ctx = context.Background()
	rdb *redis.Client
)

// RateLimitConfig defines rules for different endpoints
type RateLimitConfig struct {
	MaxRequests int           // Maximum requests
	Window      time.Duration // Time window
	Burst       int           // Burst allowance for token bucket
	Algorithm   string        // "fixed_window", "sliding_window", "token_bucket"
	Scope       string        // "ip", "user", "global"
}

// The OTP and submission endpoints are the brute-force surface of the
// verification workflow, so they get the strictest rules.
var rateLimitRules = map[string]RateLimitConfig{
	"otp_request": {
		MaxRequests: 3, // 3 code requests per 10 minutes
		Window:      10 * time.Minute,
		Algorithm:   "fixed_window",
		Scope:       "user",
	},
	"otp_verify": {
		MaxRequests: 5, // 5 verify attempts per 10 minutes
		Window:      10 * time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "user",
	},
	"verification_submit": {
		MaxRequests: 3, // 3 submissions per hour
		Window:      time.Hour,
		Algorithm:   "fixed_window",
		Scope:       "user",
	},
	"evidence_upload": {
		MaxRequests: 30, // uploads are heavier, still retake-friendly
		Window:      10 * time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "user",
	},
	"verification_session": {
		MaxRequests: 30, // 30 session reads/opens per minute
		Window:      time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "user",
	},
	"payout_link": {
		MaxRequests: 5, // 5 onboarding links per 10 minutes
		Window:      10 * time.Minute,
		Algorithm:   "fixed_window",
		Scope:       "user",
	},
	"payout_session": {
		MaxRequests: 10, // 10 embedded-session requests per minute
		Window:      time.Minute,
		Algorithm:   "token_bucket",
		Burst:       3,
		Scope:       "user",
	},
	"payout_refresh": {
		MaxRequests: 20, // 20 manual status refreshes per minute
		Window:      time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "user",
	},

	// ==================== GLOBAL SAFEGUARDS ====================
	"global_ip": {
		MaxRequests: 1000, // 1000 total requests per IP per minute
		Window:      time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "ip",
	},
	"global_user": {
		MaxRequests: 5000, // 5000 total requests per user per minute
		Window:      time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "user",
	},
}

// Initialize rate limiter
func InitRateLimiter(redisClient *redis.Client) {
	rdb = redisClient
}

// Get rate limit rule for endpoint
func getRateLimitRule(path, method string) RateLimitConfig {
	// Default rule for unknown endpoints
	defaultRule := RateLimitConfig{
		MaxRequests: 60,
		Window:      time.Minute,
		Algorithm:   "sliding_window",
		Scope:       "ip",
	}

	switch {
	case strings.Contains(path, "/verification/otp/request"):
		return rateLimitRules["otp_request"]
	case strings.Contains(path, "/verification/otp/verify"):
		return rateLimitRules["otp_verify"]
	case strings.Contains(path, "/verification/submit"):
		return rateLimitRules["verification_submit"]
	case strings.Contains(path, "/verification/evidence"):
		return rateLimitRules["evidence_upload"]
	case strings.Contains(path, "/verification/session"):
		return rateLimitRules["verification_session"]
	case strings.Contains(path, "/payouts/onboarding-link"):
		return rateLimitRules["payout_link"]
	case strings.Contains(path, "/payouts/account-session"):
		return rateLimitRules["payout_session"]
	case strings.Contains(path, "/payouts/refresh"):
		return rateLimitRules["payout_refresh"]
	default:
		return defaultRule
	}
}

// Get client identifier based on scope
func getIdentifier(c *gin.Context, scope string) string {
	switch scope {
	case "user":
		if userUUID, exists := c.Get("userUUID"); exists {
			return fmt.Sprintf("user:%v", userUUID)
		}
		// Fallback to IP if no user context
		return fmt.Sprintf("ip:%s", c.ClientIP())
	case "global":
		return "global"
	default: // "ip"
		return fmt.Sprintf("ip:%s", c.ClientIP())
	}
}

// Fixed Window Rate Limiter - Lua Script (Most Reliable)
func fixedWindowRateLimit(key string, config RateLimitConfig) (bool, int, error) {
	redisKey := fmt.Sprintf("rate:fw:%s", key)

	luaScript := `
	local key = KEYS[1]
	local expiry = ARGV[1]
	local limit = tonumber(ARGV[2])

	local current = redis.call('GET', key)

	if current == false then
		redis.call('SET', key, 1, 'EX', expiry)
		return {1, limit - 1}
	else
		local count = tonumber(current)
		if count >= limit then
			return {count, 0}
		end

		local new_count = redis.call('INCR', key)
		return {new_count, limit - new_count}
	end
	`

	result, err := rdb.Eval(ctx, luaScript, []string{redisKey},
		int(config.Window.Seconds()), config.MaxRequests).Result()

	if err != nil {
		return false, 0, err
	}

	results := result.([]interface{})
	current := results[0].(int64)
	remaining := results[1].(int64)

	allowed := current <= int64(config.MaxRequests)

	return allowed, int(remaining), nil
}

// Sliding Window Rate Limiter (More Accurate)
func slidingWindowRateLimit(key string, config RateLimitConfig) (bool, int, error) {
	now := time.Now().Unix()
	windowStart := now - int64(config.Window.Seconds())

	redisKey := fmt.Sprintf("rate:sw:%s", key)

	luaScript := `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])
	local window_seconds = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)

	if current >= max_requests then
		return {0, 0}
	end

	redis.call('ZADD', key, now, now)
	redis.call('EXPIRE', key, window_seconds + 60)

	local remaining = max_requests - current - 1
	if remaining < 0 then remaining = 0 end

	return {1, remaining}
	`

	result, err := rdb.Eval(ctx, luaScript, []string{redisKey},
		now, windowStart, config.MaxRequests, int(config.Window.Seconds())).Result()

	if err != nil {
		return false, 0, err
	}

	results := result.([]interface{})
	allowed := results[0].(int64) == 1
	remaining := int(results[1].(int64))

	return allowed, remaining, nil
}

// Token Bucket Rate Limiter (Good for burst traffic)
func tokenBucketRateLimit(key string, config RateLimitConfig) (bool, int, error) {
	now := time.Now().Unix()

	redisKey := fmt.Sprintf("rate:tb:%s", key)

	luaScript := `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local max_tokens = tonumber(ARGV[2])
	local refill_rate = tonumber(ARGV[3])
	local burst = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_update')

	local tokens = max_tokens
	local last_update = now

	if bucket[1] and bucket[2] then
		tokens = tonumber(bucket[1])
		last_update = tonumber(bucket[2])

		local time_passed = now - last_update
		local refill_tokens = math.floor(time_passed * refill_rate)

		if refill_tokens > 0 then
			tokens = math.min(max_tokens + burst, tokens + refill_tokens)
			last_update = now
		end
	end

	if tokens < 1 then
		redis.call('HMSET', key, 'tokens', tokens, 'last_update', last_update)
		redis.call('EXPIRE', key, 3600)
		return {0, 0}
	end

	tokens = tokens - 1

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', last_update)
	redis.call('EXPIRE', key, 3600)

	local remaining = math.floor(tokens)
	if remaining < 0 then remaining = 0 end

	return {1, remaining}
	`

	refillRate := float64(config.MaxRequests) / config.Window.Seconds()

	result, err := rdb.Eval(ctx, luaScript, []string{redisKey},
		now, config.MaxRequests, refillRate, config.Burst).Result()

	if err != nil {
		return false, 0, err
	}

	results := result.([]interface{})
	allowed := results[0].(int64) == 1
	remaining := int(results[1].(int64))

	return allowed, remaining, nil
}

// Main Rate Limiter Middleware
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for health checks
		if c.Request.URL.Path == "/ping" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		rule := getRateLimitRule(c.Request.URL.Path, c.Request.Method)

		identifier := getIdentifier(c, rule.Scope)
		key := fmt.Sprintf("%s:%s:%s", rule.Scope, c.Request.Method, c.Request.URL.Path)
		fullKey := fmt.Sprintf("%s:%s", key, identifier)

		// Global IP safeguard first
		globalIPKey := fmt.Sprintf("global:ip:%s", c.ClientIP())
		globalAllowed, _, err := slidingWindowRateLimit(globalIPKey, rateLimitRules["global_ip"])
		if err == nil && !globalAllowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Global rate limit exceeded",
				"code":  "RATE_LIMIT_GLOBAL_IP",
			})
			c.Abort()
			return
		}

		// Per-user global safeguard if authenticated
		if userUUID, exists := c.Get("userUUID"); exists {
			globalUserKey := fmt.Sprintf("global:user:%v", userUUID)
			userAllowed, _, err := slidingWindowRateLimit(globalUserKey, rateLimitRules["global_user"])
			if err == nil && !userAllowed {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "User rate limit exceeded",
					"code":  "RATE_LIMIT_GLOBAL_USER",
				})
				c.Abort()
				return
			}
		}

		var allowed bool
		var remaining int

		switch rule.Algorithm {
		case "fixed_window":
			allowed, remaining, err = fixedWindowRateLimit(fullKey, rule)
		case "token_bucket":
			allowed, remaining, err = tokenBucketRateLimit(fullKey, rule)
		default: // sliding_window
			allowed, remaining, err = slidingWindowRateLimit(fullKey, rule)
		}

		if err != nil {
			// Don't block requests if Redis fails
			c.Next()
			return
		}

		if !allowed {
			logRateLimitBlock(c, rule, identifier)

			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rule.MaxRequests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d",
				time.Now().Add(rule.Window).Unix()))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Too many requests, please try again in %v", rule.Window.String()),
				"code":        "RATE_LIMIT_EXCEEDED",
				"retry_after": int(rule.Window.Seconds()),
				"limit":       rule.MaxRequests,
				"window":      rule.Window.String(),
			})

			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d",
			time.Now().Add(rule.Window).Unix()))

		c.Next()
	}
}

// Log rate limit blocks for monitoring
func logRateLimitBlock(c *gin.Context, rule RateLimitConfig, identifier string) {
	fmt.Printf("[RATE_LIMIT] Blocked request: %s %s | Identifier: %s | Rule: %+v\n",
		c.Request.Method, c.Request.URL.Path, identifier, rule)
}

// Admin endpoint to view rate limit status
func RateLimitStatusHandler(c *gin.Context) {
	status := gin.H{
		"rules":     rateLimitRules,
		"timestamp": time.Now().Unix(),
	}

	c.JSON(http.StatusOK, status)
}

// Cleanup expired rate limit keys (run as background job)
func CleanupExpiredRateLimits() {
	ticker := time.NewTicker(time.Hour)

	go func() {
		for range ticker.C {
			ctx := context.Background()
			iter := rdb.Scan(ctx, 0, "rate:*", 1000).Iterator()

			for iter.Next(ctx) {
				key := iter.Val()
				ttl, err := rdb.TTL(ctx, key).Result()
				if err == nil && ttl < 0 {
					// Key has no expiry, delete it
					rdb.Del(ctx, key)
				}
			}
		}
	}()
}
