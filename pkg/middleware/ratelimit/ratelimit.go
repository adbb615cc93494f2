// Package ratelimit enforces fixed-window request ceilings shared across instances through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

const keyPrefix = "ratelimit:"

// The counter is created with the window as its expiry; PTTL feeds Retry-After.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if current > tonumber(ARGV[2]) then
  return {0, ttl}
end
return {1, ttl}
`)

// Rule is a ceiling of Limit requests per Window for one scope.
type Rule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// PerMinute builds a rule allowing limit requests a minute.
func PerMinute(scope string, limit int) Rule {
	return Rule{Scope: scope, Limit: limit, Window: time.Minute}
}

// PerHour builds a rule allowing limit requests an hour.
func PerHour(scope string, limit int) Rule {
	return Rule{Scope: scope, Limit: limit, Window: time.Hour}
}

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Recorder is notified of rejected requests.
type Recorder interface {
	RecordRateLimited(scope string)
}

// KeyFunc identifies the caller a request is counted against.
type KeyFunc func(c *gin.Context) string

// ClientIP counts requests per client address as resolved by the engine's
// trusted proxy list.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Limiter counts requests in Redis. A nil Limiter allows everything.
type Limiter struct {
	client   redis.Scripter
	recorder Recorder
	logger   *zap.Logger
	timeout  time.Duration
}

// NewLimiter constructs a Limiter on client.
func NewLimiter(client redis.Scripter, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, logger: logger, timeout: 250 * time.Millisecond}
}

// WithRecorder attaches a rejection recorder.
func (l *Limiter) WithRecorder(r Recorder) *Limiter {
	l.recorder = r
	return l
}

// Allow counts one request for key under rule.
func (l *Limiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if l == nil || l.client == nil || key == "" || rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}, nil
	}
	window := rule.Window.Milliseconds()
	if window <= 0 {
		window = 1
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	values, err := windowScript.Run(ctx, l.client, []string{keyPrefix + rule.Scope + ":" + key}, window, rule.Limit).Int64Slice()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit %s: %w", rule.Scope, err)
	}
	if len(values) != 2 {
		return Decision{Allowed: true}, fmt.Errorf("rate limit %s: unexpected reply %v", rule.Scope, values)
	}

	decision := Decision{Allowed: values[0] == 1}
	if values[1] > 0 {
		decision.RetryAfter = time.Duration(values[1]) * time.Millisecond
	} else {
		decision.RetryAfter = rule.Window
	}
	return decision, nil
}

// Middleware rejects requests over rule with 429. Redis failures let the request through.
func (l *Limiter) Middleware(rule Rule, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = ClientIP
	}
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		decision, err := l.Allow(c.Request.Context(), keyFn(c), rule)
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.String("scope", rule.Scope), zap.Error(err))
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		if decision.Allowed {
			c.Next()
			return
		}

		if l.recorder != nil {
			l.recorder.RecordRateLimited(rule.Scope)
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
		response.Abort(c, appErrors.ErrRateLimited)
	}
}
