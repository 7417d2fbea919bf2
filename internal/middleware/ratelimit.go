package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/sblogdev/sblog/internal/config"
)

// RateLimit returns the first stage of the request gate: a token-bucket
// limiter keyed per client.  It covers the include set (the API surface)
// minus the exclude set (login, register and pre-throttled endpoints).
// With Redis available the bucket state lives in a Lua script so multiple
// instances share one budget; without Redis each process falls back to an
// in-memory bucket map guarded by a mutex.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, include, exclude *PathMatcher) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }

    var local *localLimiter
    if rdb == nil {
        local = newLocalLimiter(cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval)
    }

    limiterScript := redis.NewScript(`
        local key = KEYS[1]
        local now_ms = tonumber(ARGV[1])
        local capacity = tonumber(ARGV[2])
        local refill_tokens = tonumber(ARGV[3])
        local interval_ms = tonumber(ARGV[4])
        local ttl_seconds = tonumber(ARGV[5])

        local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
        local tokens = tonumber(state[1])
        local last_refill = tonumber(state[2])

        if tokens == nil or last_refill == nil then
            tokens = capacity
            last_refill = now_ms
        end

        if interval_ms > 0 and refill_tokens > 0 then
            local elapsed = math.max(0, now_ms - last_refill)
            local intervals = math.floor(elapsed / interval_ms)
            if intervals > 0 then
                tokens = math.min(capacity, tokens + (intervals * refill_tokens))
                last_refill = last_refill + (intervals * interval_ms)
            end
        end

        local allowed = 0
        local retry_after_ms = 0
        if tokens > 0 then
            allowed = 1
            tokens = tokens - 1
        else
            local until_next = interval_ms - (now_ms - last_refill)
            if until_next < 0 then until_next = 0 end
            retry_after_ms = until_next
        end

        redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
        redis.call('EXPIRE', key, ttl_seconds)

        return { allowed, tokens, retry_after_ms }
    `)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !applies(include, exclude, c.Request().URL.Path) {
                return next(c)
            }

            key := buildRateKey(cfg, c)
            now := time.Now()

            var (
                allowed   bool
                remaining int64
                retryMs   int64
            )

            if local != nil {
                allowed, remaining, retryMs = local.take(key, now)
            } else {
                args := []interface{}{
                    now.UnixMilli(),
                    cfg.Capacity,
                    cfg.RefillTokens,
                    cfg.RefillInterval.Milliseconds(),
                    int64(cfg.TTL / time.Second),
                }

                ctx := c.Request().Context()
                vals, err := limiterScript.Run(ctx, rdb, []string{key}, args...).Result()
                if err != nil {
                    if cfg.Debug {
                        c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                    }
                    return next(c)
                }

                arr, ok := vals.([]interface{})
                if !ok || len(arr) != 3 {
                    if cfg.Debug {
                        c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
                    }
                    return next(c)
                }
                if i, ok := arr[0].(int64); ok {
                    allowed = i == 1
                } else {
                    allowed = fmt.Sprint(arr[0]) == "1"
                }
                remaining = asInt64(arr[1])
                retryMs = asInt64(arr[2])
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                if secs < 0 {
                    secs = 0
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s remaining=%d retry=%dms", key, remaining, retryMs)
                }
                return c.JSON(http.StatusTooManyRequests, map[string]any{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

// localLimiter is the single-process fallback bucket store.  The map is
// guarded by a mutex since many requests from the same client arrive
// concurrently; refill arithmetic matches the Lua script.
type localLimiter struct {
    mu       sync.Mutex
    buckets  map[string]*localBucket
    capacity int
    refill   int
    interval time.Duration
}

type localBucket struct {
    tokens     int
    lastRefill time.Time
}

func newLocalLimiter(capacity, refill int, interval time.Duration) *localLimiter {
    return &localLimiter{
        buckets:  make(map[string]*localBucket),
        capacity: capacity,
        refill:   refill,
        interval: interval,
    }
}

// take consumes one token for key, refilling first based on elapsed
// intervals.  It returns whether the request is allowed, the remaining
// tokens, and how long the caller should back off when denied.
func (l *localLimiter) take(key string, now time.Time) (bool, int64, int64) {
    l.mu.Lock()
    defer l.mu.Unlock()

    b, ok := l.buckets[key]
    if !ok {
        b = &localBucket{tokens: l.capacity, lastRefill: now}
        l.buckets[key] = b
    }

    if l.interval > 0 && l.refill > 0 {
        elapsed := now.Sub(b.lastRefill)
        if intervals := int(elapsed / l.interval); intervals > 0 {
            b.tokens = min(l.capacity, b.tokens+intervals*l.refill)
            b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * l.interval)
        }
    }

    if b.tokens > 0 {
        b.tokens--
        return true, int64(b.tokens), 0
    }
    retry := l.interval - now.Sub(b.lastRefill)
    if retry < 0 {
        retry = 0
    }
    return false, 0, retry.Milliseconds()
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case float32:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// buildRateKey derives the per-client bucket key.  Authenticated requests
// can be keyed by user id, anonymous ones fall back to the caller IP.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    strategy := strings.ToLower(cfg.KeyStrategy)
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    switch strategy {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default: // "ip_user"
        parts = append(parts, "ip", ip, "user", uid)
    }
    return strings.Join(parts, ":")
}

// currentUserID extracts the authenticated user id stored by TokenAuth, or
// "anon" when the request carries no identity.  The rate limiter usually
// runs before the verifier, so most buckets end up keyed by IP alone.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if id, ok := v.(uint64); ok && id != 0 {
            return strconv.FormatUint(id, 10)
        }
    }
    return "anon"
}
