package middleware

import (
    "context"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/sblogdev/sblog/internal/queue"
)

// VisitLog returns the traffic-logging stage of the request gate.  It
// covers every route except the API namespace and static assets, records an
// access event through the injected publish function and always lets the
// request through: publishing happens on its own goroutine with a detached
// context and a failure there can never fail the request being observed.
func VisitLog(publish func(context.Context, queue.VisitEvent) error, exclude *PathMatcher) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if publish == nil || exclude.Matches(c.Request().URL.Path) {
                return next(c)
            }

            r := c.Request()
            ev := queue.VisitEvent{
                Path:      r.URL.Path,
                IP:        c.RealIP(),
                UserAgent: r.UserAgent(),
                Referer:   r.Referer(),
                VisitedAt: time.Now().UTC().Format(time.RFC3339),
            }
            logger := c.Logger()
            go func() {
                ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
                defer cancel()
                if err := publish(ctx, ev); err != nil {
                    logger.Warnf("[visitlog] publish failed: %v", err)
                }
            }()

            return next(c)
        }
    }
}
