package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/sblogdev/sblog/internal/queue"
)

// VisitLogHandler lets the public frontend record page views explicitly
// (single-page navigations never hit the server, so the traffic-logging
// middleware cannot see them).  The route is public and excluded from the
// rate limiter because the client already throttles it.
type VisitLogHandler struct {
    Publish func(context.Context, queue.VisitEvent) error
}

type recordVisitReq struct {
    Path    string `json:"path"`
    Referer string `json:"referer"`
}

func NewVisitLogHandler(publish func(context.Context, queue.VisitEvent) error) *VisitLogHandler {
    return &VisitLogHandler{Publish: publish}
}

// Record handles POST /api/admin/visit-log/record.  Publishing is best effort:
// the client gets a 204 whether or not the broker accepted the event.
func (h *VisitLogHandler) Record(c echo.Context) error {
    var req recordVisitReq
    if err := c.Bind(&req); err != nil || req.Path == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "path required"})
    }

    ev := queue.VisitEvent{
        Path:      req.Path,
        IP:        c.RealIP(),
        UserAgent: c.Request().UserAgent(),
        Referer:   req.Referer,
        VisitedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if h.Publish != nil {
        logger := c.Logger()
        go func() {
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            if err := h.Publish(ctx, ev); err != nil {
                logger.Warnf("[visitlog] publish failed: %v", err)
            }
        }()
    }
    return c.NoContent(http.StatusNoContent)
}
