package router // package router defines how HTTP routes are registered for the API

import (
    "context"

    "github.com/labstack/echo/v4"  // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9" // Redis client shared by the gate stages

    "github.com/sblogdev/sblog/internal/auth"       // token codec
    "github.com/sblogdev/sblog/internal/config"     // app configuration
    "github.com/sblogdev/sblog/internal/handler"    // handlers that implement the endpoints
    "github.com/sblogdev/sblog/internal/middleware" // request gate stages
    "github.com/sblogdev/sblog/internal/queue"      // visit event payloads
)

// RegisterGate wires the ordered request gate onto the Echo instance.  The
// three stages run in fixed priority order for every request; each stage
// decides for itself whether it applies to the path and may short-circuit
// with its own response.  The exclusion lists below are the load-bearing
// part: a public route missing from the verifier's exclusions locks
// everyone out, a protected route wrongly listed bypasses authentication.
func RegisterGate(e *echo.Echo, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client,
    codec *auth.Codec, publish func(context.Context, queue.VisitEvent) error) {

    // Stage 1: rate limiting over the whole API surface.  Login and
    // register stay reachable so a throttled client can still establish a
    // session; the visit-record endpoint is throttled client side.
    e.Use(middleware.RateLimit(rlCfg, rdb,
        middleware.NewPathMatcher("/api/*"),
        middleware.NewPathMatcher(
            "/api/admin/users/login",
            "/api/admin/users/register",
            "/api/admin/visit-log/record",
        ),
    ))

    // Stage 2: traffic logging for public page views only.  API calls,
    // the admin UI and static assets are not page views; failures inside
    // this stage never fail the request.
    e.Use(middleware.VisitLog(publish,
        middleware.NewPathMatcher(
            "/api/*",
            "/admin/*",
            "/static/*",
            "/assets/*",
            "/css/*",
            "/js/*",
            "/images/*",
            "/favicon.ico",
            "/healthz",
            cfg.UploadURLPrefix+"/*",
        ),
    ))

    // Stage 3: token verification for the admin namespace.  Everything
    // under /api/admin needs a Bearer token except the endpoints that must
    // work before a session exists.
    e.Use(middleware.TokenAuth(codec,
        middleware.NewPathMatcher("/api/admin/*"),
        middleware.NewPathMatcher(
            "/api/admin/users/login",
            "/api/admin/users/register",
            "/api/admin/users/check-username",
            "/api/admin/init/*",
            "/api/admin/visit-log/record",
        ),
    ))
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the static upload tree.
func RegisterRoutes(e *echo.Echo, cfg config.Config) {
    // Load balancers and monitoring systems probe this endpoint.
    e.GET("/healthz", handler.Health)
    // Accepted uploads are served straight from the date-partitioned store.
    e.Static(cfg.UploadURLPrefix, cfg.UploadRoot)
}

// RegisterUsers registers the login/logout surface and the user lookup
// endpoints under /api/admin/users.  Which of these require a token is
// decided by the gate's exclusion lists, not here.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler) {
    g := e.Group("/api/admin/users")
    g.POST("/register", u.Register)
    g.POST("/login", u.Login)
    g.POST("/logout", u.Logout)
    g.GET("/check-username", u.CheckUsername)
    // Lookup endpoints additionally reject tokens carrying unknown roles.
    g.GET("/find/:id", u.Find, middleware.RequireRole(auth.RoleAdmin, auth.RoleUser))
    g.GET("/me", u.Me, middleware.RequireRole(auth.RoleAdmin, auth.RoleUser))
}

// RegisterUploads registers the image upload surface consumed by the admin
// UI.  Both routes sit behind the token verifier.
func RegisterUploads(e *echo.Echo, up *handler.UploadHandler) {
    g := e.Group("/api/admin/upload", middleware.RequireRole(auth.RoleAdmin, auth.RoleUser))
    g.POST("/image", up.UploadImage)
    g.DELETE("/image", up.DeleteImage)
}

// RegisterInit registers the admin bootstrap endpoint.  It is excluded from
// the verifier so a fresh deployment can create its first administrator.
func RegisterInit(e *echo.Echo, h *handler.InitHandler) {
    e.POST("/api/admin/init/reset-admin", h.ResetAdmin)
}

// RegisterVisitLog registers the explicit visit-record endpoint used by the
// single-page frontend.
func RegisterVisitLog(e *echo.Echo, h *handler.VisitLogHandler) {
    e.POST("/api/admin/visit-log/record", h.Record)
}
