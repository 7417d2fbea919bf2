package main // Entry point package

import (
    "log"  // Logging library
    "time" // token TTL arithmetic

    "github.com/joho/godotenv"    // loads .env files into the environment
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/sblogdev/sblog/internal/auth"       // token codec and session registry
    "github.com/sblogdev/sblog/internal/config"     // internal config loader
    "github.com/sblogdev/sblog/internal/database"   // MySQL connection helper
    "github.com/sblogdev/sblog/internal/handler"    // HTTP handlers
    "github.com/sblogdev/sblog/internal/queue"      // visit event consumer
    "github.com/sblogdev/sblog/internal/repository" // DB repositories
    "github.com/sblogdev/sblog/internal/router"     // route registration
    "github.com/sblogdev/sblog/internal/service"    // event publisher
    "github.com/sblogdev/sblog/internal/upload"     // upload validation pipeline
)

func main() {
    // Load .env if present; real environments set variables directly.
    _ = godotenv.Load()

    cfg := config.Load()
    rlCfg := config.LoadRateLimitConfig()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }

    // Redis backs the session registry and the distributed rate limiter.
    // A nil client degrades both gracefully.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Print("redis unavailable: session registry disabled, rate limiter running in-process")
    }

    // The signing key lives for the process lifetime.  Without a configured
    // secret a random key is generated, so tokens do not survive a restart.
    secret := []byte(cfg.JWTSecret)
    if len(secret) == 0 {
        secret = auth.NewRandomKey()
        log.Print("JWT_SECRET not set: using a random per-process signing key")
    }
    ttl := time.Duration(cfg.TokenTTLDays) * 24 * time.Hour
    codec := auth.NewCodec(secret, ttl)
    sessions := auth.NewSessionStore(rdb, ttl)

    users := repository.NewUserRepo(db)
    visits := repository.NewVisitLogRepo(db)
    validator := upload.NewValidator(cfg.UploadRoot, cfg.UploadURLPrefix, cfg.MaxUploadBytes)

    // Drain recorded visits into MySQL in the background.
    go func() {
        if err := queue.StartVisitConsumer(visits); err != nil {
            log.Printf("visit consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterGate(e, cfg, rlCfg, rdb, codec, service.PublishVisit)
    router.RegisterRoutes(e, cfg)
    router.RegisterUsers(e, handler.NewUserHandler(cfg, codec, users, sessions))
    router.RegisterUploads(e, handler.NewUploadHandler(validator))
    router.RegisterInit(e, handler.NewInitHandler(cfg, users))
    router.RegisterVisitLog(e, handler.NewVisitLogHandler(service.PublishVisit))

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
