package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // .env loader for local development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-ticketing/internal/config"     // Internal config loader
    "github.com/iliyamo/event-ticketing/internal/database"   // MySQL connection pool
    "github.com/iliyamo/event-ticketing/internal/handler"    // HTTP handlers
    "github.com/iliyamo/event-ticketing/internal/queue"      // RabbitMQ publisher and consumer
    "github.com/iliyamo/event-ticketing/internal/repository" // SQL repositories
    "github.com/iliyamo/event-ticketing/internal/router"     // Route registration
    "github.com/iliyamo/event-ticketing/internal/service"    // Ticketing core services
    "github.com/iliyamo/event-ticketing/internal/token"      // Admission token issuer
)

func main() {
    _ = godotenv.Load() // Read .env when present; real env wins

    cfg := config.Load()                  // Load environment config
    rlCfg := config.LoadRateLimitConfig() // Token bucket settings

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs the rate limiter; nil disables it.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable, rate limiting disabled")
    }

    // Repositories.
    events := repository.NewEventRepo(db)
    tickets := repository.NewTicketRepo(db)
    entitlements := repository.NewEntitlementRepo(db)
    memberships := repository.NewMembershipRepo(db)
    rooms := repository.NewRoomRepo(db)
    users := repository.NewUserRepo(db)
    refreshTokens := repository.NewRefreshTokenRepo(db)

    // Ticketing core.
    purchases := service.NewPurchaseService(
        events,
        tickets,
        entitlements,
        memberships,
        users,
        token.NewIssuer(cfg.TokenBytes),
        &service.RefConfirmer{Prefix: cfg.PaymentRefPrefix},
        queue.PublishEntitlementIssued,
        token.MaxIssueAttempts,
    )
    verifier := service.NewVerificationService(entitlements, cfg.CheckInEnabled)
    roomSvc := service.NewRoomService(events, tickets, entitlements, memberships, rooms)

    // Background consumer mirrors issued entitlements to the audit log.
    go func() {
        if err := queue.StartEntitlementConsumer(); err != nil {
            log.Printf("entitlement consumer: %v", err)
        }
    }()

    e := echo.New() // Create Echo instance

    router.RegisterRoutes(e)                                           // Health check
    router.RegisterPublic(e, handler.NewEventHandler(events, tickets)) // Guest catalog view
    authHandler := handler.NewAuthHandler(cfg, users, refreshTokens)   // Auth endpoints
    router.RegisterAuth(e, authHandler)                                // /v1/auth
    router.RegisterTicketing(
        e,
        authHandler,
        handler.NewTicketHandler(events, tickets, entitlements, memberships, purchases),
        handler.NewVerifyHandler(verifier),
        handler.NewRoomHandler(roomSvc),
        cfg.JWTSecret,
        rlCfg,
        rdb,
    )

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
