package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
    "github.com/iliyamo/event-ticketing/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/event-ticketing/internal/middleware" // import middleware for JWT authentication and role enforcement
    "github.com/iliyamo/event-ticketing/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while the protected
// /v1 group is created by RegisterTicketing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotating refresh: invalidates the presented refresh token and returns a new pair.
    g.POST("/refresh", a.Refresh)
    // Non-rotating variant: fresh access token, same refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout does not require JWT authentication: a refresh token in the
    // body terminates that session, a bearer token alone terminates all.
    g.POST("/logout", a.Logout)
    e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests
// can inspect an event and its ticket availability before signing up.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler) {
    e.GET("/v1/events/:id", ev.Get)
}

// RegisterTicketing wires the protected /v1 surface: ticketing setup,
// purchase and gifting, holdings, refunds, door verification, member
// management and video rooms.  All routes require a valid access token
// with a known role; the Redis token bucket throttles the group (and
// degrades to a no-op when rdb is nil).
func RegisterTicketing(
    e *echo.Echo,
    a *handler.AuthHandler,
    t *handler.TicketHandler,
    v *handler.VerifyHandler,
    r *handler.RoomHandler,
    jwtSecret string,
    rlCfg config.RateLimitConfig,
    rdb *redis.Client,
) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleOrganizer, model.RoleAttendee))
    auth.Use(middleware.NewTokenBucket(rlCfg, rdb))

    auth.GET("/me", a.Me)

    // Ticketing setup and purchase flows, keyed by event.
    auth.POST("/events/:id/tickets", t.CreateTicket)
    auth.POST("/events/:id/purchase", t.Purchase)
    auth.POST("/events/:id/gift", t.Gift)

    // Private-event member management (organizer only, enforced in the
    // handler against the event's organizer).
    auth.POST("/events/:id/members/:user_id", t.GrantMember)
    auth.DELETE("/events/:id/members/:user_id", t.RevokeMember)

    // Holdings and refunds.
    auth.GET("/entitlements", t.ListEntitlements)
    auth.POST("/entitlements/:id/refund", t.Refund)

    // Door verification.
    auth.POST("/tickets/verify", v.Verify)

    // Video rooms, keyed by event.
    auth.POST("/rooms/:id", r.Create)
    auth.DELETE("/rooms/:id", r.Delete)
    auth.POST("/rooms/:id/ready", r.SetReady)
    auth.POST("/rooms/:id/join", r.Join)
    auth.POST("/rooms/:id/leave", r.Leave)
}
