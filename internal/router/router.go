// Package router wires handlers, middleware and routes onto an Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sati-centro/consulta-booking/internal/config"
	"github.com/sati-centro/consulta-booking/internal/handler"
	"github.com/sati-centro/consulta-booking/internal/middleware"
	"github.com/sati-centro/consulta-booking/internal/model"
)

// Deps collects everything route registration needs.
type Deps struct {
	Cfg      config.Config
	RateCfg  config.RateLimitConfig
	Redis    *redis.Client
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Rooms    *handler.RoomHandler
	Bookings *handler.BookingHandler
	Payments *handler.PaymentHandler
	Account  *handler.AccountHandler
	Config   *handler.ConfigHandler
	Users    *handler.UserHandler
}

// New builds the Echo instance with all routes registered. The webhook
// endpoint is unauthenticated; it is protected by signature
// verification instead of a bearer token.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rateLimit := middleware.NewRateLimiter(d.RateCfg, d.Redis)
	auth := middleware.JWTAuth(d.Cfg.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	e.GET("/healthz", d.Health.Check)

	api := e.Group("/api", rateLimit)

	// Public.
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/payments/webhook", d.Payments.Webhook)
	api.GET("/rooms", d.Rooms.List)
	api.GET("/rooms/:id", d.Rooms.Get)
	api.GET("/bookings", d.Bookings.List)
	api.GET("/config", d.Config.List)

	// Authenticated.
	authed := api.Group("", auth)
	authed.POST("/auth/logout", d.Auth.Logout)
	authed.POST("/auth/logout-all", d.Auth.LogoutAll)
	authed.GET("/auth/me", d.Auth.Me)

	authed.POST("/bookings", d.Bookings.Create)
	authed.GET("/bookings/:id", d.Bookings.Get)
	authed.PATCH("/bookings/:id/status", d.Bookings.SetStatus)

	authed.POST("/payments/create-intent", d.Payments.CreateIntent)
	authed.GET("/payments/intent/:id", d.Payments.PollIntent)
	authed.GET("/payments", d.Payments.List)

	authed.GET("/account/summary", d.Account.Summary)

	// Admin.
	admin := authed.Group("", adminOnly)
	admin.POST("/rooms", d.Rooms.Create)
	admin.PATCH("/rooms/:id", d.Rooms.Update)
	admin.DELETE("/rooms/:id", d.Rooms.Delete)
	admin.POST("/bookings/:id/penalize", d.Bookings.Penalize)
	admin.PATCH("/users/:id/documentation", d.Users.ReviewDocumentation)
	admin.PUT("/config/:key", d.Config.Put)

	return e
}
