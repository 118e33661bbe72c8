package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/library-seat-reservation/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/library-seat-reservation/internal/middleware" // JWT, cache and rate limit middleware
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterSeats registers the seat map and toggle endpoints.  Reads accept
// anonymous callers, who see every seat but get no book action; toggling
// anonymously is answered with 401 by the handler.  The layout route is
// identity-free and sits behind the response cache.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/seats/layout", s.Layout, cache)

	g := e.Group("/v1/seats", middleware.OptionalJWT(jwtSecret))
	g.GET("", s.List)
	g.GET("/:id", s.Get)
	g.POST("/:id/toggle", s.Toggle)

	e.GET("/v1/me", s.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterAuth registers password and one-time code sign-in under /v1/auth.
// Sending and checking codes are rate limited per client.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OTPHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	g.POST("/otp/send", o.Send, limiter)
	g.POST("/otp/verify", o.Verify, limiter)
	g.POST("/otp/token", o.Token)
}
