// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/zapgroups/admin-api/internal/handler"
	"github.com/zapgroups/admin-api/internal/obs"
)

// Register sets up all routes. The limiter guards the unauthenticated auth
// endpoints; authn resolves the account for the protected ones.
func Register(e *echo.Echo, a *handler.AuthHandler, authn, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(obs.Handler()))

	// Credential exchange; no session required.
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	// Session required.
	p := e.Group("/v1/auth", authn)
	p.POST("/logout", a.Logout)
	p.GET("/me", a.Me)
}
