// Package middleware contains reusable Echo middleware for the API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/model"
)

const userContextKey = "current_user"

// Authenticate validates the Bearer access token and resolves the account it
// names. The token proves identity by signature alone, but the account is
// still loaded so that revoked or deactivated users are cut off before the
// short-lived token expires. The resolved user is stored in the context for
// handlers and for RequireAdmin.
func Authenticate(sessions *auth.Service, users auth.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No token provided"})
			}
			claims, err := sessions.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.ByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, auth.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Authentication failed"})
			}
			if !u.IsActive() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "User account is not active"})
			}

			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the account resolved by Authenticate for this request.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}
