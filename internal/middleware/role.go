package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zapgroups/admin-api/internal/model"
)

// RequireAdmin rejects requests whose resolved account is not an admin. It
// must run after Authenticate; the check is a pure role equality on the
// account loaded there, not on the token's role snapshot.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok || u.Role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin access required"})
		}
		return next(c)
	}
}
