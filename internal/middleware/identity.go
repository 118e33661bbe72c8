package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/identity"
)

// userID returns the caller's identity for use in rate limit keys, or
// "anon" when the request carries no token.
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	if id := identity.FromContext(c.Request().Context()); !id.IsAnonymous() {
		return id.String()
	}
	return "anon"
}
