package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // prefix checks on the Authorization header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/library-seat-reservation/internal/identity"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

// JWTAuth returns an Echo middleware that requires a valid Bearer access
// token.  The token's subject becomes the request identity; handlers read it
// through identity.FromContext or c.Get("user_id").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "message": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "message": "invalid token"})
			}
			attach(c, claims)
			return next(c)
		}
	}
}

// OptionalJWT lets anonymous callers through.  A request without an
// Authorization header proceeds as identity.Anonymous; a header carrying a
// bad token is still rejected so that clients notice an expired session
// instead of silently losing their seat controls.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "message": "malformed authorization header"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "message": "invalid token"})
			}
			attach(c, claims)
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// attach stores the claims on the echo context and the identity on the
// request context, where identity.ContextProvider finds it.
func attach(c echo.Context, claims utils.Claims) {
	c.Set("user_id", claims.Subject)
	c.Set("email", claims.Email)
	req := c.Request()
	c.SetRequest(req.WithContext(identity.WithIdentity(req.Context(), identity.Identity(claims.Subject))))
}
