package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// TokenValidator is the slice of the token service the middleware needs.
type TokenValidator interface {
	Validate(token string) (*ports.AccessClaims, error)
}

// Auth validates the bearer access token and injects its claims into the
// request context under "user_id" and "roles".
func Auth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("user_id", claims.UserID)
			c.Set("roles", claims.Roles)

			return next(c)
		}
	}
}
