package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. Credential and token
	// failures share 401 and deliberately terse messages.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrTokenNotFound):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "refresh token expired"
	case errors.Is(err, domain.ErrTokenReuseDetected):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusUnauthorized, "account disabled"
	case errors.Is(err, domain.ErrProviderAuth):
		return http.StatusUnauthorized, "provider rejected the authorization"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrUnverifiedEmailMerge):
		return http.StatusForbidden, "email not verified with provider"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, "invalid or expired state"
	case errors.Is(err, domain.ErrMalformedToken):
		return http.StatusBadRequest, "malformed token"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusNotFound, "unknown provider"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, "provider unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
