package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

// OAuthHandler handles the social sign-in flows (Google, Apple).
type OAuthHandler struct {
	service       ports.AuthService
	secureCookies bool
}

func NewOAuthHandler(service ports.AuthService, secureCookies bool) *OAuthHandler {
	return &OAuthHandler{service: service, secureCookies: secureCookies}
}

type authorizeResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type callbackRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

// Authorize issues a state nonce and returns the provider's authorization
// URL for the client to redirect to.
//
// @Summary      Begin a social sign-in
// @Tags         oauth
// @Produce      json
// @Param        provider  path      string  true  "Provider (google or apple)"
// @Success      200       {object}  authorizeResponse
// @Failure      404       {object}  map[string]string
// @Router       /auth/{provider}/authorize [get]
func (h *OAuthHandler) Authorize(c echo.Context) error {
	provider := domain.Provider(c.Param("provider"))

	url, state, err := h.service.OAuthAuthorizationURL(c.Request().Context(), provider)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authorizeResponse{URL: url, State: state})
}

// Callback exchanges the provider's authorization code for a session.
//
// @Summary      Complete a social sign-in
// @Tags         oauth
// @Accept       json
// @Produce      json
// @Param        provider  path      string           true  "Provider (google or apple)"
// @Param        body      body      callbackRequest  true  "Authorization code and state"
// @Success      200       {object}  sessionResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      503       {object}  map[string]string
// @Router       /auth/{provider}/callback [post]
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider := domain.Provider(c.Param("provider"))

	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.service.OAuthCallback(c.Request().Context(), provider, req.Code, req.State)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, sessionResponse{Token: pair.AccessToken, User: user})
}
