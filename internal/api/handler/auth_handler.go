package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

const refreshCookieName = "refresh_token"

// AuthHandler handles HTTP requests for session operations.
type AuthHandler struct {
	service ports.AuthService
	// secureCookies is false only in development so the cookie survives
	// plain-HTTP local setups.
	secureCookies bool
}

func NewAuthHandler(service ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Phone          string `json:"phone"`
	OnboardingType string `json:"onboardingType" validate:"required,oneof=member club_owner"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login authenticates email/password credentials and opens a session.
//
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, sessionResponse{Token: pair.AccessToken, User: user})
}

// Register creates a new account and opens a session.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, user, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Onboarding: domain.OnboardingType(req.OnboardingType),
	})
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusCreated, sessionResponse{Token: pair.AccessToken, User: user})
}

// Refresh rotates the refresh cookie and mints a new access token. On any
// failure the cookie is cleared so clients stop replaying a dead value.
//
// @Summary      Rotate the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.clearRefreshCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.service.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		h.clearRefreshCookie(c)
		return err
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, sessionResponse{Token: pair.AccessToken})
}

// Logout revokes the refresh chain and clears the cookie. Always succeeds
// from the client's point of view.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      204  "session terminated"
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(c.Request().Context(), cookie.Value); err != nil {
			return err
		}
	}
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the authenticated user's public projection.
//
// @Summary      Get the current user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return domain.ErrUnauthenticated
	}

	user, err := h.service.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, pair *ports.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
