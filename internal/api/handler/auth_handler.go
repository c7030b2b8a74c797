package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// AuthHandler covers registration, login and session self-service.
type AuthHandler struct {
	authService ports.AuthService
	sessions    ports.SessionRegistry
}

func NewAuthHandler(authService ports.AuthService, sessions ports.SessionRegistry) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  *domain.Identity `json:"identity"`
}

type identityResponse struct {
	Identity *domain.Identity `json:"identity"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

// Register creates a new account.
//
// @Summary      Register a new identity
// @Description  Creates an identity. The first account on an empty instance becomes root, all later ones start as user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      409   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, identityResponse{Identity: identity})
}

// Login exchanges credentials for a bearer token bound to a new session.
//
// @Summary      Log in with email and password
// @Description  Verifies credentials, registers a server-side session and returns a bearer token bound to it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      429   {object}  api.errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Identity:  result.Identity,
	})
}

// Me echoes the identity the gate resolved for this request.
//
// @Summary      Current identity
// @Description  Returns the identity resolved from the bearer token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityResponse{Identity: &identity})
}

// Logout revokes the caller's own session. Idempotent: logging out twice,
// or in bypass mode where no session exists, still succeeds.
//
// @Summary      Log out the current session
// @Description  Revokes the session carried by the current token. Idempotent.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  logoutResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /api/auth/logout [post]
// @Router       /api/auth/session [delete]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := currentIdentity(c); err != nil {
		return err
	}

	if sid := currentSessionID(c); sid != "" {
		if h.sessions.Revoke(sid) {
			metrics.SessionsRevokedTotal.WithLabelValues("single").Inc()
		}
	}
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrIdentityDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}
