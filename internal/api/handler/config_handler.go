package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ConfigHandler serves the public bootstrap endpoints clients hit before
// they hold any credentials.
type ConfigHandler struct {
	authMode string
}

func NewConfigHandler(authMode string) *ConfigHandler {
	return &ConfigHandler{authMode: authMode}
}

type rootResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

type clientConfigResponse struct {
	AuthMode      string `json:"auth_mode"`
	AuthRequired  bool   `json:"auth_required"`
	SignupEnabled bool   `json:"signup_enabled"`
}

// Root answers the bare root path so load balancers and humans poking the
// base URL get something sensible.
//
// @Summary      Service banner
// @Description  Service banner for load balancers and humans poking the base URL.
// @Tags         config
// @Produce      json
// @Success      200  {object}  rootResponse
// @Router       / [get]
func (h *ConfigHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{Service: "chat-platform", Status: "ok"})
}

// ClientConfig tells a client how to authenticate before it can ask
// anything else. In bypass mode there is no credential flow, so clients
// hide both the login and the signup form.
//
// @Summary      Client bootstrap configuration
// @Description  Returns the client-facing configuration, including the active auth mode.
// @Tags         config
// @Produce      json
// @Success      200  {object}  clientConfigResponse
// @Router       /api/config [get]
func (h *ConfigHandler) ClientConfig(c echo.Context) error {
	credentialed := h.authMode != "bypass"
	return c.JSON(http.StatusOK, clientConfigResponse{
		AuthMode:      h.authMode,
		AuthRequired:  credentialed,
		SignupEnabled: credentialed,
	})
}
