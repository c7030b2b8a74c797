package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/core/service"
)

// MaintenanceHandler lets root inspect and flip the serving switch.
type MaintenanceHandler struct {
	maintenance *service.Maintenance
}

func NewMaintenanceHandler(maintenance *service.Maintenance) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

type maintenanceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type maintenanceResponse struct {
	MaintenanceMode bool   `json:"maintenance_mode"`
	Message         string `json:"message"`
}

// Get reports the current maintenance state.
//
// @Summary      Maintenance state
// @Description  Returns the current maintenance flag. Root only.
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  maintenanceResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /api/admin/maintenance [get]
func (h *MaintenanceHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, maintenanceState(h.maintenance.Enabled()))
}

// Set flips the maintenance switch. Setting the current state again is a
// no-op success.
//
// @Summary      Toggle maintenance mode
// @Description  Enables or disables maintenance mode. While enabled, non-root requests are rejected with 503. Root only.
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      maintenanceRequest  true  "Desired state"
// @Success      200   {object}  maintenanceResponse
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/admin/maintenance [post]
func (h *MaintenanceHandler) Set(c echo.Context) error {
	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.maintenance.Set(*req.Enabled)
	return c.JSON(http.StatusOK, maintenanceState(*req.Enabled))
}

func maintenanceState(enabled bool) maintenanceResponse {
	msg := "maintenance mode disabled"
	if enabled {
		msg = "maintenance mode enabled"
	}
	return maintenanceResponse{MaintenanceMode: enabled, Message: msg}
}
