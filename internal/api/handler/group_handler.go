package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// GroupHandler covers group management. Routes are mounted behind the
// manager tier; deletion additionally demands ownership or root inside
// the service.
type GroupHandler struct {
	groups ports.GroupService
}

func NewGroupHandler(groups ports.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type createGroupRequest struct {
	Name       string   `json:"name"        validate:"required,max=120"`
	MemberIDs  []string `json:"member_ids"  validate:"omitempty,dive,required"`
	ManagerIDs []string `json:"manager_ids" validate:"omitempty,dive,required"`
}

type groupListResponse struct {
	Groups []*domain.Group `json:"groups"`
	Count  int             `json:"count"`
}

type deletedResponse struct {
	Success bool `json:"success"`
}

// Create makes a new group owned by the caller.
//
// @Summary      Create a group
// @Description  Creates a group owned by the caller. Requires the manager role.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createGroupRequest  true  "Group details"
// @Success      201   {object}  domain.Group
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/groups [post]
func (h *GroupHandler) Create(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req createGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	group, err := h.groups.Create(c.Request().Context(), ports.CreateGroupInput{
		Actor:      identity,
		Name:       req.Name,
		MemberIDs:  req.MemberIDs,
		ManagerIDs: req.ManagerIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, group)
}

// List returns all groups.
//
// @Summary      List groups
// @Description  Lists all groups. Requires the manager role.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  groupListResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /api/groups [get]
func (h *GroupHandler) List(c echo.Context) error {
	groups, err := h.groups.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groupListResponse{Groups: groups, Count: len(groups)})
}

// Delete removes a group and cascades into the conversations referencing
// it.
//
// @Summary      Delete a group
// @Description  Deletes a group, detaches conversations filed under it and scrubs it from sharing sets in the background.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group id"
// @Success      200  {object}  deletedResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /api/groups/{id} [delete]
func (h *GroupHandler) Delete(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.groups.Delete(c.Request().Context(), identity, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Success: true})
}
