package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// ConversationHandler covers conversations and their sharing surface.
type ConversationHandler struct {
	conversations ports.ConversationService
}

func NewConversationHandler(conversations ports.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Create opens a new conversation owned by the caller.
//
// @Summary      Create a conversation
// @Description  Creates an empty conversation owned by the caller.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createConversationRequest  true  "Conversation details"
// @Success      201   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Router       /api/conversations [post]
func (h *ConversationHandler) Create(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	conv, err := h.conversations.Create(c.Request().Context(), ports.CreateConversationInput{
		Actor: identity,
		Title: req.Title,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, conv)
}

// List returns the conversations visible to the caller: owned plus shared
// through group membership.
//
// @Summary      List visible conversations
// @Description  Lists conversations the caller owns plus conversations shared with any group the caller belongs to.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  conversationListResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /api/conversations [get]
func (h *ConversationHandler) List(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	convs, err := h.conversations.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conversationListResponse{Conversations: convs, Count: len(convs)})
}

// Get returns one conversation when the caller owns it or belongs to a
// group it is shared with.
//
// @Summary      Get a conversation
// @Description  Returns a conversation the caller owns or can reach through group sharing.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  domain.Conversation
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /api/conversations/{id} [get]
func (h *ConversationHandler) Get(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	conv, err := h.conversations.Get(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return resourceDenial(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// Share grants the listed groups read access. Owner only.
//
// @Summary      Share a conversation with groups
// @Description  Adds groups to the conversation's sharing set. Owner only; set semantics, re-sharing is a no-op.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Conversation id"
// @Param        body  body      shareRequest  true  "Group ids to add"
// @Success      200   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/conversations/{id}/share [post]
func (h *ConversationHandler) Share(c echo.Context) error {
	return h.mutateShares(c, h.conversations.Share)
}

// Unshare withdraws the listed groups. Unsharing a group that was never in
// the set succeeds without effect. Owner only.
//
// @Summary      Unshare a conversation from groups
// @Description  Removes groups from the conversation's sharing set. Unsharing a group that is not present is a no-op.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Conversation id"
// @Param        body  body      shareRequest  true  "Group ids to remove"
// @Success      200   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/conversations/{id}/unshare [post]
func (h *ConversationHandler) Unshare(c echo.Context) error {
	return h.mutateShares(c, h.conversations.Unshare)
}

// ReplaceShares swaps the whole sharing set. An empty list clears it.
// Owner only.
//
// @Summary      Replace a conversation's sharing set
// @Description  Replaces the whole sharing set. An empty list clears all sharing.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Conversation id"
// @Param        body  body      replaceSharesRequest true  "New sharing set"
// @Success      200   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /api/conversations/{id}/share [put]
func (h *ConversationHandler) ReplaceShares(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req replaceSharesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	conv, err := h.conversations.ReplaceShares(c.Request().Context(), ports.ShareInput{
		Actor:          identity,
		ConversationID: c.Param("id"),
		GroupIDs:       req.GroupIDs,
	})
	if err != nil {
		return resourceDenial(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// MoveToGroup re-files the conversation under a group, or detaches it when
// the body carries a null group id. Filing grants no access. Owner only.
//
// @Summary      Move a conversation to a group
// @Description  Files the conversation under a group, or detaches it when group_id is null. Owner only.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Conversation id"
// @Param        body  body      moveToGroupRequest  true  "Target group, null to detach"
// @Success      200   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /api/conversations/{id}/group [put]
func (h *ConversationHandler) MoveToGroup(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req moveToGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	conv, err := h.conversations.MoveToGroup(c.Request().Context(), ports.MoveToGroupInput{
		Actor:          identity,
		ConversationID: c.Param("id"),
		GroupID:        req.GroupID,
	})
	if err != nil {
		return resourceDenial(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// AppendMessage adds one turn to the conversation. Owner only.
//
// @Summary      Append a message
// @Description  Appends a message to a conversation. Owner only; shared readers cannot write.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Conversation id"
// @Param        body  body      appendMessageRequest  true  "Message"
// @Success      200   {object}  domain.Conversation
// @Failure      401   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Failure      422   {object}  api.errorResponse
// @Router       /api/conversations/{id}/messages [post]
func (h *ConversationHandler) AppendMessage(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req appendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	conv, err := h.conversations.AppendMessage(c.Request().Context(), ports.AppendMessageInput{
		Actor:          identity,
		ConversationID: c.Param("id"),
		Role:           req.Role,
		Content:        req.Content,
	})
	if err != nil {
		return resourceDenial(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// mutateShares binds a shareRequest and runs one of the share/unshare
// service calls, which share a signature.
func (h *ConversationHandler) mutateShares(
	c echo.Context,
	op func(context.Context, ports.ShareInput) (*domain.Conversation, error),
) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	conv, err := op(c.Request().Context(), ports.ShareInput{
		Actor:          identity,
		ConversationID: c.Param("id"),
		GroupIDs:       req.GroupIDs,
	})
	if err != nil {
		return resourceDenial(err)
	}
	return c.JSON(http.StatusOK, conv)
}

// resourceDenial counts forbidden answers on resource access before they
// flow to the central error handler.
func resourceDenial(err error) error {
	if errors.Is(err, domain.ErrForbidden) {
		metrics.AuthzDenialsTotal.WithLabelValues("resource").Inc()
	}
	return err
}
