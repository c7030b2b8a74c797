package handler

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// SessionHandler exposes session introspection and revocation to root.
type SessionHandler struct {
	sessions ports.SessionRegistry
}

func NewSessionHandler(sessions ports.SessionRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionListResponse struct {
	Sessions []domain.Session `json:"sessions"`
	Count    int              `json:"count"`
}

type revokeResponse struct {
	Success bool `json:"success"`
	Revoked int  `json:"revoked"`
}

// List returns every live session, oldest first.
//
// @Summary      List active sessions
// @Description  Lists every active session. Root only.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionListResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /api/admin/sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	sessions := h.sessions.ListActive()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return c.JSON(http.StatusOK, sessionListResponse{Sessions: sessions, Count: len(sessions)})
}

// Revoke kills one session by id.
//
// @Summary      Revoke a session
// @Description  Revokes a single session by id. Root only.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  revokeResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /api/admin/sessions/{id} [delete]
func (h *SessionHandler) Revoke(c echo.Context) error {
	if !h.sessions.Revoke(c.Param("id")) {
		return domain.ErrSessionNotFound
	}
	metrics.SessionsRevokedTotal.WithLabelValues("single").Inc()
	return c.JSON(http.StatusOK, revokeResponse{Success: true, Revoked: 1})
}

// RevokeAll kills every session, the caller's own included.
//
// @Summary      Revoke all sessions
// @Description  Revokes every active session, including the caller's. Root only.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  revokeResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /api/admin/sessions [delete]
func (h *SessionHandler) RevokeAll(c echo.Context) error {
	n := h.sessions.RevokeAll()
	metrics.SessionsRevokedTotal.WithLabelValues("all").Add(float64(n))
	return c.JSON(http.StatusOK, revokeResponse{Success: true, Revoked: n})
}

// RevokeByUser kills every session of one user. Revoking a user with no
// sessions is a successful no-op.
//
// @Summary      Revoke a user's sessions
// @Description  Revokes every session belonging to one user. Root only.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  revokeResponse
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Router       /api/admin/users/{id}/sessions [delete]
func (h *SessionHandler) RevokeByUser(c echo.Context) error {
	n := h.sessions.RevokeByUser(c.Param("id"))
	metrics.SessionsRevokedTotal.WithLabelValues("user").Add(float64(n))
	return c.JSON(http.StatusOK, revokeResponse{Success: true, Revoked: n})
}
