package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// currentIdentity extracts the actor injected by the authentication gate.
// Absence means the route was wired outside the gate; treat the request as
// unauthenticated rather than panic.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get("identity").(domain.Identity)
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}

// currentSessionID returns the session the caller's token is bound to.
// Empty when authentication is bypassed, since bypass opens no session.
func currentSessionID(c echo.Context) string {
	sid, _ := c.Get("session_id").(string)
	return sid
}
