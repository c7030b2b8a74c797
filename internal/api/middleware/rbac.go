package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/service"
)

// RequireRole guards a route group behind a minimum privilege tier. It
// assumes the gate ran first; a request with no identity in context reads
// as unauthenticated, not forbidden.
func RequireRole(authz *service.Authorizer, required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := c.Get("identity").(domain.Identity)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if err := authz.RequireRole(identity, required); err != nil {
				metrics.AuthzDenialsTotal.WithLabelValues("role").Inc()
				return err
			}
			return next(c)
		}
	}
}
