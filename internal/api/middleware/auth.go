package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/api/metrics"
	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
	"github.com/quillchat/chat-platform/internal/core/service"
)

// Context keys set by the gate. Handlers read them back with c.Get; the
// values are a domain.Identity and the session id string.
//
//	"identity"   – the resolved actor for this request
//	"session_id" – the live session the bearer token is bound to
//
// bypass mode sets only "identity".

// GateConfig wires everything the authentication gate needs.
type GateConfig struct {
	// Bypass disables credential checks entirely and stamps the fixed
	// local identity on every request. Development deployments only.
	Bypass      bool
	Tokens      *service.TokenService
	Sessions    ports.SessionRegistry
	Identities  ports.IdentityStore
	Maintenance *service.Maintenance
	Logger      zerolog.Logger
}

// publicRoutes are reachable without credentials. Matching is exact or on
// a path segment boundary: "/docs" also admits "/docs/index.html" but
// never "/docsx". The root path matches exactly only, so the prefix rule
// cannot open the whole tree.
var publicRoutes = []string{
	"/",
	"/health",
	"/metrics",
	"/docs",
	"/api/config",
	"/api/auth/register",
	"/api/auth/login",
}

func isPublic(path string) bool {
	for _, route := range publicRoutes {
		if path == route {
			return true
		}
		if route != "/" && strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// Gate is the single authentication entry point. It classifies the
// request, runs the bearer flow, and applies the maintenance gate once
// the caller's role is known.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			// 1. Public routes skip authentication. Maintenance lets them
			// through too, so probes and login keep working during it.
			if isPublic(path) {
				return next(c)
			}

			// 2. Bypass mode stamps the placeholder identity and moves on.
			// No maintenance gate here: a bypass instance carries no
			// tenant traffic worth shielding.
			if cfg.Bypass {
				c.Set("identity", domain.BypassIdentity())
				return next(c)
			}

			// Every rejection below answers with the same generic 401 so
			// responses never reveal which check failed. The log keeps
			// the precise cause.
			reject := func(err error, reason string) error {
				cfg.Logger.Warn().
					Err(err).
					Str("reason", reason).
					Str("path", path).
					Msg("request not authenticated")
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			// 3. Extract and validate the bearer token.
			raw := bearerToken(c.Request().Header.Get("Authorization"))
			if raw == "" {
				return reject(nil, "missing")
			}
			claims, err := cfg.Tokens.Validate(raw)
			if err != nil {
				return reject(err, tokenReason(err))
			}

			// 4. The session must still be live. Revocation beats a
			// cryptographically valid token.
			if claims.SessionID == "" || !cfg.Sessions.IsValid(claims.SessionID) {
				return reject(nil, "session_revoked")
			}

			// 5. Resolve the identity. Deleted and disabled accounts get
			// the same generic answer as a bad token.
			identity, err := cfg.Identities.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				return reject(err, "identity_rejected")
			}
			if identity.Disabled() {
				return reject(domain.ErrIdentityDisabled, "identity_rejected")
			}

			// 6. The role for this request comes from the validated
			// claims, re-checked against the closed set.
			role, err := domain.ParseRole(claims.Role)
			if err != nil {
				return reject(err, "identity_rejected")
			}
			actor := *identity
			actor.Role = role

			// 7. Maintenance gate, after identity resolution so root
			// operators stay in.
			if cfg.Maintenance != nil && cfg.Maintenance.Enabled() && !actor.Role.Satisfies(domain.RoleRoot) {
				metrics.MaintenanceRejectionsTotal.Inc()
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service is under maintenance")
			}

			c.Set("identity", actor)
			c.Set("session_id", claims.SessionID)
			return next(c)
		}
	}
}

// bearerToken extracts the compact token from an Authorization header.
// Scheme matching is case-insensitive per RFC 7235; anything that is not
// a two-part bearer header reads as no token at all.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}
