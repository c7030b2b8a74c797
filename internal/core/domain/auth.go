package domain

import "errors"

// Failure taxonomy for the authentication and authorization flow. The HTTP
// layer maps these onto status codes and envelope tags; services return
// them without knowing anything about transport.
var (
	// ErrUnauthorized covers every credential failure surfaced to callers:
	// missing header, bad scheme, invalid token, unresolvable identity.
	// Deliberately generic so responses do not leak which check failed.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden is returned when an authenticated identity lacks the
	// privilege or ownership an operation demands.
	ErrForbidden = errors.New("access forbidden")

	// Token validation failures. Middleware logs these with their cause and
	// then answers with ErrUnauthorized; they never reach a response body.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")

	// ErrTooManyAttempts is returned when login throttling kicks in.
	ErrTooManyAttempts = errors.New("too many login attempts")

	// ErrMaintenanceActive is returned to non-root callers while the
	// platform is in maintenance mode.
	ErrMaintenanceActive = errors.New("service is under maintenance")
)
