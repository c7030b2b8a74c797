package ports

import (
	"context"
	"time"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// RegisterInput carries a new account request from the transport layer.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput carries a credential check plus the client metadata recorded
// on the resulting session.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// AuthResult is returned on successful login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	SessionID string
	Identity  *domain.Identity
}

// AuthService covers account registration and the credential exchange.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
}
