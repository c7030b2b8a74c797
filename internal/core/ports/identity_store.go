package ports

import (
	"context"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// IdentityStore defines persistence operations for identities.
type IdentityStore interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// Count returns the total number of identities, active or not. Used to
	// decide whether a registration is the bootstrap one.
	Count(ctx context.Context) (int64, error)
}
