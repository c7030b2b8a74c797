package ports

import (
	"context"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// CreateGroupInput carries a new group request.
type CreateGroupInput struct {
	Actor      domain.Identity
	Name       string
	MemberIDs  []string
	ManagerIDs []string
}

// GroupService defines use-case operations for groups. Deletion cascades:
// the organizing association is cleared synchronously and sharing entries
// are removed by a background worker, best effort.
type GroupService interface {
	Create(ctx context.Context, input CreateGroupInput) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
}
