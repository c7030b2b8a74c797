package ports

import (
	"context"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// GroupStore defines persistence operations for groups.
type GroupStore interface {
	Create(ctx context.Context, group *domain.Group) (*domain.Group, error)
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
	Delete(ctx context.Context, id string) error
	// ListIDsByMember returns the ids of every group the user belongs to as
	// owner, manager or plain member.
	ListIDsByMember(ctx context.Context, userID string) ([]string, error)
}
