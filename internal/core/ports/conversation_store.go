package ports

import (
	"context"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// ConversationStore defines persistence operations for conversations.
type ConversationStore interface {
	Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// ListVisible returns conversations the user can see: the ones they own
	// plus the ones shared with any of the given groups.
	ListVisible(ctx context.Context, ownerID string, groupIDs []string) ([]*domain.Conversation, error)
	// UpdateShares replaces the stored sharing set.
	UpdateShares(ctx context.Context, id string, sharedGroupIDs []string) error
	// SetGroup updates the organizing association. A nil groupID detaches
	// the conversation from its group.
	SetGroup(ctx context.Context, id string, groupID *string) error
	AppendMessage(ctx context.Context, id string, msg domain.Message) error
	// PullSharedGroup atomically removes one group from one conversation's
	// sharing set. Reports whether anything was removed. Unknown
	// conversation ids report false without error.
	PullSharedGroup(ctx context.Context, conversationID, groupID string) (bool, error)
	// ClearGroup detaches every conversation filed under the group, as part
	// of group deletion. Returns how many conversations were touched.
	ClearGroup(ctx context.Context, groupID string) (int64, error)
	// ListIDsBySharedGroup returns ids of conversations whose sharing set
	// contains the group.
	ListIDsBySharedGroup(ctx context.Context, groupID string) ([]string, error)
}
