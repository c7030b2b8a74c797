package ports

import (
	"context"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// CreateConversationInput carries a new conversation request.
type CreateConversationInput struct {
	Actor domain.Identity
	Title string
}

// ShareInput carries a mutation of a conversation's sharing set. The same
// shape serves share, unshare and replace.
type ShareInput struct {
	Actor          domain.Identity
	ConversationID string
	GroupIDs       []string
}

// MoveToGroupInput changes the organizing association of a conversation.
// A nil GroupID detaches it.
type MoveToGroupInput struct {
	Actor          domain.Identity
	ConversationID string
	GroupID        *string
}

// AppendMessageInput adds one turn to a conversation.
type AppendMessageInput struct {
	Actor          domain.Identity
	ConversationID string
	Role           string
	Content        string
}

// ConversationService defines use-case operations on conversations,
// including every sharing mutation. All writes are owner-only; reads are
// allowed for the owner and for members of groups in the sharing set.
type ConversationService interface {
	Create(ctx context.Context, input CreateConversationInput) (*domain.Conversation, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Conversation, error)
	List(ctx context.Context, actor domain.Identity) ([]*domain.Conversation, error)
	Share(ctx context.Context, input ShareInput) (*domain.Conversation, error)
	Unshare(ctx context.Context, input ShareInput) (*domain.Conversation, error)
	ReplaceShares(ctx context.Context, input ShareInput) (*domain.Conversation, error)
	MoveToGroup(ctx context.Context, input MoveToGroupInput) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, input AppendMessageInput) (*domain.Conversation, error)
}
