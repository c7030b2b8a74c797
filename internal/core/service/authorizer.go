package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// Authorizer is the single entry point for privilege and resource access
// decisions. Middleware and services go through it instead of comparing
// roles inline, so every check fails closed the same way.
type Authorizer struct {
	groups ports.GroupStore
	log    zerolog.Logger
}

// NewAuthorizer wires the authorizer to the group store it consults for
// membership.
func NewAuthorizer(groups ports.GroupStore, log zerolog.Logger) *Authorizer {
	return &Authorizer{groups: groups, log: log}
}

// RequireRole returns ErrForbidden unless the identity's role satisfies
// the requirement. Unknown roles on either side never pass.
func (a *Authorizer) RequireRole(identity domain.Identity, required domain.Role) error {
	if !identity.Role.Satisfies(required) {
		a.log.Debug().
			Str("user_id", identity.ID).
			Str("role", string(identity.Role)).
			Str("required", string(required)).
			Msg("role requirement not met")
		return domain.ErrForbidden
	}
	return nil
}

// RequireOwner returns ErrForbidden unless the identity owns the
// conversation. Every sharing mutation passes through here.
func (a *Authorizer) RequireOwner(identity domain.Identity, conversation *domain.Conversation) error {
	if conversation.OwnerID != identity.ID {
		a.log.Debug().
			Str("user_id", identity.ID).
			Str("conversation_id", conversation.ID).
			Msg("ownership requirement not met")
		return domain.ErrForbidden
	}
	return nil
}

// CanAccessConversation reports whether the identity may read the
// conversation: the owner always can, anyone else needs membership in at
// least one group of the sharing set.
func (a *Authorizer) CanAccessConversation(ctx context.Context, identity domain.Identity, conversation *domain.Conversation) (bool, error) {
	if conversation.OwnerID == identity.ID {
		return true, nil
	}
	if len(conversation.SharedGroupIDs) == 0 {
		return false, nil
	}

	groupIDs, err := a.groups.ListIDsByMember(ctx, identity.ID)
	if err != nil {
		return false, fmt.Errorf("authorize: membership lookup: %w", err)
	}

	shared := make(map[string]struct{}, len(conversation.SharedGroupIDs))
	for _, id := range conversation.SharedGroupIDs {
		shared[id] = struct{}{}
	}
	for _, id := range groupIDs {
		if _, ok := shared[id]; ok {
			return true, nil
		}
	}
	return false, nil
}
