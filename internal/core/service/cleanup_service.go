package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/ports"
)

type cleanupService struct {
	conversations ports.ConversationStore
	log           zerolog.Logger
}

// NewCleanupService returns the CleanupService run by the cascade workers.
func NewCleanupService(conversations ports.ConversationStore, log zerolog.Logger) ports.CleanupService {
	return &cleanupService{conversations: conversations, log: log}
}

// Process drops one dead group from one conversation's sharing set. The
// pull is atomic at the store, so a conversation deleted or already
// cleaned in the meantime is a quiet no-op.
func (s *cleanupService) Process(ctx context.Context, task ports.UnshareTask) error {
	removed, err := s.conversations.PullSharedGroup(ctx, task.ConversationID, task.GroupID)
	if err != nil {
		return fmt.Errorf("cleanup: pull share: %w", err)
	}
	if removed {
		s.log.Debug().
			Str("conversation_id", task.ConversationID).
			Str("group_id", task.GroupID).
			Msg("stale share removed")
	}
	return nil
}
