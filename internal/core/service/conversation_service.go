package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

type conversationService struct {
	conversations ports.ConversationStore
	groups        ports.GroupStore
	authz         *Authorizer
	log           zerolog.Logger
}

// NewConversationService returns a ConversationService implementation.
func NewConversationService(
	conversations ports.ConversationStore,
	groups ports.GroupStore,
	authz *Authorizer,
	log zerolog.Logger,
) ports.ConversationService {
	return &conversationService{
		conversations: conversations,
		groups:        groups,
		authz:         authz,
		log:           log,
	}
}

func (s *conversationService) Create(ctx context.Context, in ports.CreateConversationInput) (*domain.Conversation, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "New conversation"
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:             uuid.NewString(),
		OwnerID:        in.Actor.ID,
		Title:          title,
		SharedGroupIDs: []string{},
		Messages:       []domain.Message{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.conversations.Create(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return created, nil
}

func (s *conversationService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.authz.CanAccessConversation(ctx, actor, conv)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return conv, nil
}

func (s *conversationService) List(ctx context.Context, actor domain.Identity) ([]*domain.Conversation, error) {
	groupIDs, err := s.groups.ListIDsByMember(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: membership lookup: %w", err)
	}
	return s.conversations.ListVisible(ctx, actor.ID, groupIDs)
}

// Share adds groups to the sharing set. Groups already present are
// ignored; every new grant must point at an existing group.
func (s *conversationService) Share(ctx context.Context, in ports.ShareInput) (*domain.Conversation, error) {
	conv, err := s.ownedConversation(ctx, in.Actor, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.groupsMustExist(ctx, in.GroupIDs); err != nil {
		return nil, err
	}

	if conv.ShareWith(in.GroupIDs...) == 0 {
		return conv, nil
	}
	if err := s.conversations.UpdateShares(ctx, conv.ID, conv.SharedGroupIDs); err != nil {
		return nil, fmt.Errorf("share conversation: %w", err)
	}
	conv.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("conversation_id", conv.ID).
		Int("shared_groups", len(conv.SharedGroupIDs)).
		Msg("conversation shared")
	return conv, nil
}

// Unshare removes groups from the sharing set. Groups not in the set are
// ignored, so unsharing is always idempotent.
func (s *conversationService) Unshare(ctx context.Context, in ports.ShareInput) (*domain.Conversation, error) {
	conv, err := s.ownedConversation(ctx, in.Actor, in.ConversationID)
	if err != nil {
		return nil, err
	}

	if conv.Unshare(in.GroupIDs...) == 0 {
		return conv, nil
	}
	if err := s.conversations.UpdateShares(ctx, conv.ID, conv.SharedGroupIDs); err != nil {
		return nil, fmt.Errorf("unshare conversation: %w", err)
	}
	conv.UpdatedAt = time.Now().UTC()
	return conv, nil
}

// ReplaceShares swaps the whole sharing set. An empty set is legal and
// revokes all group access at once.
func (s *conversationService) ReplaceShares(ctx context.Context, in ports.ShareInput) (*domain.Conversation, error) {
	conv, err := s.ownedConversation(ctx, in.Actor, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.groupsMustExist(ctx, in.GroupIDs); err != nil {
		return nil, err
	}

	conv.ReplaceShares(in.GroupIDs)
	if err := s.conversations.UpdateShares(ctx, conv.ID, conv.SharedGroupIDs); err != nil {
		return nil, fmt.Errorf("replace shares: %w", err)
	}
	conv.UpdatedAt = time.Now().UTC()
	return conv, nil
}

// MoveToGroup changes where the conversation is filed. Filing is
// organizational only and grants no access; a nil group detaches.
func (s *conversationService) MoveToGroup(ctx context.Context, in ports.MoveToGroupInput) (*domain.Conversation, error) {
	conv, err := s.ownedConversation(ctx, in.Actor, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if in.GroupID != nil {
		if _, err := s.groups.FindByID(ctx, *in.GroupID); err != nil {
			return nil, err
		}
	}

	if err := s.conversations.SetGroup(ctx, conv.ID, in.GroupID); err != nil {
		return nil, fmt.Errorf("move conversation: %w", err)
	}
	conv.GroupID = in.GroupID
	conv.UpdatedAt = time.Now().UTC()
	return conv, nil
}

// AppendMessage adds one turn. Writing is owner-only; a shared group
// grants reading, never contribution.
func (s *conversationService) AppendMessage(ctx context.Context, in ports.AppendMessageInput) (*domain.Conversation, error) {
	conv, err := s.ownedConversation(ctx, in.Actor, in.ConversationID)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.ChatRoleUser
	}
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   in.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conversations.AppendMessage(ctx, conv.ID, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt
	return conv, nil
}

// ownedConversation loads a conversation and enforces that the actor owns
// it. Non-owners get ErrForbidden even when they hold read access.
func (s *conversationService) ownedConversation(ctx context.Context, actor domain.Identity, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireOwner(actor, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// groupsMustExist rejects grants pointing at unknown groups so the
// sharing set never references ids that were never created.
func (s *conversationService) groupsMustExist(ctx context.Context, groupIDs []string) error {
	for _, id := range groupIDs {
		if _, err := s.groups.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
