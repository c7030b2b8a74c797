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

// CascadeQueue abstracts the background dispatcher that fans group
// deletion out into per-conversation unshare tasks.
type CascadeQueue interface {
	Enqueue(task ports.UnshareTask)
}

type groupService struct {
	groups        ports.GroupStore
	conversations ports.ConversationStore
	authz         *Authorizer
	cascade       CascadeQueue
	log           zerolog.Logger
}

// NewGroupService returns a GroupService implementation.
func NewGroupService(
	groups ports.GroupStore,
	conversations ports.ConversationStore,
	authz *Authorizer,
	cascade CascadeQueue,
	log zerolog.Logger,
) ports.GroupService {
	return &groupService{
		groups:        groups,
		conversations: conversations,
		authz:         authz,
		cascade:       cascade,
		log:           log,
	}
}

// Create makes a new group owned by the actor. Managers and up only.
func (s *groupService) Create(ctx context.Context, in ports.CreateGroupInput) (*domain.Group, error) {
	if err := s.authz.RequireRole(in.Actor, domain.RoleManager); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	group := &domain.Group{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		OwnerID:    in.Actor.ID,
		MemberIDs:  in.MemberIDs,
		ManagerIDs: in.ManagerIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	group.Normalize()

	created, err := s.groups.Create(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.log.Info().
		Str("group_id", created.ID).
		Str("owner_id", created.OwnerID).
		Msg("group created")
	return created, nil
}

func (s *groupService) List(ctx context.Context) ([]*domain.Group, error) {
	return s.groups.List(ctx)
}

// Delete removes a group and cascades. The organizing association is
// cleared synchronously so no conversation keeps pointing at a dead
// group; sharing entries are cleaned up by the background worker, best
// effort.
func (s *groupService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	// 1. Resolve and guard: the group's owner, or root.
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.ID != group.OwnerID {
		if err := s.authz.RequireRole(actor, domain.RoleRoot); err != nil {
			return err
		}
	}

	// 2. Null out the organizing association before the group disappears.
	cleared, err := s.conversations.ClearGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("delete group: clear association: %w", err)
	}

	// 3. Collect the sharing fan-out while the references still exist.
	// Failure here only delays cleanup, it never blocks the delete.
	sharedWith, err := s.conversations.ListIDsBySharedGroup(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("group_id", id).Msg("sharing cascade lookup failed, stale shares remain")
		sharedWith = nil
	}

	// 4. Drop the group itself.
	if err := s.groups.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	// 5. Queue the unshare tasks now that the group is gone.
	for _, convID := range sharedWith {
		s.cascade.Enqueue(ports.UnshareTask{ConversationID: convID, GroupID: id})
	}

	s.log.Info().
		Str("group_id", id).
		Int64("conversations_detached", cleared).
		Int("unshare_tasks", len(sharedWith)).
		Msg("group deleted")
	return nil
}
