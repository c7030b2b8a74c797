package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
	"github.com/quillchat/chat-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCascade struct {
	tasks []ports.UnshareTask
}

func (s *stubCascade) Enqueue(task ports.UnshareTask) {
	s.tasks = append(s.tasks, task)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newGroupSvc(groups *stubGroups, convs *stubConversations, cascade *stubCascade) ports.GroupService {
	authz := NewAuthorizer(groups, zerolog.Nop())
	return NewGroupService(groups, convs, authz, cascade, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestGroupService_Create_RequiresManager(t *testing.T) {
	groups := newStubGroups()
	svc := newGroupSvc(groups, newStubConversations(), &stubCascade{})

	_, err := svc.Create(context.Background(), ports.CreateGroupInput{
		Actor: identityWithRole("u1", domain.RoleUser),
		Name:  "engineering",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for plain user, got %v", err)
	}
	if len(groups.byID) != 0 {
		t.Fatalf("expected no group created")
	}

	group, err := svc.Create(context.Background(), ports.CreateGroupInput{
		Actor: identityWithRole("m1", domain.RoleManager),
		Name:  "  engineering  ",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if group.Name != "engineering" {
		t.Fatalf("expected trimmed name, got %q", group.Name)
	}
	if group.OwnerID != "m1" {
		t.Fatalf("expected owner m1, got %s", group.OwnerID)
	}
	if group.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestGroupService_Create_DeduplicatesMembership(t *testing.T) {
	svc := newGroupSvc(newStubGroups(), newStubConversations(), &stubCascade{})

	group, err := svc.Create(context.Background(), ports.CreateGroupInput{
		Actor:      identityWithRole("m1", domain.RoleManager),
		Name:       "ops",
		MemberIDs:  []string{"a", "a", "b", ""},
		ManagerIDs: []string{"c", "c"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(group.MemberIDs) != 2 {
		t.Fatalf("expected deduplicated members, got %v", group.MemberIDs)
	}
	if len(group.ManagerIDs) != 1 {
		t.Fatalf("expected deduplicated managers, got %v", group.ManagerIDs)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestGroupService_Delete_OwnerCascades(t *testing.T) {
	groups := newStubGroups()
	convs := newStubConversations()
	cascade := &stubCascade{}
	seedGroup(groups, "g1")
	groups.byID["g1"].OwnerID = "m1"

	// One conversation filed under the group, two sharing with it.
	seedConversation(convs, "filed", "m1")
	gid := "g1"
	convs.byID["filed"].GroupID = &gid
	seedConversation(convs, "s1", "u1", "g1")
	seedConversation(convs, "s2", "u2", "g1", "g2")

	svc := newGroupSvc(groups, convs, cascade)
	if err := svc.Delete(context.Background(), identityWithRole("m1", domain.RoleManager), "g1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, ok := groups.byID["g1"]; ok {
		t.Fatalf("expected group removed")
	}
	if convs.byID["filed"].GroupID != nil {
		t.Fatalf("expected organizing association cleared synchronously")
	}
	if len(cascade.tasks) != 2 {
		t.Fatalf("expected 2 unshare tasks, got %d", len(cascade.tasks))
	}
	for _, task := range cascade.tasks {
		if task.GroupID != "g1" {
			t.Fatalf("expected tasks for g1, got %s", task.GroupID)
		}
	}
}

func TestGroupService_Delete_RootOverride(t *testing.T) {
	groups := newStubGroups()
	seedGroup(groups, "g1")
	groups.byID["g1"].OwnerID = "m1"

	svc := newGroupSvc(groups, newStubConversations(), &stubCascade{})
	if err := svc.Delete(context.Background(), identityWithRole("admin", domain.RoleRoot), "g1"); err != nil {
		t.Fatalf("expected root to delete any group, got %v", err)
	}
}

func TestGroupService_Delete_NonOwnerForbidden(t *testing.T) {
	groups := newStubGroups()
	cascade := &stubCascade{}
	seedGroup(groups, "g1")
	groups.byID["g1"].OwnerID = "m1"

	svc := newGroupSvc(groups, newStubConversations(), cascade)
	err := svc.Delete(context.Background(), identityWithRole("m2", domain.RoleManager), "g1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner manager, got %v", err)
	}
	if _, ok := groups.byID["g1"]; !ok {
		t.Fatalf("expected group untouched")
	}
	if len(cascade.tasks) != 0 {
		t.Fatalf("expected no cascade, got %d tasks", len(cascade.tasks))
	}
}

func TestGroupService_Delete_UnknownGroup(t *testing.T) {
	svc := newGroupSvc(newStubGroups(), newStubConversations(), &stubCascade{})
	err := svc.Delete(context.Background(), identityWithRole("admin", domain.RoleRoot), "ghost")
	if !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestGroupService_Delete_ClearAssociationFailureAborts(t *testing.T) {
	groups := newStubGroups()
	convs := newStubConversations()
	cascade := &stubCascade{}
	seedGroup(groups, "g1")
	groups.byID["g1"].OwnerID = "m1"
	convs.clearErr = errors.New("mongo down")

	svc := newGroupSvc(groups, convs, cascade)
	err := svc.Delete(context.Background(), identityWithRole("m1", domain.RoleManager), "g1")
	if err == nil {
		t.Fatalf("expected error when association clear fails")
	}
	// The group must survive so a retry can finish the job.
	if _, ok := groups.byID["g1"]; !ok {
		t.Fatalf("expected group untouched after failed cascade")
	}
	if len(cascade.tasks) != 0 {
		t.Fatalf("expected no cascade, got %d tasks", len(cascade.tasks))
	}
}

func TestGroupService_Delete_SharedLookupFailureProceeds(t *testing.T) {
	groups := newStubGroups()
	convs := newStubConversations()
	cascade := &stubCascade{}
	seedGroup(groups, "g1")
	groups.byID["g1"].OwnerID = "m1"
	seedConversation(convs, "s1", "u1", "g1")
	convs.listSharedErr = errors.New("mongo hiccup")

	// Sharing cleanup is best effort, so the delete still goes through.
	svc := newGroupSvc(groups, convs, cascade)
	if err := svc.Delete(context.Background(), identityWithRole("m1", domain.RoleManager), "g1"); err != nil {
		t.Fatalf("expected delete to proceed, got %v", err)
	}
	if _, ok := groups.byID["g1"]; ok {
		t.Fatalf("expected group removed")
	}
	if len(cascade.tasks) != 0 {
		t.Fatalf("expected no tasks without the fan-out list, got %d", len(cascade.tasks))
	}
}
