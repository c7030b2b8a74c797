package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quillchat/chat-platform/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubGroups struct {
	byID          map[string]*domain.Group
	memberOf      map[string][]string // user id -> group ids
	membershipErr error
	lookups       int
}

func newStubGroups() *stubGroups {
	return &stubGroups{
		byID:     make(map[string]*domain.Group),
		memberOf: make(map[string][]string),
	}
}

func (s *stubGroups) Create(_ context.Context, group *domain.Group) (*domain.Group, error) {
	clone := *group
	s.byID[group.ID] = &clone
	return group, nil
}

func (s *stubGroups) FindByID(_ context.Context, id string) (*domain.Group, error) {
	if g, ok := s.byID[id]; ok {
		clone := *g
		return &clone, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (s *stubGroups) List(_ context.Context) ([]*domain.Group, error) {
	out := make([]*domain.Group, 0, len(s.byID))
	for _, g := range s.byID {
		clone := *g
		out = append(out, &clone)
	}
	return out, nil
}

func (s *stubGroups) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubGroups) ListIDsByMember(_ context.Context, userID string) ([]string, error) {
	s.lookups++
	if s.membershipErr != nil {
		return nil, s.membershipErr
	}
	return s.memberOf[userID], nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func identityWithRole(id string, role domain.Role) domain.Identity {
	return domain.Identity{ID: id, Role: role, Status: domain.StatusActive}
}

func TestAuthorizer_RequireRole(t *testing.T) {
	authz := NewAuthorizer(newStubGroups(), zerolog.Nop())

	cases := []struct {
		name     string
		actor    domain.Role
		required domain.Role
		allowed  bool
	}{
		{"user meets user", domain.RoleUser, domain.RoleUser, true},
		{"user denied manager", domain.RoleUser, domain.RoleManager, false},
		{"manager meets manager", domain.RoleManager, domain.RoleManager, true},
		{"manager denied root", domain.RoleManager, domain.RoleRoot, false},
		{"root meets everything", domain.RoleRoot, domain.RoleUser, true},
		{"unknown actor denied", domain.Role("superadmin"), domain.RoleUser, false},
		{"unknown requirement denied", domain.RoleRoot, domain.Role("owner"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.RequireRole(identityWithRole("u1", tc.actor), tc.required)
			if tc.allowed && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestAuthorizer_RequireOwner(t *testing.T) {
	authz := NewAuthorizer(newStubGroups(), zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1"}

	if err := authz.RequireOwner(identityWithRole("u1", domain.RoleUser), conv); err != nil {
		t.Fatalf("expected owner to pass, got %v", err)
	}
	// Even root does not own other people's conversations.
	if err := authz.RequireOwner(identityWithRole("u2", domain.RoleRoot), conv); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizer_CanAccessConversation_Owner(t *testing.T) {
	groups := newStubGroups()
	authz := NewAuthorizer(groups, zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1", SharedGroupIDs: []string{"g1"}}

	ok, err := authz.CanAccessConversation(context.Background(), identityWithRole("u1", domain.RoleUser), conv)
	if err != nil || !ok {
		t.Fatalf("expected owner access, got ok=%v err=%v", ok, err)
	}
	if groups.lookups != 0 {
		t.Fatalf("expected no membership lookup for the owner")
	}
}

func TestAuthorizer_CanAccessConversation_UnsharedPrivate(t *testing.T) {
	groups := newStubGroups()
	authz := NewAuthorizer(groups, zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1"}

	ok, err := authz.CanAccessConversation(context.Background(), identityWithRole("u2", domain.RoleRoot), conv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected private conversation to stay private")
	}
	if groups.lookups != 0 {
		t.Fatalf("expected no membership lookup for an empty sharing set")
	}
}

func TestAuthorizer_CanAccessConversation_SharedGroupMember(t *testing.T) {
	groups := newStubGroups()
	groups.memberOf["u2"] = []string{"g9", "g1"}
	authz := NewAuthorizer(groups, zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1", SharedGroupIDs: []string{"g1", "g2"}}

	ok, err := authz.CanAccessConversation(context.Background(), identityWithRole("u2", domain.RoleUser), conv)
	if err != nil || !ok {
		t.Fatalf("expected shared access, got ok=%v err=%v", ok, err)
	}
}

func TestAuthorizer_CanAccessConversation_NoOverlap(t *testing.T) {
	groups := newStubGroups()
	groups.memberOf["u2"] = []string{"g9"}
	authz := NewAuthorizer(groups, zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1", SharedGroupIDs: []string{"g1"}}

	ok, err := authz.CanAccessConversation(context.Background(), identityWithRole("u2", domain.RoleUser), conv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no access without group overlap")
	}
}

func TestAuthorizer_CanAccessConversation_LookupError(t *testing.T) {
	groups := newStubGroups()
	groups.membershipErr = errors.New("mongo down")
	authz := NewAuthorizer(groups, zerolog.Nop())
	conv := &domain.Conversation{ID: "c1", OwnerID: "u1", SharedGroupIDs: []string{"g1"}}

	if _, err := authz.CanAccessConversation(context.Background(), identityWithRole("u2", domain.RoleUser), conv); err == nil {
		t.Fatalf("expected membership lookup error to propagate")
	}
}
