package domain

import (
	"errors"
	"time"
)

var ErrGroupNotFound = errors.New("group not found")

// Group is a named collection of identities used as the unit of sharing.
// Conversations are shared with groups, never with individual users.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	MemberIDs  []string  `json:"member_ids"`
	ManagerIDs []string  `json:"manager_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasMember reports whether a user belongs to the group in any capacity:
// owner, manager or plain member.
func (g *Group) HasMember(userID string) bool {
	if g.OwnerID == userID {
		return true
	}
	for _, id := range g.ManagerIDs {
		if id == userID {
			return true
		}
	}
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Normalize deduplicates the membership lists in place, preserving order.
func (g *Group) Normalize() {
	g.MemberIDs = dedupe(g.MemberIDs)
	g.ManagerIDs = dedupe(g.ManagerIDs)
}
