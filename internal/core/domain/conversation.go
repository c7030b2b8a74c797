package domain

import (
	"errors"
	"time"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Chat roles distinguish who authored a message inside a conversation.
// Unrelated to the privilege Role of an identity.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the shareable aggregate. GroupID is the organizing
// association (which group the conversation is filed under, at most one);
// SharedGroupIDs is the access-granting set and behaves like a set even
// though it is stored as an ordered slice.
type Conversation struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	GroupID        *string   `json:"group_id,omitempty"`
	SharedGroupIDs []string  `json:"shared_group_ids"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SharedWith reports whether the conversation is shared with a group.
func (c *Conversation) SharedWith(groupID string) bool {
	for _, id := range c.SharedGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// ShareWith adds groups to the sharing set, ignoring ones already present.
// Returns how many were actually added.
func (c *Conversation) ShareWith(groupIDs ...string) int {
	added := 0
	for _, id := range groupIDs {
		if id == "" || c.SharedWith(id) {
			continue
		}
		c.SharedGroupIDs = append(c.SharedGroupIDs, id)
		added++
	}
	return added
}

// Unshare removes groups from the sharing set. Groups not present are
// ignored. Returns how many were actually removed.
func (c *Conversation) Unshare(groupIDs ...string) int {
	if len(c.SharedGroupIDs) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		drop[id] = struct{}{}
	}
	kept := c.SharedGroupIDs[:0]
	removed := 0
	for _, id := range c.SharedGroupIDs {
		if _, gone := drop[id]; gone {
			removed++
			continue
		}
		kept = append(kept, id)
	}
	c.SharedGroupIDs = kept
	return removed
}

// ReplaceShares swaps the whole sharing set for a new one. Duplicates in
// the input collapse; an empty input clears all sharing.
func (c *Conversation) ReplaceShares(groupIDs []string) {
	c.SharedGroupIDs = dedupe(groupIDs)
}

// dedupe removes duplicates and empty entries, preserving first-seen order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
