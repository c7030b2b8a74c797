package ports

import "github.com/quillchat/chat-platform/internal/core/domain"

// SessionRegistry tracks live sessions in memory. Implementations must be
// safe for concurrent use. Methods take no context because every operation
// is a quick in-process map access, never I/O.
type SessionRegistry interface {
	// Register stores a session under its id, replacing any previous entry.
	Register(s domain.Session)
	// Get returns the session if present and unexpired. Expired entries are
	// removed on the way out, so a Get can mutate the registry.
	Get(id string) (domain.Session, bool)
	// IsValid reports whether a session exists and is unexpired.
	IsValid(id string) bool
	// ListActive snapshots all live sessions, dropping expired ones.
	ListActive() []domain.Session
	// Revoke removes a session. Reports whether one was actually removed;
	// revoking an expired or unknown id reports false.
	Revoke(id string) bool
	// RevokeAll clears the registry and returns how many live sessions fell.
	RevokeAll() int
	// RevokeByUser removes every session belonging to the user and returns
	// how many live sessions fell.
	RevokeByUser(userID string) int
	// ActiveCount returns the number of live sessions without mutating
	// anything. Used for gauges; may overcount by entries not yet swept.
	ActiveCount() int
}
