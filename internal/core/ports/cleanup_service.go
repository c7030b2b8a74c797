package ports

import "context"

// UnshareTask asks the cascade worker to drop one group from one
// conversation's sharing set after the group was deleted.
type UnshareTask struct {
	ConversationID string
	GroupID        string
}

// CleanupService processes cascade tasks queued by group deletion.
type CleanupService interface {
	Process(ctx context.Context, task UnshareTask) error
}
