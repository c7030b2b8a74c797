package handler

import "github.com/quillchat/chat-platform/internal/core/domain"

type createConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// shareRequest mutates the sharing set. Share and unshare demand at least
// one group id; replacing uses replaceSharesRequest which allows an empty
// set to clear all sharing at once.
type shareRequest struct {
	GroupIDs []string `json:"group_ids" validate:"required,min=1,dive,required"`
}

type replaceSharesRequest struct {
	GroupIDs []string `json:"group_ids" validate:"dive,required"`
}

type moveToGroupRequest struct {
	GroupID *string `json:"group_id"`
}

type appendMessageRequest struct {
	Role    string `json:"role"    validate:"omitempty,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=32768"`
}

type conversationListResponse struct {
	Conversations []*domain.Conversation `json:"conversations"`
	Count         int                    `json:"count"`
}
