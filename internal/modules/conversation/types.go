package conversation

import (
	"github.com/threadsync/core/internal/models"
)

// SubmitCommentDTO creates a new top-level comment. The client may supply
// its own id so a retried submit stays idempotent; the server generates one
// otherwise.
type SubmitCommentDTO struct {
	ID      string                  `json:"id"`
	Content []models.CommentSegment `json:"content" binding:"required"`
}

// ReplyDTO creates a reply under an existing top-level comment.
type ReplyDTO struct {
	ID      string                  `json:"id"`
	Content []models.CommentSegment `json:"content" binding:"required"`
}

// EditCommentDTO replaces a comment's content.
type EditCommentDTO struct {
	ParentID   string                  `json:"parentCommentId"`
	NewContent []models.CommentSegment `json:"newContent" binding:"required"`
}

// UpvoteDTO adds or removes the caller's upvote. The action is explicit so
// retries cannot toggle.
type UpvoteDTO struct {
	Action   UpvoteAction `json:"action" binding:"required,oneof=add remove"`
	ParentID string       `json:"parentCommentId"`
}

// conversationResponse is the decoded view of one conversation.
type conversationResponse struct {
	ItemType string           `json:"itemType"`
	ItemID   string           `json:"itemId"`
	Comments []models.Comment `json:"comments"`
	Dirty    bool             `json:"dirty"`
}

// operationResponse reports how a submitted operation landed, alongside the
// resulting tree so the client can render without a follow-up fetch.
type operationResponse struct {
	Status   ApplyStatus      `json:"status"`
	Comments []models.Comment `json:"comments"`
}

// UpdateEvent is the realtime payload published after every persist.
type UpdateEvent struct {
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Payload  string `json:"payload"`
}

// RoomFor names the realtime room of one CMS item's conversation.
func RoomFor(itemType, itemID string) string {
	return "conversation:" + itemType + ":" + itemID
}
