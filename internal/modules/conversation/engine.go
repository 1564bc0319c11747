package conversation

import (
	"reflect"

	"github.com/threadsync/core/internal/models"
)

// OperationType discriminates the mutation vocabulary over the comment tree.
type OperationType string

const (
	OpAddComment    OperationType = "addComment"
	OpDeleteComment OperationType = "deleteComment"
	OpEditComment   OperationType = "editComment"
	OpUpvoteComment OperationType = "upvoteComment"
	OpAddReply      OperationType = "addReply"
)

// UpvoteAction is explicit (never a toggle) so replaying an operation is
// safe.
type UpvoteAction string

const (
	UpvoteAdd    UpvoteAction = "add"
	UpvoteRemove UpvoteAction = "remove"
)

// Operation is an atomic, replay-safe mutation intent against the comment
// tree. Every operation is self-contained.
type Operation struct {
	Type       OperationType           `json:"type"`
	Comment    *models.Comment         `json:"comment,omitempty"`
	Reply      *models.Comment         `json:"reply,omitempty"`
	CommentID  string                  `json:"commentId,omitempty"`
	ParentID   string                  `json:"parentCommentId,omitempty"`
	NewContent []models.CommentSegment `json:"newContent,omitempty"`
	Action     UpvoteAction            `json:"action,omitempty"`
	User       *models.CommentAuthor   `json:"user,omitempty"`
}

// ApplyStatus reports how an operation landed.
type ApplyStatus string

const (
	StatusApplied       ApplyStatus = "applied"
	StatusNoOp          ApplyStatus = "no_op_idempotent"
	StatusParentMissing ApplyStatus = "failed_parent_missing"
	StatusTargetMissing ApplyStatus = "failed_target_missing"
)

// Result is the outcome of applying an operation. Comments always holds a
// usable tree, even on failure (the input, unchanged).
type Result struct {
	Comments      []models.Comment `json:"comments"`
	Status        ApplyStatus      `json:"status"`
	FailureReason string           `json:"failureReason,omitempty"`
}

// Apply applies an operation to a comment tree and returns the new tree.
// Application is idempotent: replaying an operation that the tree already
// reflects is a no-op, not an error and not a duplicate. The input slice is
// never mutated.
func Apply(comments []models.Comment, op Operation) Result {
	switch op.Type {
	case OpAddComment:
		return applyAdd(comments, op)
	case OpAddReply:
		return applyAddReply(comments, op)
	case OpDeleteComment:
		return applyDelete(comments, op)
	case OpEditComment:
		return applyEdit(comments, op)
	case OpUpvoteComment:
		return applyUpvote(comments, op)
	}
	return Result{Comments: comments, Status: StatusTargetMissing, FailureReason: "unknown operation type"}
}

func applyAdd(comments []models.Comment, op Operation) Result {
	if op.Comment == nil {
		return Result{Comments: comments, Status: StatusTargetMissing, FailureReason: "missing comment"}
	}
	if findTopLevel(comments, op.Comment.ID) >= 0 {
		return Result{Comments: comments, Status: StatusNoOp}
	}
	// newest first by convention
	next := make([]models.Comment, 0, len(comments)+1)
	next = append(next, *op.Comment)
	next = append(next, comments...)
	return Result{Comments: next, Status: StatusApplied}
}

func applyAddReply(comments []models.Comment, op Operation) Result {
	if op.Reply == nil {
		return Result{Comments: comments, Status: StatusTargetMissing, FailureReason: "missing reply"}
	}
	pi := findTopLevel(comments, op.ParentID)
	if pi < 0 {
		return Result{Comments: comments, Status: StatusParentMissing, FailureReason: "parent comment no longer exists"}
	}
	if comments[pi].FindReply(op.Reply.ID) >= 0 {
		return Result{Comments: comments, Status: StatusNoOp}
	}

	next := cloneComments(comments)
	reply := *op.Reply
	reply.ParentID = op.ParentID
	reply.Replies = nil
	next[pi].Replies = append(next[pi].Replies, reply)
	return Result{Comments: next, Status: StatusApplied}
}

func applyDelete(comments []models.Comment, op Operation) Result {
	if op.ParentID != "" {
		pi := findTopLevel(comments, op.ParentID)
		if pi < 0 {
			return Result{Comments: comments, Status: StatusParentMissing, FailureReason: "parent comment no longer exists"}
		}
		ri := comments[pi].FindReply(op.CommentID)
		if ri < 0 {
			// already deleted
			return Result{Comments: comments, Status: StatusNoOp}
		}
		next := cloneComments(comments)
		next[pi].Replies = append(next[pi].Replies[:ri], next[pi].Replies[ri+1:]...)
		return Result{Comments: next, Status: StatusApplied}
	}

	ti := findTopLevel(comments, op.CommentID)
	if ti < 0 {
		return Result{Comments: comments, Status: StatusNoOp}
	}
	next := cloneComments(comments)
	next = append(next[:ti], next[ti+1:]...)
	return Result{Comments: next, Status: StatusApplied}
}

func applyEdit(comments []models.Comment, op Operation) Result {
	next, target, status := locateForWrite(comments, op.CommentID, op.ParentID)
	if status != StatusApplied {
		return Result{Comments: comments, Status: status, FailureReason: failureReasonFor(status)}
	}
	if reflect.DeepEqual(target.Content, op.NewContent) {
		return Result{Comments: comments, Status: StatusNoOp}
	}
	// author, timestamp and id stay untouched
	target.Content = op.NewContent
	return Result{Comments: next, Status: StatusApplied}
}

func applyUpvote(comments []models.Comment, op Operation) Result {
	if op.User == nil {
		return Result{Comments: comments, Status: StatusTargetMissing, FailureReason: "missing user"}
	}
	next, target, status := locateForWrite(comments, op.CommentID, op.ParentID)
	if status != StatusApplied {
		return Result{Comments: comments, Status: status, FailureReason: failureReasonFor(status)}
	}

	has := target.HasUpvote(*op.User)
	switch op.Action {
	case UpvoteAdd:
		if has {
			return Result{Comments: comments, Status: StatusNoOp}
		}
		target.Upvotes = append(append([]models.CommentAuthor{}, target.Upvotes...), *op.User)
	case UpvoteRemove:
		if !has {
			return Result{Comments: comments, Status: StatusNoOp}
		}
		kept := make([]models.CommentAuthor, 0, len(target.Upvotes))
		for _, u := range target.Upvotes {
			if u.Email != op.User.Email {
				kept = append(kept, u)
			}
		}
		target.Upvotes = kept
	default:
		return Result{Comments: comments, Status: StatusTargetMissing, FailureReason: "unknown upvote action"}
	}
	return Result{Comments: next, Status: StatusApplied}
}

// locateForWrite clones the tree and returns a pointer to the target
// comment inside the clone, honoring the parent-first missing rules.
func locateForWrite(comments []models.Comment, id, parentID string) ([]models.Comment, *models.Comment, ApplyStatus) {
	if parentID != "" {
		pi := findTopLevel(comments, parentID)
		if pi < 0 {
			return nil, nil, StatusParentMissing
		}
		ri := comments[pi].FindReply(id)
		if ri < 0 {
			return nil, nil, StatusTargetMissing
		}
		next := cloneComments(comments)
		return next, &next[pi].Replies[ri], StatusApplied
	}

	ti := findTopLevel(comments, id)
	if ti < 0 {
		return nil, nil, StatusTargetMissing
	}
	next := cloneComments(comments)
	return next, &next[ti], StatusApplied
}

func failureReasonFor(status ApplyStatus) string {
	switch status {
	case StatusParentMissing:
		return "parent comment no longer exists"
	case StatusTargetMissing:
		return "comment no longer exists"
	}
	return ""
}

func findTopLevel(comments []models.Comment, id string) int {
	for i := range comments {
		if comments[i].ID == id {
			return i
		}
	}
	return -1
}

// cloneComments copies the top-level slice and every reply/upvote slice so
// callers can mutate the clone without touching the input.
func cloneComments(comments []models.Comment) []models.Comment {
	next := make([]models.Comment, len(comments))
	copy(next, comments)
	for i := range next {
		if next[i].Replies != nil {
			next[i].Replies = append([]models.Comment{}, next[i].Replies...)
		}
		if next[i].Upvotes != nil {
			next[i].Upvotes = append([]models.CommentAuthor{}, next[i].Upvotes...)
		}
	}
	return next
}
