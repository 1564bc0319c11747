package models

import (
	"encoding/json"
	"time"
)

// CommentAuthor identifies a comment author or upvoter by name and email.
// Upvoter lists have set semantics keyed by email.
type CommentAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Comment is one node of the two-level conversation tree. Only top-level
// comments carry replies; a reply never carries replies of its own. Replies
// carry ParentID, top-level comments do not.
type Comment struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	Author    CommentAuthor    `json:"author"`
	Content   []CommentSegment `json:"content"`
	Upvotes   []CommentAuthor  `json:"upvotes,omitempty"`
	Replies   []Comment        `json:"replies,omitempty"`
	ParentID  string           `json:"parentCommentId,omitempty"`
}

// commentAlias avoids UnmarshalJSON recursion.
type commentAlias Comment

// UnmarshalJSON tolerates legacy payloads that predate stable identifiers,
// where the creation timestamp doubled as the id. Both fields stay explicit;
// no silent migration is attempted, and parentCommentId links are only
// guaranteed stable for post-migration data.
func (c *Comment) UnmarshalJSON(data []byte) error {
	var a commentAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Comment(a)
	if c.ID == "" && !c.CreatedAt.IsZero() {
		c.ID = c.CreatedAt.Format(time.RFC3339)
	}
	return nil
}

// HasUpvote reports whether the given user already upvoted the comment.
func (c *Comment) HasUpvote(user CommentAuthor) bool {
	for _, u := range c.Upvotes {
		if u.Email == user.Email {
			return true
		}
	}
	return false
}

// FindReply returns the index of the reply with the given id, or -1.
func (c *Comment) FindReply(id string) int {
	for i := range c.Replies {
		if c.Replies[i].ID == id {
			return i
		}
	}
	return -1
}
