package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadsync/core/internal/models"
)

var (
	alice = models.CommentAuthor{Name: "Alice", Email: "alice@example.com"}
	bob   = models.CommentAuthor{Name: "Bob", Email: "bob@example.com"}
)

func makeComment(id string, author models.CommentAuthor, text string) models.Comment {
	return models.Comment{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Author:    author,
		Content:   []models.CommentSegment{models.TextSegment(text)},
	}
}

func seedTree() []models.Comment {
	c1 := makeComment("c1", alice, "first")
	r1 := makeComment("r1", bob, "a reply")
	r1.ParentID = "c1"
	c1.Replies = []models.Comment{r1}
	return []models.Comment{c1, makeComment("c2", bob, "second")}
}

func TestAddCommentIsIdempotentByID(t *testing.T) {
	tree := seedTree()
	c3 := makeComment("c3", alice, "third")

	op := Operation{Type: OpAddComment, Comment: &c3}
	first := Apply(tree, op)
	require.Equal(t, StatusApplied, first.Status)
	require.Len(t, first.Comments, 3)
	// newest first
	assert.Equal(t, "c3", first.Comments[0].ID)

	second := Apply(first.Comments, op)
	assert.Equal(t, StatusNoOp, second.Status)
	assert.Equal(t, first.Comments, second.Comments)
}

func TestAddReply(t *testing.T) {
	tree := seedTree()
	r2 := makeComment("r2", alice, "another reply")

	op := Operation{Type: OpAddReply, ParentID: "c1", Reply: &r2}
	first := Apply(tree, op)
	require.Equal(t, StatusApplied, first.Status)
	require.Len(t, first.Comments[0].Replies, 2)
	assert.Equal(t, "c1", first.Comments[0].Replies[1].ParentID)

	second := Apply(first.Comments, op)
	assert.Equal(t, StatusNoOp, second.Status)

	missing := Apply(tree, Operation{Type: OpAddReply, ParentID: "gone", Reply: &r2})
	assert.Equal(t, StatusParentMissing, missing.Status)
}

func TestDeleteComment(t *testing.T) {
	tree := seedTree()

	op := Operation{Type: OpDeleteComment, CommentID: "c2"}
	first := Apply(tree, op)
	require.Equal(t, StatusApplied, first.Status)
	require.Len(t, first.Comments, 1)

	// already deleted: no-op, not an error
	second := Apply(first.Comments, op)
	assert.Equal(t, StatusNoOp, second.Status)
}

func TestDeleteReplyHonorsParentRules(t *testing.T) {
	tree := seedTree()

	withParent := Apply(tree, Operation{Type: OpDeleteComment, CommentID: "r1", ParentID: "c1"})
	require.Equal(t, StatusApplied, withParent.Status)
	assert.Empty(t, withParent.Comments[0].Replies)

	again := Apply(withParent.Comments, Operation{Type: OpDeleteComment, CommentID: "r1", ParentID: "c1"})
	assert.Equal(t, StatusNoOp, again.Status)

	orphan := Apply(tree, Operation{Type: OpDeleteComment, CommentID: "r1", ParentID: "nope"})
	assert.Equal(t, StatusParentMissing, orphan.Status)
}

func TestEditComment(t *testing.T) {
	tree := seedTree()
	newContent := []models.CommentSegment{models.TextSegment("edited")}

	op := Operation{Type: OpEditComment, CommentID: "c2", NewContent: newContent}
	first := Apply(tree, op)
	require.Equal(t, StatusApplied, first.Status)

	edited := first.Comments[1]
	assert.Equal(t, newContent, edited.Content)
	// author, timestamp and id are untouched
	assert.Equal(t, bob, edited.Author)
	assert.Equal(t, tree[1].CreatedAt, edited.CreatedAt)

	replay := Apply(first.Comments, op)
	assert.Equal(t, StatusNoOp, replay.Status)

	gone := Apply(first.Comments, Operation{Type: OpEditComment, CommentID: "nope", NewContent: newContent})
	assert.Equal(t, StatusTargetMissing, gone.Status)
}

func TestConcurrentDeleteThenEditConflict(t *testing.T) {
	tree := seedTree()

	// client A deletes the thread root
	deleted := Apply(tree, Operation{Type: OpDeleteComment, CommentID: "c1"})
	require.Equal(t, StatusApplied, deleted.Status)

	// client B's concurrent edit of the reply resolves as a parent conflict
	edit := Apply(deleted.Comments, Operation{
		Type:       OpEditComment,
		CommentID:  "r1",
		ParentID:   "c1",
		NewContent: []models.CommentSegment{models.TextSegment("too late")},
	})
	assert.Equal(t, StatusParentMissing, edit.Status)
	assert.NotEmpty(t, edit.FailureReason)
}

func TestUpvoteAddIsIdempotent(t *testing.T) {
	tree := seedTree()

	op := Operation{Type: OpUpvoteComment, CommentID: "c2", Action: UpvoteAdd, User: &alice}
	first := Apply(tree, op)
	require.Equal(t, StatusApplied, first.Status)
	require.Len(t, first.Comments[1].Upvotes, 1)

	second := Apply(first.Comments, op)
	assert.Equal(t, StatusNoOp, second.Status)
	assert.Len(t, second.Comments[1].Upvotes, 1)
}

func TestUpvoteRemove(t *testing.T) {
	tree := seedTree()
	added := Apply(tree, Operation{Type: OpUpvoteComment, CommentID: "c2", Action: UpvoteAdd, User: &alice})
	require.Equal(t, StatusApplied, added.Status)

	removed := Apply(added.Comments, Operation{Type: OpUpvoteComment, CommentID: "c2", Action: UpvoteRemove, User: &alice})
	require.Equal(t, StatusApplied, removed.Status)
	assert.Empty(t, removed.Comments[1].Upvotes)

	again := Apply(removed.Comments, Operation{Type: OpUpvoteComment, CommentID: "c2", Action: UpvoteRemove, User: &alice})
	assert.Equal(t, StatusNoOp, again.Status)
}

func TestUpvoteReplyWithMissingParent(t *testing.T) {
	tree := seedTree()
	res := Apply(tree, Operation{Type: OpUpvoteComment, CommentID: "r1", ParentID: "gone", Action: UpvoteAdd, User: &alice})
	assert.Equal(t, StatusParentMissing, res.Status)
}

func TestApplyNeverMutatesInput(t *testing.T) {
	tree := seedTree()

	_ = Apply(tree, Operation{Type: OpDeleteComment, CommentID: "c1"})
	_ = Apply(tree, Operation{Type: OpUpvoteComment, CommentID: "c2", Action: UpvoteAdd, User: &alice})
	_ = Apply(tree, Operation{Type: OpEditComment, CommentID: "c2", NewContent: []models.CommentSegment{models.TextSegment("x")}})

	require.Len(t, tree, 2)
	assert.Equal(t, "c1", tree[0].ID)
	assert.Len(t, tree[0].Replies, 1)
	assert.Empty(t, tree[1].Upvotes)
	assert.Equal(t, "second", models.PlainText(tree[1].Content))
}
