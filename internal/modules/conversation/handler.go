package conversation

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/threadsync/core/internal/middleware"
	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/pkg/pagination"
	"github.com/threadsync/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/conversations")

	g.GET("", authMW, h.list)

	item := g.Group("/:itemType/:itemId")
	item.GET("", h.get)

	a := item.Group("", authMW)
	a.POST("/comments", h.submit)
	a.POST("/comments/:commentId/replies", h.reply)
	a.PATCH("/comments/:commentId", h.edit)
	a.DELETE("/comments/:commentId", h.delete)
	a.PUT("/comments/:commentId/upvote", h.upvote)
}

func (h *Handler) list(c *gin.Context) {
	rows, pag, err := h.svc.List(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, pag)
}

func (h *Handler) get(c *gin.Context) {
	comments, dirty, err := h.svc.Get(c.Request.Context(), c.Param("itemType"), c.Param("itemId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, conversationResponse{
		ItemType: c.Param("itemType"),
		ItemID:   c.Param("itemId"),
		Comments: comments,
		Dirty:    dirty,
	})
}

func (h *Handler) submit(c *gin.Context) {
	var dto SubmitCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if models.IsContentEmpty(dto.Content) {
		response.BadRequest(c, "comment content is empty")
		return
	}

	comment := models.Comment{
		ID:        dto.ID,
		CreatedAt: time.Now().UTC(),
		Author:    currentAuthor(c),
		Content:   dto.Content,
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	h.apply(c, Operation{Type: OpAddComment, Comment: &comment}, true)
}

func (h *Handler) reply(c *gin.Context) {
	var dto ReplyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if models.IsContentEmpty(dto.Content) {
		response.BadRequest(c, "comment content is empty")
		return
	}

	reply := models.Comment{
		ID:        dto.ID,
		CreatedAt: time.Now().UTC(),
		Author:    currentAuthor(c),
		Content:   dto.Content,
	}
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}

	h.apply(c, Operation{
		Type:     OpAddReply,
		ParentID: c.Param("commentId"),
		Reply:    &reply,
	}, true)
}

func (h *Handler) edit(c *gin.Context) {
	var dto EditCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if models.IsContentEmpty(dto.NewContent) {
		response.BadRequest(c, "comment content is empty")
		return
	}

	h.apply(c, Operation{
		Type:       OpEditComment,
		CommentID:  c.Param("commentId"),
		ParentID:   dto.ParentID,
		NewContent: dto.NewContent,
	}, false)
}

func (h *Handler) delete(c *gin.Context) {
	h.apply(c, Operation{
		Type:      OpDeleteComment,
		CommentID: c.Param("commentId"),
		ParentID:  c.Query("parentCommentId"),
	}, false)
}

func (h *Handler) upvote(c *gin.Context) {
	var dto UpvoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user := currentAuthor(c)
	h.apply(c, Operation{
		Type:      OpUpvoteComment,
		CommentID: c.Param("commentId"),
		ParentID:  dto.ParentID,
		Action:    dto.Action,
		User:      &user,
	}, false)
}

// apply routes the operation through the item's queue and maps the engine
// status onto the HTTP response. Conflicts come back as 409, never as a
// silently dropped write.
func (h *Handler) apply(c *gin.Context, op Operation, created bool) {
	res, err := h.svc.Submit(c.Request.Context(), c.Param("itemType"), c.Param("itemId"), op)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	switch res.Status {
	case StatusApplied:
		body := operationResponse{Status: res.Status, Comments: res.Comments}
		if created {
			response.Created(c, body)
			return
		}
		response.OK(c, body)
	case StatusNoOp:
		response.OK(c, operationResponse{Status: res.Status, Comments: res.Comments})
	case StatusParentMissing, StatusTargetMissing:
		msg := res.FailureReason
		if msg == "" {
			msg = "this comment was deleted by someone else"
		}
		response.Conflict(c, msg)
	default:
		response.BadRequest(c, "unsupported operation")
	}
}

func currentAuthor(c *gin.Context) models.CommentAuthor {
	return models.CommentAuthor{
		Name:  middleware.CurrentUserName(c),
		Email: middleware.CurrentUserEmail(c),
	}
}
