package sources

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/modules/mention"
	"github.com/threadsync/core/internal/pkg/response"
)

// Handler exposes mention candidate lookups and trigger detection for thin
// clients.
type Handler struct {
	users   *UserSource
	schema  *SchemaSource
	records *RecordSource
	assets  *AssetSource
	log     *zap.Logger
}

func NewHandler(users *UserSource, schema *SchemaSource, records *RecordSource, assets *AssetSource, log *zap.Logger) *Handler {
	return &Handler{users: users, schema: schema, records: records, assets: assets, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/mention", authMW)

	g.GET("/users", h.listUsers)
	g.GET("/models", h.listModels)
	g.GET("/models/:modelId/fields", h.listFields)
	g.GET("/records", h.listRecords)
	g.GET("/records/:recordId/blocks", h.listRecordBlocks)
	g.GET("/assets", h.listAssets)
	g.POST("/detect", h.detect)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.Candidates(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, users)
}

func (h *Handler) listModels(c *gin.Context) {
	items, err := h.schema.Models(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) listFields(c *gin.Context) {
	fields, err := h.schema.Fields(c.Request.Context(), c.Param("modelId"), c.Query("query"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, fields)
}

func (h *Handler) listRecords(c *gin.Context) {
	items, err := h.records.Candidates(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

// listRecordBlocks is the server side of field drill-down: it resolves the
// block instances at a structural path inside one record's data.
func (h *Handler) listRecordBlocks(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.records.RecordByID(ctx, c.Param("recordId"))
	if err != nil {
		response.NotFound(c)
		return
	}
	names, err := h.schema.BlockModelNames(ctx)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	blocks := BlocksAt(rec.Data, c.Query("path"), c.Query("locale"), names)
	response.OK(c, blocks)
}

func (h *Handler) listAssets(c *gin.Context) {
	if h.assets == nil {
		response.OK(c, []models.AssetMention{})
		return
	}
	items, err := h.assets.Candidates(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

type detectDTO struct {
	Text         string               `json:"text"`
	Cursor       int                  `json:"cursor"`
	AllowedTypes []models.MentionType `json:"allowedTypes"`
}

func (h *Handler) detect(c *gin.Context) {
	var dto detectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var filter mention.PermissionFilter
	if len(dto.AllowedTypes) > 0 {
		allowed := make(map[models.MentionType]struct{}, len(dto.AllowedTypes))
		for _, t := range dto.AllowedTypes {
			allowed[t] = struct{}{}
		}
		filter = func(t models.MentionType) bool {
			_, ok := allowed[t]
			return ok
		}
	}

	info := mention.DetectAllowed(dto.Text, dto.Cursor, filter)
	response.OK(c, gin.H{"trigger": info})
}
