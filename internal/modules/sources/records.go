package sources

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/modules/mention"
	"github.com/threadsync/core/internal/modules/navigator"
)

// RecordSource lists record mention candidates and resolves block
// instances inside a record's data tree for field drill-down.
type RecordSource struct {
	db *gorm.DB
}

func NewRecordSource(db *gorm.DB) *RecordSource {
	return &RecordSource{db: db}
}

// Candidates lists record mention candidates matching the partial query,
// enriched with their model's display data.
func (s *RecordSource) Candidates(ctx context.Context, query string) ([]models.RecordMention, error) {
	var rows []models.RecordModel
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	modelIDs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.ModelID]; ok {
			continue
		}
		seen[r.ModelID] = struct{}{}
		modelIDs = append(modelIDs, r.ModelID)
	}

	schemas := make(map[string]models.ModelSchemaModel, len(modelIDs))
	if len(modelIDs) > 0 {
		var schemaRows []models.ModelSchemaModel
		if err := s.db.WithContext(ctx).Where("id IN ?", modelIDs).Find(&schemaRows).Error; err != nil {
			return nil, err
		}
		for _, m := range schemaRows {
			schemas[m.ID] = m
		}
	}

	out := make([]models.RecordMention, 0, len(rows))
	for _, r := range rows {
		schema := schemas[r.ModelID]
		if !mention.MatchesQuery(query, r.Title, schema.Name, schema.APIKey) {
			continue
		}
		out = append(out, models.RecordMention{
			ID:           r.ID,
			Title:        r.Title,
			ModelID:      r.ModelID,
			ModelAPIKey:  schema.APIKey,
			ModelName:    schema.Name,
			ModelEmoji:   schema.Emoji,
			Singleton:    schema.Singleton,
			ThumbnailURL: r.ThumbnailURL,
		})
	}
	return out, nil
}

// RecordByID loads one record.
func (s *RecordSource) RecordByID(ctx context.Context, id string) (*models.RecordModel, error) {
	var r models.RecordModel
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// BlocksAt walks a record's data tree down the structural path prefix and
// returns the block instances found there. A localized field value is an
// object keyed by locale and is unwrapped with the selected locale on the
// way down. Anything that does not resolve to block content yields nil.
func BlocksAt(data map[string]interface{}, pathPrefix, locale string, blockNames map[string]string) []navigator.BlockInfo {
	var cur interface{} = data
	if pathPrefix != "" {
		for _, seg := range strings.Split(pathPrefix, models.FieldPathSeparator) {
			switch node := cur.(type) {
			case map[string]interface{}:
				next, ok := node[seg]
				if !ok {
					return nil
				}
				cur = unwrapLocale(next, locale)
			case []interface{}:
				idx, err := strconv.Atoi(seg)
				if err != nil || idx < 0 || idx >= len(node) {
					return nil
				}
				cur = node[idx]
			default:
				return nil
			}
		}
	}

	switch node := cur.(type) {
	case []interface{}:
		out := make([]navigator.BlockInfo, 0, len(node))
		for i, raw := range node {
			obj, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := obj["itemTypeId"].(string)
			out = append(out, navigator.BlockInfo{
				Index:          i,
				BlockModelID:   id,
				BlockModelName: blockNames[id],
			})
		}
		return out
	case map[string]interface{}:
		// single_block fields hold the one instance directly
		id, _ := node["itemTypeId"].(string)
		if id == "" {
			return nil
		}
		return []navigator.BlockInfo{{Index: 0, BlockModelID: id, BlockModelName: blockNames[id]}}
	}
	return nil
}

// unwrapLocale descends into a localized field value. Block objects also
// come through here; they are recognizable by their itemTypeId and left
// alone.
func unwrapLocale(v interface{}, locale string) interface{} {
	if locale == "" {
		return v
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	if _, isBlock := m["itemTypeId"]; isBlock {
		return v
	}
	if lv, ok := m[locale]; ok {
		return lv
	}
	return v
}
