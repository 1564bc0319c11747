package sources

import (
	"context"

	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/modules/mention"
	"github.com/threadsync/core/internal/modules/navigator"
)

// SchemaSource lists content models and their fields, both as mention
// candidates and as FieldNavigator input.
type SchemaSource struct {
	db      *gorm.DB
	locales []string
}

func NewSchemaSource(db *gorm.DB, locales []string) *SchemaSource {
	return &SchemaSource{db: db, locales: locales}
}

// Models lists model mention candidates matching the partial query. Block
// models are excluded; they are not addressable on their own.
func (s *SchemaSource) Models(ctx context.Context, query string) ([]models.ModelMention, error) {
	var rows []models.ModelSchemaModel
	err := s.db.WithContext(ctx).
		Where("is_block_model = ?", false).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ModelMention, 0, len(rows))
	for _, m := range rows {
		if !mention.MatchesQuery(query, m.Name, m.APIKey) {
			continue
		}
		out = append(out, models.ModelMention{
			ID:           m.ID,
			APIKey:       m.APIKey,
			Name:         m.Name,
			IsBlockModel: m.IsBlockModel,
		})
	}
	return out, nil
}

// ModelByID loads one model schema.
func (s *SchemaSource) ModelByID(ctx context.Context, id string) (*models.ModelSchemaModel, error) {
	var m models.ModelSchemaModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Fields lists a model's fields in editor order as navigator input. The
// same call serves both the top-level field list and the nested list of a
// block model reached during drill-down.
func (s *SchemaSource) Fields(ctx context.Context, modelID, query string) ([]navigator.FieldInfo, error) {
	var rows []models.FieldSchemaModel
	err := s.db.WithContext(ctx).
		Where("model_id = ?", modelID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]navigator.FieldInfo, 0, len(rows))
	for _, f := range rows {
		if !mention.MatchesQuery(query, f.Label, f.APIKey) {
			continue
		}
		info := navigator.FieldInfo{
			APIKey:     f.APIKey,
			Label:      f.Label,
			Localized:  f.Localized,
			FieldType:  f.FieldType,
			EditorType: f.EditorType,
		}
		if f.Localized {
			info.Locales = s.locales
		}
		out = append(out, info)
	}
	return out, nil
}

// BlockModelNames maps block model ids to display names, for labeling
// block instances during drill-down.
func (s *SchemaSource) BlockModelNames(ctx context.Context) (map[string]string, error) {
	var rows []models.ModelSchemaModel
	err := s.db.WithContext(ctx).
		Where("is_block_model = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, m := range rows {
		out[m.ID] = m.Name
	}
	return out, nil
}
