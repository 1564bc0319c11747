package conversation

import (
	"context"

	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
)

// gormStore persists conversation blobs in MySQL. Every write replaces the
// whole payload and bumps the revision counter.
type gormStore struct {
	db *gorm.DB
}

// NewStore builds the gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Fetch(ctx context.Context, itemType, itemID string) (*models.ConversationModel, error) {
	var rec models.ConversationModel
	err := s.db.WithContext(ctx).
		First(&rec, "item_type = ? AND item_id = ?", itemType, itemID).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) Create(ctx context.Context, itemType, itemID, payload string) (string, error) {
	rec := models.ConversationModel{
		ItemType: itemType,
		ItemID:   itemID,
		Payload:  payload,
		Revision: 1,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *gormStore) Update(ctx context.Context, recordID, payload string) error {
	return s.db.WithContext(ctx).
		Model(&models.ConversationModel{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"payload":  payload,
			"revision": gorm.Expr("revision + 1"),
		}).Error
}
