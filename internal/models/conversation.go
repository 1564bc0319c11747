package models

// ConversationModel stores one conversation per CMS item as a single
// serialized blob. The payload is a JSON array of Comment objects and is
// always overwritten whole; the storage layer has no partial-update
// primitive.
type ConversationModel struct {
	Base
	ItemType string `json:"item_type" gorm:"not null;uniqueIndex:idx_conversations_item"`
	ItemID   string `json:"item_id"   gorm:"not null;uniqueIndex:idx_conversations_item"`
	Payload  string `json:"payload"   gorm:"type:longtext"`
	Revision int64  `json:"revision"  gorm:"default:0"`
}

func (ConversationModel) TableName() string { return "conversations" }

// ItemKey returns the canonical "type:id" key of the owning CMS item.
func (c *ConversationModel) ItemKey() string {
	return c.ItemType + ":" + c.ItemID
}
