package models

// Field types that act as block containers during drill-down.
const (
	FieldTypeSingleBlock    = "single_block"
	FieldTypeModularContent = "modular_content"
)

// ModelSchemaModel mirrors a content model of the host CMS project.
type ModelSchemaModel struct {
	Base
	APIKey       string `json:"api_key"        gorm:"not null;uniqueIndex"`
	Name         string `json:"name"           gorm:"not null"`
	IsBlockModel bool   `json:"is_block_model" gorm:"default:false"`
	Emoji        string `json:"emoji"`
	Singleton    bool   `json:"singleton"      gorm:"default:false"`
}

func (ModelSchemaModel) TableName() string { return "model_schemas" }

// FieldSchemaModel mirrors one field of a content model. BlockModelIDs is
// the allow-list of block models for container fields.
type FieldSchemaModel struct {
	Base
	ModelID       string   `json:"model_id"        gorm:"not null;index"`
	APIKey        string   `json:"api_key"         gorm:"not null"`
	Label         string   `json:"label"           gorm:"not null"`
	Localized     bool     `json:"localized"       gorm:"default:false"`
	FieldType     string   `json:"field_type"      gorm:"not null"`
	EditorType    string   `json:"editor_type"`
	BlockModelIDs []string `json:"block_model_ids" gorm:"serializer:json"`
	Position      int      `json:"position"        gorm:"default:0"`
}

func (FieldSchemaModel) TableName() string { return "field_schemas" }

// IsBlockContainer reports whether the field holds nested block instances.
func (f *FieldSchemaModel) IsBlockContainer() bool {
	return f.FieldType == FieldTypeSingleBlock || f.FieldType == FieldTypeModularContent
}

// RecordModel mirrors a content record. Data holds the record's attribute
// values keyed by field api key; block container values are arrays of
// objects carrying an "itemTypeId" plus nested attributes, localized values
// are objects keyed by locale.
type RecordModel struct {
	Base
	ModelID      string                 `json:"model_id" gorm:"not null;index"`
	Title        string                 `json:"title"    gorm:"not null"`
	ThumbnailURL string                 `json:"thumbnail_url"`
	Data         map[string]interface{} `json:"data"     gorm:"serializer:json"`
}

func (RecordModel) TableName() string { return "records" }
