package models

import "strings"

// MentionType discriminates the Mention tagged union.
type MentionType string

const (
	MentionUser   MentionType = "user"
	MentionField  MentionType = "field"
	MentionAsset  MentionType = "asset"
	MentionRecord MentionType = "record"
	MentionModel  MentionType = "model"
)

// FieldPathSeparator joins field path components ("container.index.nestedKey").
const FieldPathSeparator = "."

// UserMention references a collaborator or SSO user.
type UserMention struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// FieldMention references a field of the item's model, addressed by a
// structural field path (dot-delimited, with block-repetition indices for
// fields nested in modular containers).
type FieldMention struct {
	APIKey     string `json:"apiKey"`
	Label      string `json:"label"`
	Localized  bool   `json:"localized"`
	FieldPath  string `json:"fieldPath"`
	Locale     string `json:"locale,omitempty"`
	EditorType string `json:"editorType,omitempty"`
}

// AssetMention references an uploaded asset.
type AssetMention struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
}

// RecordMention references another record of the CMS project.
type RecordMention struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ModelID      string `json:"modelId"`
	ModelAPIKey  string `json:"modelApiKey"`
	ModelName    string `json:"modelName"`
	ModelEmoji   string `json:"modelEmoji,omitempty"`
	Singleton    bool   `json:"singleton,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ModelMention references a content model itself.
type ModelMention struct {
	ID           string `json:"id"`
	APIKey       string `json:"apiKey"`
	Name         string `json:"name"`
	IsBlockModel bool   `json:"isBlockModel"`
}

// Mention is a typed reference embedded inside comment text.
// Exactly one of the variant pointers is set, matching Type.
type Mention struct {
	Type   MentionType    `json:"type"`
	User   *UserMention   `json:"user,omitempty"`
	Field  *FieldMention  `json:"field,omitempty"`
	Asset  *AssetMention  `json:"asset,omitempty"`
	Record *RecordMention `json:"record,omitempty"`
	Model  *ModelMention  `json:"model,omitempty"`
}

func NewUserMention(u UserMention) Mention     { return Mention{Type: MentionUser, User: &u} }
func NewFieldMention(f FieldMention) Mention   { return Mention{Type: MentionField, Field: &f} }
func NewAssetMention(a AssetMention) Mention   { return Mention{Type: MentionAsset, Asset: &a} }
func NewRecordMention(r RecordMention) Mention { return Mention{Type: MentionRecord, Record: &r} }
func NewModelMention(m ModelMention) Mention   { return Mention{Type: MentionModel, Model: &m} }

// EncodeFieldPath replaces the path separator with a join token that cannot
// appear in a valid API key. The historical underscore-joined encoding is
// not produced anymore; it is only tolerated on decode.
func EncodeFieldPath(path string) string {
	return strings.ReplaceAll(path, FieldPathSeparator, EncodedPathJoin)
}

// DecodeFieldPath reverses EncodeFieldPath.
func DecodeFieldPath(encoded string) string {
	return strings.ReplaceAll(encoded, EncodedPathJoin, FieldPathSeparator)
}

// EncodedPathJoin is the token separating encoded path components. A
// multi-character sequence is used because API keys legitimately contain
// underscores and digits.
const EncodedPathJoin = "::"

// MapKey returns the canonical mention-map key. The key is derived purely
// from the mention's own fields; two mentions of the same target always
// produce the same key.
func (m Mention) MapKey() string {
	switch m.Type {
	case MentionUser:
		if m.User != nil {
			return "user:" + m.User.ID
		}
	case MentionAsset:
		if m.Asset != nil {
			return "asset:" + m.Asset.ID
		}
	case MentionRecord:
		if m.Record != nil {
			return "record:" + m.Record.ID
		}
	case MentionModel:
		if m.Model != nil {
			return "model:" + m.Model.ID
		}
	case MentionField:
		if m.Field != nil {
			key := "field:" + EncodeFieldPath(m.Field.FieldPath)
			if m.Field.Locale != "" {
				key += EncodedPathJoin + m.Field.Locale
			}
			return key
		}
	}
	return ""
}

// MentionMap resolves canonical keys back into rich mention data. It is
// threaded explicitly through the codec and never held in package state, so
// one codec serves the single-comment editor and the composer concurrently.
type MentionMap map[string]Mention

// Put stores a mention under its canonical key.
func (mm MentionMap) Put(m Mention) {
	if key := m.MapKey(); key != "" {
		mm[key] = m
	}
}
