package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/threadsync/core/internal/models"
)

func TestEncodeDecodeFieldPath(t *testing.T) {
	cases := []struct {
		path    string
		encoded string
	}{
		{"hero_title", "hero_title"},
		{"sections.0.hero_title", "sections::0::hero_title"},
		{"blocks.12.cta.0.label", "blocks::12::cta::0::label"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.encoded, models.EncodeFieldPath(tc.path))
		assert.Equal(t, tc.path, models.DecodeFieldPath(tc.encoded))
	}
}

func TestIsLocaleLike(t *testing.T) {
	for _, ok := range []string{"it", "en", "de", "en-US", "pt-BR", "fil"} {
		assert.True(t, IsLocaleLike(ok), ok)
	}
	for _, no := range []string{"", "title", "hero", "x", "1234", "en_US_extra"} {
		assert.False(t, IsLocaleLike(no), no)
	}
}

func TestSplitLocaleSuffix(t *testing.T) {
	rest, locale, ok := SplitLocaleSuffix("sections::0::hero_title_it")
	assert.True(t, ok)
	assert.Equal(t, "sections::0::hero_title", rest)
	assert.Equal(t, "it", locale)

	// "title" is not locale-like, so nothing splits
	_, _, ok = SplitLocaleSuffix("sections::0::hero_title")
	assert.False(t, ok)

	_, _, ok = SplitLocaleSuffix("plain")
	assert.False(t, ok)
}

func TestSplitLocaleSuffixCanMisclassify(t *testing.T) {
	// API keys can coincidentally look like locale codes; callers fall
	// back to exact-key matches first.
	rest, locale, ok := SplitLocaleSuffix("cta_en")
	assert.True(t, ok)
	assert.Equal(t, "cta", rest)
	assert.Equal(t, "en", locale)
}

func TestWireIdentifierPerType(t *testing.T) {
	assert.Equal(t, "u-1", WireIdentifier(models.NewUserMention(models.UserMention{ID: "u-1"})))
	assert.Equal(t, "m-1", WireIdentifier(models.NewModelMention(models.ModelMention{ID: "m-1"})))
	assert.Equal(t, "a-1", WireIdentifier(models.NewAssetMention(models.AssetMention{ID: "a-1"})))
	assert.Equal(t, "r-1", WireIdentifier(models.NewRecordMention(models.RecordMention{ID: "r-1"})))
	assert.Equal(t, "sections::0::body_it",
		WireIdentifier(models.NewFieldMention(models.FieldMention{FieldPath: "sections.0.body", Locale: "it"})))
}
