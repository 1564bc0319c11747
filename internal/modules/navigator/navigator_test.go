package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadsync/core/internal/models"
)

func leafField(key string) FieldInfo {
	return FieldInfo{APIKey: key, Label: key, FieldType: "string"}
}

func localizedLeaf(key string, locales ...string) FieldInfo {
	return FieldInfo{APIKey: key, Label: key, Localized: true, Locales: locales, FieldType: "string"}
}

func containerField(key, fieldType string) FieldInfo {
	return FieldInfo{APIKey: key, Label: key, FieldType: fieldType}
}

func collectResolutions(resolutions *[]Resolution) func(Resolution) {
	return func(r Resolution) { *resolutions = append(*resolutions, r) }
}

func TestPlainLeafResolvesImmediately(t *testing.T) {
	var got []Resolution
	n := New(nil, collectResolutions(&got))

	assert.Equal(t, ViewFields, n.Mode())
	n.SelectField(leafField("hero_title"))

	require.Len(t, got, 1)
	assert.Equal(t, "hero_title", got[0].FieldPath)
	assert.Equal(t, "", got[0].Locale)
	assert.Equal(t, 0, n.Depth())
	assert.Equal(t, ViewFields, n.Mode())
}

func TestLocalizedLeafWithSingleLocaleResolvesWithIt(t *testing.T) {
	var got []Resolution
	n := New(nil, collectResolutions(&got))

	n.SelectField(localizedLeaf("title", "en"))

	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].FieldPath)
	assert.Equal(t, "en", got[0].Locale)
}

func TestLocalizedLeafAsksForLocale(t *testing.T) {
	var got []Resolution
	n := New(nil, collectResolutions(&got))

	n.SelectField(localizedLeaf("title", "en", "it"))
	assert.Equal(t, ViewLocales, n.Mode())
	assert.Empty(t, got)

	n.SelectLocale("it")
	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].FieldPath)
	assert.Equal(t, "it", got[0].Locale)
	assert.Equal(t, 0, n.Depth())
}

func TestModularContentDrillDown(t *testing.T) {
	blocks := []BlockInfo{
		{Index: 0, BlockModelID: "b-hero", BlockModelName: "Hero"},
		{Index: 1, BlockModelID: "b-cta", BlockModelName: "CTA"},
	}
	var got []Resolution
	n := New(func(prefix, locale string, f FieldInfo) ([]BlockInfo, error) {
		return blocks, nil
	}, collectResolutions(&got))

	n.SelectField(containerField("sections", models.FieldTypeModularContent))
	assert.Equal(t, ViewBlocks, n.Mode())

	listed, err := n.Blocks()
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	n.SelectBlock(blocks[0])
	assert.Equal(t, ViewNestedFields, n.Mode())

	n.SelectField(leafField("hero_title"))
	require.Len(t, got, 1)
	assert.Equal(t, "sections.0.hero_title", got[0].FieldPath)
}

func TestSingleBlockAutoAdvances(t *testing.T) {
	var got []Resolution
	n := New(func(prefix, locale string, f FieldInfo) ([]BlockInfo, error) {
		return []BlockInfo{{Index: 0, BlockModelID: "b-seo", BlockModelName: "SEO"}}, nil
	}, collectResolutions(&got))

	n.SelectField(containerField("seo", models.FieldTypeSingleBlock))
	// block selection was skipped: the single instance is already entered
	assert.Equal(t, ViewNestedFields, n.Mode())

	n.SelectField(leafField("meta_description"))
	require.Len(t, got, 1)
	assert.Equal(t, "seo.0.meta_description", got[0].FieldPath)
}

func TestLocalizedContainerAsksLocaleThenBlocks(t *testing.T) {
	var listedLocales []string
	var got []Resolution
	n := New(func(prefix, locale string, f FieldInfo) ([]BlockInfo, error) {
		listedLocales = append(listedLocales, locale)
		return []BlockInfo{
			{Index: 0, BlockModelID: "b-1", BlockModelName: "One"},
			{Index: 1, BlockModelID: "b-2", BlockModelName: "Two"},
		}, nil
	}, collectResolutions(&got))

	f := FieldInfo{APIKey: "blocks", Label: "Blocks", Localized: true,
		Locales: []string{"en", "it"}, FieldType: models.FieldTypeModularContent}

	n.SelectField(f)
	assert.Equal(t, ViewLocales, n.Mode())

	n.SelectLocale("it")
	assert.Equal(t, ViewBlocks, n.Mode())

	listed, err := n.Blocks()
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	n.SelectBlock(BlockInfo{Index: 1, BlockModelID: "b-2", BlockModelName: "Two"})
	n.SelectField(leafField("body"))

	require.Len(t, got, 1)
	assert.Equal(t, "blocks.1.body", got[0].FieldPath)
	assert.Equal(t, "it", got[0].Locale)
	require.NotEmpty(t, listedLocales)
	assert.Equal(t, "it", listedLocales[len(listedLocales)-1])
}

func TestBackPopsOneStep(t *testing.T) {
	n := New(func(prefix, locale string, f FieldInfo) ([]BlockInfo, error) {
		return nil, nil
	}, nil)

	n.SelectField(containerField("sections", models.FieldTypeModularContent))
	n.SelectBlock(BlockInfo{Index: 0})
	require.Equal(t, 2, n.Depth())

	n.Back()
	assert.Equal(t, 1, n.Depth())
	assert.Equal(t, ViewBlocks, n.Mode())

	n.Back()
	assert.Equal(t, 0, n.Depth())

	// backing out of an empty stack is a no-op
	n.Back()
	assert.Equal(t, 0, n.Depth())
	assert.Equal(t, ViewFields, n.Mode())
}

func TestListNavClampsWithoutWraparound(t *testing.T) {
	var activated []int
	backs := 0
	l := NewListNav(3, func(i int) { activated = append(activated, i) }, func() { backs++ })

	l.Move(-1)
	assert.Equal(t, 0, l.Index())

	l.Move(1)
	l.Move(1)
	l.Move(1)
	assert.Equal(t, 2, l.Index())

	l.Activate()
	assert.Equal(t, []int{2}, activated)

	l.SetLength(1)
	assert.Equal(t, 0, l.Index())
}

func TestListNavKeyboardContract(t *testing.T) {
	var activated []int
	backs := 0
	l := NewListNav(2, func(i int) { activated = append(activated, i) }, func() { backs++ })

	assert.True(t, l.HandleKey("ArrowDown"))
	assert.Equal(t, 1, l.Index())
	assert.True(t, l.HandleKey("ArrowUp"))
	assert.Equal(t, 0, l.Index())

	assert.True(t, l.HandleKey("Enter"))
	assert.True(t, l.HandleKey("Tab"))
	assert.Equal(t, []int{0, 0}, activated)

	assert.True(t, l.HandleKey("Escape"))
	assert.True(t, l.HandleKey("Backspace"))
	assert.Equal(t, 2, backs)

	assert.False(t, l.HandleKey("a"))
}
