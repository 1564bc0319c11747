package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blockNames = map[string]string{
	"b-hero": "Hero",
	"b-cta":  "Call To Action",
	"b-seo":  "SEO",
}

func TestBlocksAtTopLevelContainer(t *testing.T) {
	data := map[string]interface{}{
		"sections": []interface{}{
			map[string]interface{}{"itemTypeId": "b-hero", "hero_title": "hi"},
			map[string]interface{}{"itemTypeId": "b-cta", "label": "go"},
		},
	}

	blocks := BlocksAt(data, "sections", "", blockNames)
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, "Hero", blocks[0].BlockModelName)
	assert.Equal(t, "b-cta", blocks[1].BlockModelID)
}

func TestBlocksAtSingleBlockObject(t *testing.T) {
	data := map[string]interface{}{
		"seo": map[string]interface{}{"itemTypeId": "b-seo", "meta_description": "x"},
	}

	blocks := BlocksAt(data, "seo", "", blockNames)
	require.Len(t, blocks, 1)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, "b-seo", blocks[0].BlockModelID)
}

func TestBlocksAtLocalizedContainer(t *testing.T) {
	data := map[string]interface{}{
		"blocks": map[string]interface{}{
			"en": []interface{}{
				map[string]interface{}{"itemTypeId": "b-hero"},
			},
			"it": []interface{}{
				map[string]interface{}{"itemTypeId": "b-hero"},
				map[string]interface{}{"itemTypeId": "b-cta"},
			},
		},
	}

	assert.Len(t, BlocksAt(data, "blocks", "en", blockNames), 1)
	assert.Len(t, BlocksAt(data, "blocks", "it", blockNames), 2)
}

func TestBlocksAtNestedContainer(t *testing.T) {
	data := map[string]interface{}{
		"sections": []interface{}{
			map[string]interface{}{
				"itemTypeId": "b-hero",
				"inner": []interface{}{
					map[string]interface{}{"itemTypeId": "b-cta"},
				},
			},
		},
	}

	blocks := BlocksAt(data, "sections.0.inner", "", blockNames)
	require.Len(t, blocks, 1)
	assert.Equal(t, "b-cta", blocks[0].BlockModelID)
}

func TestBlocksAtResolvesNothing(t *testing.T) {
	data := map[string]interface{}{
		"title":    "plain",
		"sections": []interface{}{map[string]interface{}{"itemTypeId": "b-hero"}},
	}

	assert.Nil(t, BlocksAt(data, "missing", "", blockNames))
	assert.Nil(t, BlocksAt(data, "title", "", blockNames))
	assert.Nil(t, BlocksAt(data, "sections.9.inner", "", blockNames))
	assert.Nil(t, BlocksAt(data, "sections.x", "", blockNames))
}
