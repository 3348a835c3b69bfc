package viactx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNestBuildsHierarchyFromDottedKeys(t *testing.T) {
	flat := map[string]any{
		"a.b": 1.0,
		"a.c": 2.0,
		"x":   "y",
	}
	nested := Nest(flat)

	a, ok := nested["a"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, 1.0, a["b"])
	assert.Equal(t, 2.0, a["c"])
	assert.Equal(t, "y", nested["x"])
}

func TestNestArrayifiesIndexKeyedNodes(t *testing.T) {
	flat := map[string]any{
		"items.0": "first",
		"items.1": "second",
		"items.2": "third",
	}
	nested := Nest(flat)

	list, ok := nested["items"].([]any)
	assert.True(t, ok)
	assert.Equal(t, []any{"first", "second", "third"}, list)
}

func TestNestLeavesNonSequentialNumericKeysAsObject(t *testing.T) {
	flat := map[string]any{
		"scores.0": 10.0,
		"scores.2": 30.0,
	}
	nested := Nest(flat)

	_, isArray := nested["scores"].([]any)
	assert.False(t, isArray, "a gap in indices must not arrayify")
	obj, ok := nested["scores"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, 10.0, obj["0"])
}

func TestFlattenRoundTripsThroughNest(t *testing.T) {
	original := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"admin", "staff"},
		},
		"count": 3.0,
	}

	flat := Flatten(original)
	nested := Nest(flat)
	assert.Equal(t, original, nested)
}

func TestFlattenEmptyCollectionsPreserveType(t *testing.T) {
	original := map[string]any{
		"empty_list":   []any{},
		"empty_object": map[string]any{},
	}
	flat := Flatten(original)
	assert.Equal(t, []any{}, flat["empty_list"])
	assert.Equal(t, map[string]any{}, flat["empty_object"])
}
