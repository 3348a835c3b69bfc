package viactx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchQueueDropsOldestAtCapacity(t *testing.T) {
	var dropped []Patch
	q := NewPatchQueue(3, func(p Patch) { dropped = append(dropped, p) })

	for i := 0; i < 5; i++ {
		q.Push(Patch{Kind: KindScript, Script: string(rune('a' + i))})
	}

	require.Equal(t, 3, q.Len())
	require.Len(t, dropped, 2)
	assert.Equal(t, "a", dropped[0].Script)
	assert.Equal(t, "b", dropped[1].Script)

	remaining := q.DrainAll()
	require.Len(t, remaining, 3)
	assert.Equal(t, "c", remaining[0].Script)
	assert.Equal(t, "d", remaining[1].Script)
	assert.Equal(t, "e", remaining[2].Script)
}

func TestPatchQueueDrainAllEmptiesQueue(t *testing.T) {
	q := NewPatchQueue(5, nil)
	q.Push(Patch{Kind: KindElements, HTML: "<div></div>"})
	q.Push(Patch{Kind: KindSignals, SignalsJSON: []byte(`{"a":1}`)})

	first := q.DrainAll()
	assert.Len(t, first, 2)
	assert.Equal(t, 0, q.Len())

	second := q.DrainAll()
	assert.Nil(t, second)
}

func TestNewPatchQueueDefaultsCapacity(t *testing.T) {
	q := NewPatchQueue(0, nil)
	assert.Equal(t, QueueCapacity, q.capacity)
}
