package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{
			name:  "even split",
			items: []int{1, 2, 3, 4},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:  "short final group",
			items: []int{1, 2, 3, 4, 5},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:  "size larger than input",
			items: []int{1, 2},
			size:  10,
			want:  [][]int{{1, 2}},
		},
		{
			name:  "empty input",
			items: nil,
			size:  2,
			want:  nil,
		},
		{
			name:  "invalid size",
			items: []int{1, 2},
			size:  0,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.items, tt.size))
		})
	}
}

func TestChunkPreservesOrder(t *testing.T) {
	items := make([]int, 250)
	for i := range items {
		items[i] = i
	}

	chunks := Chunk(items, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)

	var flat []int
	for _, chunk := range chunks {
		flat = append(flat, chunk...)
	}
	assert.Equal(t, items, flat)
}
