package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"title", "titel", 2},
		{"same", "same", 0},
		// multi-byte runes count once
		{"größe", "grösse", 2},
		{"é", "e", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("user_name", "userName"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", "__"), 1e-9)
	assert.InDelta(t, 0.6, Similarity("titel", "title"), 1e-9)
	assert.Less(t, Similarity("text", "label"), DefaultThreshold)
}

func TestRankAndSuggest(t *testing.T) {
	names := []string{"text", "title", "meta_lang", "Title"}

	ranked := Rank("titel", names)
	assert.Equal(t, []string{"title", "Title"}, ranked.Names()[:2])
	assert.Len(t, ranked, len(names))
	assert.Len(t, ranked.Above(DefaultThreshold), 2)

	assert.Equal(t, []string{"title", "Title"}, Suggest("titel", names, 0))
	assert.Equal(t, []string{"title"}, Suggest("titel", names, 1))
	assert.Equal(t, []string{"Title"}, Suggest("title", names, 0), "the query itself is never suggested")
	assert.Empty(t, Suggest("completely_unrelated", names, 3))
}
