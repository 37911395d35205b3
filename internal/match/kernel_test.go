package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "implement auth login", Normalize("  Implement   AUTH\tlogin "))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "a b", Normalize("a\n\nb"))
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, EditDistance("same", "same"))
	assert.Equal(t, 3, EditDistance("kitten", "sitting"))
	assert.Equal(t, 5, EditDistance("", "hello"))
	assert.Equal(t, 5, EditDistance("hello", ""))
	assert.Equal(t, 1, EditDistance("cat", "cut"))
}

func TestEditSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, EditSimilarity("Same Title", "same  title"), 1e-9)
	assert.InDelta(t, 0.0, EditSimilarity("abc", "xyz"), 1e-9)

	// Similarity is smooth: closer strings score higher.
	near := EditSimilarity("implement auth", "implement auth2")
	far := EditSimilarity("implement auth", "write docs")
	assert.Greater(t, near, far)

	// Degenerate empty input never divides by zero.
	assert.InDelta(t, 1.0, EditSimilarity("", ""), 1e-9)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, jaccard("auth login", "login auth"), 1e-9)
	assert.InDelta(t, 0.5, jaccard("a b c", "a b d"), 1e-9)
	assert.InDelta(t, 0.0, jaccard("a", "b"), 1e-9)
	assert.InDelta(t, 0.0, jaccard("", ""), 1e-9)
}
