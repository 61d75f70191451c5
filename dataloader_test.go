package sentgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() *Vocabulary {
	return newVocabulary([]string{PadToken, UnkToken, "a", "b", "c", "d"})
}

func TestBucketLoaderBatches(t *testing.T) {
	reviews := []Review{
		{Text: "a b c d", Label: 1},
		{Text: "a", Label: 0},
		{Text: "a b", Label: 1},
		{Text: "a b c", Label: 0},
	}
	loader, err := NewBucketLoader(reviews, testVocab(), 2, 16, 21)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.NumBatches())
	assert.Equal(t, 4, loader.NumExamples())

	// every example appears exactly once per pass, and every batch is padded
	// only to its own longest member
	seen := map[int32]int{}
	for i := 0; i < loader.NumBatches(); i++ {
		inputs, lengths, targets, T := loader.NextBatch()
		B := len(lengths)
		require.Equal(t, B*T, len(inputs))
		require.Equal(t, B, len(targets))
		maxLen := int32(0)
		for b := 0; b < B; b++ {
			require.Greater(t, lengths[b], int32(0))
			if lengths[b] > maxLen {
				maxLen = lengths[b]
			}
			seen[lengths[b]]++
			// padding positions hold PadID
			for p := int(lengths[b]); p < T; p++ {
				assert.Equal(t, PadID, inputs[b*T+p])
			}
		}
		assert.Equal(t, int(maxLen), T)
	}
	assert.Equal(t, map[int32]int{1: 1, 2: 1, 3: 1, 4: 1}, seen)
}

func TestBucketLoaderBucketsByLength(t *testing.T) {
	// lengths 1..4: bucketing must pair 1 with 2 and 3 with 4 regardless of
	// input order
	reviews := []Review{
		{Text: "a b c d"},
		{Text: "a"},
		{Text: "a b c"},
		{Text: "a b"},
	}
	loader, err := NewBucketLoader(reviews, testVocab(), 2, 16, 21)
	require.NoError(t, err)
	for i := 0; i < loader.NumBatches(); i++ {
		_, lengths, _, _ := loader.NextBatch()
		require.Len(t, lengths, 2)
		assert.LessOrEqual(t, lengths[1]-lengths[0], int32(1))
	}
}

func TestBucketLoaderWrapsAround(t *testing.T) {
	reviews := []Review{{Text: "a b"}, {Text: "a"}}
	loader, err := NewBucketLoader(reviews, testVocab(), 2, 16, 21)
	require.NoError(t, err)
	require.Equal(t, 1, loader.NumBatches())
	_, first, _, _ := loader.NextBatch()
	_, second, _, _ := loader.NextBatch() // wraps, reshuffles
	assert.Equal(t, first, second)
}

func TestBucketLoaderTruncates(t *testing.T) {
	reviews := []Review{{Text: "a b c d"}}
	loader, err := NewBucketLoader(reviews, testVocab(), 1, 2, 21)
	require.NoError(t, err)
	inputs, lengths, _, T := loader.NextBatch()
	assert.Equal(t, 2, T)
	assert.Equal(t, []int32{2}, lengths) // length capped at maxSeqLen
	assert.Equal(t, []int32{2, 3}, inputs)
}

func TestBucketLoaderEmpty(t *testing.T) {
	_, err := NewBucketLoader([]Review{{Text: "   "}}, testVocab(), 2, 16, 21)
	assert.Error(t, err)
}

func TestBucketLoaderShortFinalBatch(t *testing.T) {
	reviews := []Review{{Text: "a"}, {Text: "a b"}, {Text: "a b c"}}
	loader, err := NewBucketLoader(reviews, testVocab(), 2, 16, 21)
	require.NoError(t, err)
	require.Equal(t, 2, loader.NumBatches())
	sizes := []int{}
	for i := 0; i < loader.NumBatches(); i++ {
		_, lengths, _, _ := loader.NextBatch()
		sizes = append(sizes, len(lengths))
	}
	assert.ElementsMatch(t, []int{2, 1}, sizes)
}
