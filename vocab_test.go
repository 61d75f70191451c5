package sentgo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVocab(t *testing.T) {
	reviews := []Review{
		{Text: "good good good bad", Label: 1},
		{Text: "bad bad fine", Label: 0},
	}
	tests := []struct {
		name       string
		maxSize    int
		wantTokens []string
	}{
		{
			name:       "",
			maxSize:    10,
			wantTokens: []string{PadToken, UnkToken, "bad", "good", "fine"},
		},
		{
			name:       "capped",
			maxSize:    4,
			wantTokens: []string{PadToken, UnkToken, "bad", "good"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vocab, err := BuildVocab(reviews, tt.maxSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTokens, vocab.Tokens)
		})
	}
}

func TestBuildVocabTooSmall(t *testing.T) {
	_, err := BuildVocab([]Review{{Text: "a"}}, 2)
	assert.Error(t, err)
}

func TestVocabularyEncode(t *testing.T) {
	vocab := newVocabulary([]string{PadToken, UnkToken, "good", "movie"})
	assert.Equal(t, []int32{2, 3, UnkID}, vocab.Encode([]string{"good", "movie", "terrible"}))
	assert.Equal(t, UnkID, vocab.Lookup("nope"))
	assert.Equal(t, int32(2), vocab.Lookup("good"))
	assert.Equal(t, 4, vocab.Size())
}

func TestVocabularySaveLoad(t *testing.T) {
	vocab := newVocabulary([]string{PadToken, UnkToken, "good", "movie"})
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, vocab.Save(path))
	loaded, err := LoadVocab(path)
	require.NoError(t, err)
	assert.Equal(t, vocab.Tokens, loaded.Tokens)
	assert.Equal(t, vocab.Index, loaded.Index)
}

func TestLoadVocabMissingSpecials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("good\nmovie\n"), 0o644))
	_, err := LoadVocab(path)
	assert.Error(t, err)
}

func TestLoadVectors(t *testing.T) {
	vocab := newVocabulary([]string{PadToken, UnkToken, "good", "movie"})
	path := filepath.Join(t.TempDir(), "vectors.txt")
	contents := "good 0.1 0.2\nunseen 9 9\n<pad> 5 5\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	table, loaded, err := vocab.LoadVectors(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	// pad and unk rows stay zero even when the file carries a <pad> vector
	assert.Equal(t, []float32{0, 0}, table[0:2])
	assert.Equal(t, []float32{0, 0}, table[2:4])
	assert.Equal(t, []float32{0.1, 0.2}, table[4:6])
	// tokens without a pretrained vector stay zero
	assert.Equal(t, []float32{0, 0}, table[6:8])
}

func TestLoadVectorsBadDim(t *testing.T) {
	vocab := newVocabulary([]string{PadToken, UnkToken, "good"})
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(path, []byte("good 0.1 0.2 0.3\n"), 0o644))
	_, _, err := vocab.LoadVectors(path, 2)
	assert.Error(t, err)
}
