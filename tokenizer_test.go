package sentgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "",
			text: "This movie was GREAT!",
			want: []string{"this", "movie", "was", "great", "!"},
		},
		{
			name: "apostrophe",
			text: "Don't watch it.",
			want: []string{"don't", "watch", "it", "."},
		},
		{
			name: "punctuationRuns",
			text: "what?!?",
			want: []string{"what", "?", "!", "?"},
		},
		{
			name: "hyphenSplit",
			text: "so-so acting",
			want: []string{"so", "-", "so", "acting"},
		},
		{
			name: "whitespaceOnly",
			text: "  \t\n ",
			want: nil,
		},
		{
			name: "digits",
			text: "8/10 stars",
			want: []string{"8", "/", "10", "stars"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}
