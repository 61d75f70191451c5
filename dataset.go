package sentgo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Review is a single labeled example. Label is 1 for positive, 0 for negative.
type Review struct {
	Text  string
	Label float32
}

// LoadReviews walks <root>/<split>/pos and <root>/<split>/neg and returns the
// reviews found there. Files that tokenize to nothing are skipped; the second
// return value counts them.
func LoadReviews(root, split string) ([]Review, int, error) {
	var reviews []Review
	skipped := 0
	for _, class := range []struct {
		dir   string
		label float32
	}{
		{"neg", 0},
		{"pos", 1},
	} {
		dir := filepath.Join(root, split, class.dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, 0, fmt.Errorf("read review dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, 0, fmt.Errorf("read review %s: %w", path, err)
			}
			text := string(raw)
			if len(Tokenize(text)) == 0 {
				skipped++
				continue
			}
			reviews = append(reviews, Review{Text: text, Label: class.label})
		}
	}
	if len(reviews) == 0 {
		return nil, skipped, fmt.Errorf("no reviews found under %s", filepath.Join(root, split))
	}
	return reviews, skipped, nil
}
