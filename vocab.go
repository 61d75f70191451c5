package sentgo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	PadToken = "<pad>"
	UnkToken = "<unk>"
	PadID    = int32(0)
	UnkID    = int32(1)
)

type Vocabulary struct {
	Tokens []string
	Index  map[string]int32
}

func newVocabulary(tokens []string) *Vocabulary {
	v := &Vocabulary{
		Tokens: tokens,
		Index:  make(map[string]int32, len(tokens)),
	}
	for i, tok := range tokens {
		v.Index[tok] = int32(i)
	}
	return v
}

// BuildVocab builds a vocabulary from the training reviews, keeping the maxSize
// most frequent tokens. Slots 0 and 1 are always the padding and unknown tokens
// and count towards maxSize. Frequency ties break lexicographically so the
// result is deterministic.
func BuildVocab(reviews []Review, maxSize int) (*Vocabulary, error) {
	if maxSize < 3 {
		return nil, fmt.Errorf("vocab size %d leaves no room beyond special tokens", maxSize)
	}
	counts := make(map[string]int)
	for _, review := range reviews {
		for _, tok := range Tokenize(review.Text) {
			counts[tok]++
		}
	}
	ranked := make([]string, 0, len(counts))
	for tok := range counts {
		ranked = append(ranked, tok)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > maxSize-2 {
		ranked = ranked[:maxSize-2]
	}
	tokens := append([]string{PadToken, UnkToken}, ranked...)
	return newVocabulary(tokens), nil
}

// Lookup returns the id of token, or UnkID for out-of-vocabulary tokens.
func (v *Vocabulary) Lookup(token string) int32 {
	if id, ok := v.Index[token]; ok {
		return id
	}
	return UnkID
}

// Encode maps tokens to their ids.
func (v *Vocabulary) Encode(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.Lookup(tok)
	}
	return ids
}

func (v *Vocabulary) Size() int {
	return len(v.Tokens)
}

// Save writes the vocabulary as one token per line, in id order.
func (v *Vocabulary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vocab file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, tok := range v.Tokens {
		if _, err := fmt.Fprintln(w, tok); err != nil {
			return fmt.Errorf("write vocab file: %w", err)
		}
	}
	return w.Flush()
}

// LoadVocab reads a vocabulary previously written by Save.
func LoadVocab(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab file: %w", err)
	}
	defer f.Close()
	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab file: %w", err)
	}
	if len(tokens) < 2 || tokens[PadID] != PadToken || tokens[UnkID] != UnkToken {
		return nil, errors.New("vocab file is missing the special tokens")
	}
	return newVocabulary(tokens), nil
}

// LoadVectors reads pretrained word vectors in GloVe text format (one token
// followed by dim floats per line) and returns a (V, dim) embedding table
// aligned to the vocabulary. Rows for the padding and unknown tokens, and for
// any vocabulary token absent from the vector file, are left zero.
func (v *Vocabulary) LoadVectors(path string, dim int) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open vectors file: %w", err)
	}
	defer f.Close()
	table := make([]float32, v.Size()*dim)
	loaded := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) != dim+1 {
			return nil, 0, fmt.Errorf("vectors file line %d: want %d fields, got %d", line, dim+1, len(fields))
		}
		id, ok := v.Index[fields[0]]
		if !ok || id == PadID || id == UnkID {
			continue
		}
		row := table[int(id)*dim : int(id)*dim+dim]
		for i, field := range fields[1:] {
			val, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, 0, fmt.Errorf("vectors file line %d: %w", line, err)
			}
			row[i] = float32(val)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read vectors file: %w", err)
	}
	return table, loaded, nil
}
