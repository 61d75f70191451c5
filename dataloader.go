package sentgo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// BucketLoader batches variable-length reviews. Examples are sorted by token
// length so each batch pads only to its own longest member, and the batch
// order is reshuffled every pass so the model doesn't see lengths in order.
type BucketLoader struct {
	batchSize int
	maxSeqLen int
	sequences [][]int32
	labels    []float32
	batches   [][]int
	cursor    int
	rng       *rand.Rand
}

// NewBucketLoader tokenizes and encodes the reviews and arranges them into
// length-bucketed batches. Sequences longer than maxSeqLen are truncated.
func NewBucketLoader(reviews []Review, vocab *Vocabulary, batchSize, maxSeqLen int, seed int64) (*BucketLoader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0 (got %d)", batchSize)
	}
	if maxSeqLen <= 0 {
		return nil, fmt.Errorf("max sequence length must be > 0 (got %d)", maxSeqLen)
	}
	loader := &BucketLoader{
		batchSize: batchSize,
		maxSeqLen: maxSeqLen,
		rng:       rand.New(rand.NewSource(seed)),
	}
	for _, review := range reviews {
		ids := vocab.Encode(Tokenize(review.Text))
		if len(ids) == 0 {
			continue
		}
		if len(ids) > maxSeqLen {
			ids = ids[:maxSeqLen]
		}
		loader.sequences = append(loader.sequences, ids)
		loader.labels = append(loader.labels, review.Label)
	}
	if len(loader.sequences) == 0 {
		return nil, errors.New("no non-empty reviews to batch")
	}
	order := make([]int, len(loader.sequences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(loader.sequences[order[i]]) < len(loader.sequences[order[j]])
	})
	for start := 0; start < len(order); start += batchSize {
		end := min(start+batchSize, len(order))
		batch := make([]int, end-start)
		copy(batch, order[start:end])
		loader.batches = append(loader.batches, batch)
	}
	loader.Reset()
	return loader, nil
}

// NumBatches is the number of batches in one pass over the data.
func (loader *BucketLoader) NumBatches() int {
	return len(loader.batches)
}

// NumExamples is the number of usable examples the loader holds.
func (loader *BucketLoader) NumExamples() int {
	return len(loader.sequences)
}

// Reset rewinds the loader and reshuffles the batch order.
func (loader *BucketLoader) Reset() {
	loader.cursor = 0
	loader.rng.Shuffle(len(loader.batches), func(i, j int) {
		loader.batches[i], loader.batches[j] = loader.batches[j], loader.batches[i]
	})
}

// NextBatch returns the next padded batch: inputs is a row-major (B, T) matrix
// of token ids padded with PadID, lengths holds each row's true length and
// targets its label. T is the longest true length in the batch. The loader
// wraps around (reshuffling) when a pass is exhausted.
func (loader *BucketLoader) NextBatch() (inputs, lengths []int32, targets []float32, T int) {
	if loader.cursor >= len(loader.batches) {
		loader.Reset()
	}
	batch := loader.batches[loader.cursor]
	loader.cursor++
	for _, idx := range batch {
		if len(loader.sequences[idx]) > T {
			T = len(loader.sequences[idx])
		}
	}
	B := len(batch)
	inputs = make([]int32, B*T)
	lengths = make([]int32, B)
	targets = make([]float32, B)
	for b, idx := range batch {
		seq := loader.sequences[idx]
		copy(inputs[b*T:], seq)
		lengths[b] = int32(len(seq))
		targets[b] = loader.labels[idx]
	}
	return inputs, lengths, targets, T
}
