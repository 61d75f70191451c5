package sentgo

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig captures the runtime knobs for a training run.
type RunConfig struct {
	DataRoot       string  `yaml:"data_root"`
	VectorsPath    string  `yaml:"vectors_path"`
	VectorsDim     int     `yaml:"vectors_dim"`
	VocabSize      int     `yaml:"vocab_size"`
	EmbedDim       int     `yaml:"embed_dim"`
	HiddenDim      int     `yaml:"hidden_dim"`
	MaxSeqLen      int     `yaml:"max_seq_len"`
	BatchSize      int     `yaml:"batch_size"`
	Epochs         int     `yaml:"epochs"`
	LearningRate   float32 `yaml:"learning_rate"`
	WeightDecay    float32 `yaml:"weight_decay"`
	Seed           int64   `yaml:"seed"`
	LogEvery       int     `yaml:"log_every"`
	CheckpointPath string  `yaml:"checkpoint_path"`
	VocabPath      string  `yaml:"vocab_path"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataRoot       string
	VectorsPath    string
	BatchSize      int
	Epochs         int
	LearningRate   float32
	Seed           int64
	CheckpointPath string
	VocabPath      string
}

// DefaultRunConfig returns the standard training setup: 100-d pretrained
// vectors, 256 hidden units, 25k vocabulary, 5 epochs.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		VectorsDim:   100,
		VocabSize:    25000,
		EmbedDim:     100,
		HiddenDim:    256,
		MaxSeqLen:    512,
		BatchSize:    64,
		Epochs:       5,
		LearningRate: 1e-3,
		Seed:         21,
		LogEvery:     50,
	}
}

// LoadRunConfig reads a RunConfig from a YAML file, filling unset fields with
// defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *RunConfig) ApplyOverrides(o Overrides) {
	if o.DataRoot != "" {
		c.DataRoot = o.DataRoot
	}
	if o.VectorsPath != "" {
		c.VectorsPath = o.VectorsPath
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.CheckpointPath != "" {
		c.CheckpointPath = o.CheckpointPath
	}
	if o.VocabPath != "" {
		c.VocabPath = o.VocabPath
	}
}

// Validate verifies the config is runnable.
func (c *RunConfig) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataRoot == "" {
		return errors.New("data_root must be set")
	}
	if c.VocabSize <= 2 {
		return fmt.Errorf("vocab_size must be > 2 (got %d)", c.VocabSize)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("embed_dim must be > 0 (got %d)", c.EmbedDim)
	}
	if c.VectorsPath != "" && c.VectorsDim != c.EmbedDim {
		return fmt.Errorf("vectors_dim %d must match embed_dim %d", c.VectorsDim, c.EmbedDim)
	}
	if c.HiddenDim <= 0 {
		return fmt.Errorf("hidden_dim must be > 0 (got %d)", c.HiddenDim)
	}
	if c.MaxSeqLen <= 0 {
		return fmt.Errorf("max_seq_len must be > 0 (got %d)", c.MaxSeqLen)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}
