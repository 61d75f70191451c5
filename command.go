package sentgo

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// CLI global variables
var (
	cacheDir string

	datasetURL = "https://ai.stanford.edu/~amaas/data/sentiment/aclImdb_v1.tar.gz"
	vectorsURL = "https://huggingface.co/stanfordnlp/glove/resolve/main/glove.6B.zip"
)

// initializeCacheDir initializes the cache directory
func initializeCacheDir() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	cacheDir = filepath.Join(homeDir, ".cache", "sentgo")
	os.MkdirAll(cacheDir, os.ModePerm)
}

func defaultDataRoot() string { return filepath.Join(cacheDir, "aclImdb") }

func defaultVectorsPath() string { return filepath.Join(cacheDir, "glove.6B.100d.txt") }

func defaultCheckpointPath() string { return filepath.Join(cacheDir, "sentiment_rnn.bin") }

func defaultVocabPath() string { return filepath.Join(cacheDir, "vocab.txt") }

var rootCmd = &cobra.Command{
	Use:   "sentgo",
	Short: "Train and run a word-level RNN sentiment classifier",
	Long: `sentgo trains a recurrent neural network to classify movie reviews as
positive or negative. It builds a vocabulary with pretrained word vectors,
trains an embedding -> tanh RNN -> linear model with hand-written
backpropagation, and evaluates or runs predictions from a saved checkpoint.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch the review dataset and pretrained word vectors",
	Long:  `Downloads the IMDB review archive and the GloVe 6B vectors into the cache directory and unpacks them. Files already present are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(defaultDataRoot()); err != nil {
			archive := filepath.Join(cacheDir, filepath.Base(datasetURL))
			if _, err := os.Stat(archive); err != nil {
				if err := downloadFile(archive, datasetURL); err != nil {
					return fmt.Errorf("failed to download dataset: %w", err)
				}
			}
			if err := extractTarGz(archive, cacheDir); err != nil {
				return fmt.Errorf("failed to unpack dataset: %w", err)
			}
		}
		if _, err := os.Stat(defaultVectorsPath()); err != nil {
			archive := filepath.Join(cacheDir, filepath.Base(vectorsURL))
			if _, err := os.Stat(archive); err != nil {
				if err := downloadFile(archive, vectorsURL); err != nil {
					return fmt.Errorf("failed to download vectors: %w", err)
				}
			}
			if err := extractZip(archive, cacheDir); err != nil {
				return fmt.Errorf("failed to unpack vectors: %w", err)
			}
		}
		fmt.Println("dataset and vectors ready in", cacheDir)
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the sentiment model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := DefaultRunConfig()
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			loaded, err := LoadRunConfig(path)
			if err != nil {
				return err
			}
			cfg = *loaded
		}
		var o Overrides
		o.DataRoot, _ = cmd.Flags().GetString("data-root")
		o.VectorsPath, _ = cmd.Flags().GetString("vectors")
		o.BatchSize, _ = cmd.Flags().GetInt("batch-size")
		o.Epochs, _ = cmd.Flags().GetInt("epochs")
		lr, _ := cmd.Flags().GetFloat32("lr")
		o.LearningRate = lr
		o.Seed, _ = cmd.Flags().GetInt64("seed")
		o.CheckpointPath, _ = cmd.Flags().GetString("checkpoint")
		o.VocabPath, _ = cmd.Flags().GetString("vocab")
		cfg.ApplyOverrides(o)
		if cfg.DataRoot == "" {
			cfg.DataRoot = defaultDataRoot()
		}
		if cfg.VectorsPath == "" {
			if _, err := os.Stat(defaultVectorsPath()); err == nil {
				cfg.VectorsPath = defaultVectorsPath()
			}
		}
		if cfg.CheckpointPath == "" {
			cfg.CheckpointPath = defaultCheckpointPath()
		}
		if cfg.VocabPath == "" {
			cfg.VocabPath = defaultVocabPath()
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runTraining(cfg)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a checkpoint on the test split",
	RunE: func(cmd *cobra.Command, args []string) error {
		checkpointPath, _ := cmd.Flags().GetString("checkpoint")
		vocabPath, _ := cmd.Flags().GetString("vocab")
		dataRoot, _ := cmd.Flags().GetString("data-root")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if checkpointPath == "" {
			checkpointPath = defaultCheckpointPath()
		}
		if vocabPath == "" {
			vocabPath = defaultVocabPath()
		}
		if dataRoot == "" {
			dataRoot = defaultDataRoot()
		}
		model, err := loadModel(checkpointPath, vocabPath)
		if err != nil {
			return err
		}
		reviews, skipped, err := LoadReviews(dataRoot, "test")
		if err != nil {
			return err
		}
		slog.Info("test split", "reviews", len(reviews), "skipped", skipped)
		loader, err := NewBucketLoader(reviews, model.Vocab, batchSize, model.Config.MaxSeqLen, 21)
		if err != nil {
			return err
		}
		loss, accuracy, err := model.Evaluate(loader)
		if err != nil {
			return err
		}
		fmt.Printf("test loss: %.4f\ntest accuracy: %.2f%%\n", loss, accuracy*100)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Classify a single review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checkpointPath, _ := cmd.Flags().GetString("checkpoint")
		vocabPath, _ := cmd.Flags().GetString("vocab")
		if checkpointPath == "" {
			checkpointPath = defaultCheckpointPath()
		}
		if vocabPath == "" {
			vocabPath = defaultVocabPath()
		}
		model, err := loadModel(checkpointPath, vocabPath)
		if err != nil {
			return err
		}
		prob, err := model.Predict(args[0])
		if err != nil {
			return err
		}
		label := "negative"
		if prob >= 0.5 {
			label = "positive"
		}
		fmt.Printf("%s (p=%.4f)\n", label, prob)
		return nil
	},
}

func loadModel(checkpointPath, vocabPath string) (*Classifier, error) {
	model, err := LoadCheckpoint(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w (did you forget to run `sentgo train`?)", err)
	}
	vocab, err := LoadVocab(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocab: %w", err)
	}
	if vocab.Size() != model.Config.V {
		return nil, fmt.Errorf("vocab has %d tokens but checkpoint expects %d", vocab.Size(), model.Config.V)
	}
	model.Vocab = vocab
	return model, nil
}

func runTraining(cfg RunConfig) error {
	reviews, skipped, err := LoadReviews(cfg.DataRoot, "train")
	if err != nil {
		return err
	}
	slog.Info("train split", "reviews", len(reviews), "skipped", skipped)
	trainReviews, valReviews := splitReviews(reviews, 0.8, cfg.Seed)
	vocab, err := BuildVocab(trainReviews, cfg.VocabSize)
	if err != nil {
		return err
	}
	slog.Info("vocab", "size", vocab.Size())
	model, err := NewClassifier(Config{
		V:         vocab.Size(),
		C:         cfg.EmbedDim,
		H:         cfg.HiddenDim,
		MaxSeqLen: cfg.MaxSeqLen,
	}, vocab, cfg.Seed)
	if err != nil {
		return err
	}
	if cfg.VectorsPath != "" {
		table, loaded, err := vocab.LoadVectors(cfg.VectorsPath, cfg.VectorsDim)
		if err != nil {
			return err
		}
		if err := model.SetEmbeddings(table); err != nil {
			return err
		}
		slog.Info("pretrained vectors", "covered", loaded, "vocab", vocab.Size())
	}
	fmt.Print(model)
	trainLoader, err := NewBucketLoader(trainReviews, vocab, cfg.BatchSize, cfg.MaxSeqLen, cfg.Seed)
	if err != nil {
		return err
	}
	valLoader, err := NewBucketLoader(valReviews, vocab, cfg.BatchSize, cfg.MaxSeqLen, cfg.Seed)
	if err != nil {
		return err
	}
	if err := model.Train(trainLoader, valLoader, TrainOptions{
		Epochs:         cfg.Epochs,
		LearningRate:   cfg.LearningRate,
		WeightDecay:    cfg.WeightDecay,
		LogEvery:       cfg.LogEvery,
		CheckpointPath: cfg.CheckpointPath,
	}); err != nil {
		return err
	}
	if err := vocab.Save(cfg.VocabPath); err != nil {
		return err
	}
	slog.Info("saved", "checkpoint", cfg.CheckpointPath, "vocab", cfg.VocabPath)
	return nil
}

// splitReviews shuffles reviews with the given seed and splits them into
// train/validation parts.
func splitReviews(reviews []Review, trainFrac float64, seed int64) (train, val []Review) {
	shuffled := make([]Review, len(reviews))
	copy(shuffled, reviews)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	cut := int(float64(len(shuffled)) * trainFrac)
	if cut <= 0 || cut >= len(shuffled) {
		return shuffled, nil
	}
	return shuffled[:cut], shuffled[cut:]
}

// Execute wires up and runs the CLI.
func Execute() {
	initializeCacheDir()

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	trainCmd.Flags().String("config", "", "Path to YAML config")
	trainCmd.Flags().String("data-root", "", "Dataset root (defaults to the cache)")
	trainCmd.Flags().String("vectors", "", "Pretrained vectors file")
	trainCmd.Flags().Int("batch-size", 0, "Batch size")
	trainCmd.Flags().Int("epochs", 0, "Number of epochs")
	trainCmd.Flags().Float32("lr", 0, "Learning rate")
	trainCmd.Flags().Int64("seed", 0, "PRNG seed")
	trainCmd.Flags().String("checkpoint", "", "Checkpoint output path")
	trainCmd.Flags().String("vocab", "", "Vocabulary output path")

	for _, cmd := range []*cobra.Command{evalCmd, predictCmd} {
		cmd.Flags().String("checkpoint", "", "Checkpoint path")
		cmd.Flags().String("vocab", "", "Vocabulary path")
	}
	evalCmd.Flags().String("data-root", "", "Dataset root (defaults to the cache)")
	evalCmd.Flags().Int("batch-size", 64, "Batch size")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(predictCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
