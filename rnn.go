package sentgo

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

type Config struct {
	V         int `json:"vocab_size"`
	C         int `json:"embed_dim"`
	H         int `json:"hidden_dim"`
	MaxSeqLen int `json:"max_seq_len"`
}

// Classifier is the sentiment model: embedding table, tanh recurrent cell and
// a one-logit linear head.
type Classifier struct {
	Vocab  *Vocabulary
	Config Config
	// Params has the actual weights of the model. Params.Memory is for convenience to be able to set/reset parameters simply
	Params ParameterTensors
	// Grads contains the delta/gradient that will eventually be applied to the params in the model
	Grads ParameterTensors
	// Fields for AdamW optimizer
	MMemory []float32 // First moment estimates (for AdamW)
	VMemory []float32 // Second moment estimates (for AdamW)
	Acts    ActivationTensors
	// gradients of the activations
	GradsActs ActivationTensors
	B         int // Allocated batch capacity
	T         int // Allocated sequence capacity
	batchB    int // Batch size of the last forward pass
	batchT    int // Padded sequence length of the last forward pass
	Inputs    []int32
	Lengths   []int32
	Targets   []float32
	MeanLoss  float32 // Mean loss after a forward pass
	Rand      *rand.Rand
}

// NewClassifier builds a model with randomly initialized weights. Weight
// matrices use scaled uniform init (±1/sqrt(fan-in)), biases start at zero and
// the embedding table starts small so pretrained vectors dominate once set.
func NewClassifier(cfg Config, vocab *Vocabulary, seed int64) (*Classifier, error) {
	if vocab != nil && vocab.Size() != cfg.V {
		return nil, fmt.Errorf("vocab has %d tokens but config says %d", vocab.Size(), cfg.V)
	}
	if cfg.V <= 2 || cfg.C <= 0 || cfg.H <= 0 || cfg.MaxSeqLen <= 0 {
		return nil, fmt.Errorf("invalid model config %+v", cfg)
	}
	model := &Classifier{
		Vocab:  vocab,
		Config: cfg,
		Rand:   rand.New(rand.NewSource(seed)),
	}
	model.Params.Init(cfg.V, cfg.C, cfg.H)
	uniform := func(t tensor, scale float32) {
		for i := range t.data {
			t.data[i] = (model.Rand.Float32()*2 - 1) * scale
		}
	}
	uniform(model.Params.WordEmbed, 0.05)
	uniform(model.Params.InputW, 1.0/Sqrt(float32(cfg.C)))
	uniform(model.Params.HiddenW, 1.0/Sqrt(float32(cfg.H)))
	uniform(model.Params.HeadW, 1.0/Sqrt(float32(cfg.H)))
	// HiddenB and HeadB stay zero
	model.zeroRow(PadID)
	return model, nil
}

// SetEmbeddings overwrites the embedding table with pretrained vectors. The
// padding and unknown rows are forced back to zero afterwards.
func (model *Classifier) SetEmbeddings(table []float32) error {
	if len(table) != model.Config.V*model.Config.C {
		return fmt.Errorf("embedding table has %d values, want %d", len(table), model.Config.V*model.Config.C)
	}
	copy(model.Params.WordEmbed.data, table)
	model.zeroRow(PadID)
	model.zeroRow(UnkID)
	return nil
}

func (model *Classifier) zeroRow(id int32) {
	C := model.Config.C
	row := model.Params.WordEmbed.data[int(id)*C : int(id)*C+C]
	for i := range row {
		row[i] = 0
	}
}

func (model *Classifier) String() string {
	var s string
	s += "[sentiment rnn]\n"
	s += fmt.Sprintf("vocab_size: %d\n", model.Config.V)
	s += fmt.Sprintf("embed_dim: %d\n", model.Config.C)
	s += fmt.Sprintf("hidden_dim: %d\n", model.Config.H)
	s += fmt.Sprintf("max_seq_len: %d\n", model.Config.MaxSeqLen)
	s += fmt.Sprintf("num_parameters: %d\n", model.Params.Len())
	return s
}

// Forward runs the model over a padded (B, T) batch. lengths holds the true
// token count of each row; computation past a row's length is skipped. When
// targets is nil only the logits and probabilities are produced and MeanLoss
// is set to the -1 sentinel.
func (model *Classifier) Forward(inputs, lengths []int32, targets []float32, B, T int) error {
	C, H := model.Config.C, model.Config.H
	if T > model.Config.MaxSeqLen {
		return fmt.Errorf("sequence length %d exceeds max %d", T, model.Config.MaxSeqLen)
	}
	for b := 0; b < B; b++ {
		if lengths[b] <= 0 || int(lengths[b]) > T {
			return fmt.Errorf("batch row %d has invalid length %d", b, lengths[b])
		}
	}
	if model.Acts.Memory == nil || B > model.B || T > model.T {
		model.B, model.T = max(B, model.B), max(T, model.T)
		model.Acts.Init(model.B, model.T, C, H)
		model.GradsActs = ActivationTensors{}
		model.Inputs = make([]int32, model.B*model.T)
		model.Lengths = make([]int32, model.B)
		model.Targets = make([]float32, model.B)
	}
	model.batchB, model.batchT = B, T
	copy(model.Inputs, inputs[:B*T])
	copy(model.Lengths, lengths[:B])
	params, acts := model.Params, model.Acts
	embeddingForward(acts.Embedded.data, inputs, lengths, params.WordEmbed.data, B, T, C)
	rnnForward(acts.Hidden.data, acts.Embedded.data, params.InputW.data, params.HiddenW.data, params.HiddenB.data, lengths, B, T, C, H)
	headForward(acts.Logits.data, acts.Hidden.data, params.HeadW.data, params.HeadB.data, lengths, B, T, H)
	if targets != nil {
		copy(model.Targets, targets[:B])
		sigmoidBCEForward(acts.Losses.data, acts.Probabilities.data, acts.Logits.data, targets, B)
		var meanLoss float32
		for b := 0; b < B; b++ {
			meanLoss += acts.Losses.data[b]
		}
		meanLoss /= float32(B)
		model.MeanLoss = meanLoss
	} else {
		for b := 0; b < B; b++ {
			acts.Probabilities.data[b] = 1.0 / (1.0 + Exp(-acts.Logits.data[b]))
		}
		model.MeanLoss = -1.0
	}
	return nil
}

func (model *Classifier) Backward() error {
	// double check we forwarded previously, with targets
	if model.MeanLoss == -1.0 {
		return errors.New("error: must forward with targets before backward")
	}
	B, T, C, H := model.batchB, model.batchT, model.Config.C, model.Config.H
	// lazily allocate the memory for gradients of the weights and activations, if needed
	if len(model.Grads.Memory) == 0 {
		model.Grads.Init(model.Config.V, C, H)
	}
	if len(model.GradsActs.Memory) == 0 {
		model.GradsActs.Init(model.B, model.T, C, H)
		model.ZeroGradient()
	}
	params, grads, acts, gradsActs := model.Params, model.Grads, model.Acts, model.GradsActs
	// kick off the chain with dloss = 1/B to obtain the mean loss
	dlossMean := 1.0 / float32(B)
	for b := 0; b < B; b++ {
		gradsActs.Losses.data[b] = dlossMean
	}
	sigmoidBCEBackward(gradsActs.Logits.data, gradsActs.Losses.data, acts.Probabilities.data, model.Targets, B)
	headBackward(gradsActs.Hidden.data, grads.HeadW.data, grads.HeadB.data, gradsActs.Logits.data, acts.Hidden.data, params.HeadW.data, model.Lengths, B, T, H)
	rnnBackward(gradsActs.Embedded.data, grads.InputW.data, grads.HiddenW.data, grads.HiddenB.data, gradsActs.Hidden.data, acts.Hidden.data, acts.Embedded.data, params.InputW.data, params.HiddenW.data, model.Lengths, B, T, C, H)
	embeddingBackward(grads.WordEmbed.data, gradsActs.Embedded.data, model.Inputs, model.Lengths, B, T, C)
	return nil
}

// Update applies one AdamW step to every parameter.
func (model *Classifier) Update(learningRate, beta1, beta2, eps, weightDecay float32, t int) {
	// Lazy memory allocation
	if model.MMemory == nil {
		model.MMemory = make([]float32, model.Params.Len())
		model.VMemory = make([]float32, model.Params.Len())
	}
	for i := 0; i < model.Params.Len(); i++ {
		parameter := model.Params.Memory[i]
		gradient := model.Grads.Memory[i]
		// Momentum update
		m := beta1*model.MMemory[i] + (1.0-beta1)*gradient
		// RMSprop update
		v := beta2*model.VMemory[i] + (1.0-beta2)*gradient*gradient
		// Bias correction
		mHat := m / (1.0 - Pow(beta1, float32(t)))
		vHat := v / (1.0 - Pow(beta2, float32(t)))
		model.MMemory[i] = m
		model.VMemory[i] = v
		model.Params.Memory[i] -= learningRate * (mHat/(Sqrt(vHat)+eps) + weightDecay*parameter)
	}
}

func (model *Classifier) ZeroGradient() {
	for i := range model.GradsActs.Memory {
		model.GradsActs.Memory[i] = 0.0
	}
	for i := range model.Grads.Memory {
		model.Grads.Memory[i] = 0.0
	}
}

// TrainOptions are the knobs of the training loop.
type TrainOptions struct {
	Epochs         int
	LearningRate   float32
	WeightDecay    float32
	LogEvery       int
	CheckpointPath string
}

// Train runs the supervised loop: every epoch walks all training batches
// (forward, backward, AdamW step) and then evaluates on the validation loader.
// A checkpoint is written after each epoch when a path is configured.
func (model *Classifier) Train(trainLoader, valLoader *BucketLoader, opts TrainOptions) error {
	if opts.Epochs <= 0 {
		opts.Epochs = 5
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 1e-3
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = 50
	}
	slog.Info("training",
		"examples", trainLoader.NumExamples(),
		"batches", trainLoader.NumBatches(),
		"epochs", opts.Epochs,
		"lr", opts.LearningRate)
	var window Window
	step := 0
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		trainLoader.Reset()
		for i := 0; i < trainLoader.NumBatches(); i++ {
			step++
			startData := time.Now()
			inputs, lengths, targets, T := trainLoader.NextBatch()
			dataTime := time.Since(startData)
			B := len(lengths)
			startCompute := time.Now()
			if err := model.Forward(inputs, lengths, targets, B, T); err != nil {
				return err
			}
			model.ZeroGradient()
			if err := model.Backward(); err != nil {
				return err
			}
			model.Update(opts.LearningRate, 0.9, 0.999, 1e-8, opts.WeightDecay, step)
			computeTime := time.Since(startCompute)
			correct := countCorrect(model.Acts.Probabilities.data, targets, B)
			window.Record(B, correct, dataTime, computeTime, float64(model.MeanLoss))
			if step%opts.LogEvery == 0 {
				snap := window.Snapshot()
				slog.Info("step",
					"epoch", epoch,
					"step", step,
					"loss", snap.MeanLoss,
					"acc", snap.Accuracy,
					"reviews_per_sec", snap.ReviewsPerSec,
					"data_ms", snap.AvgDataMS,
					"compute_ms", snap.AvgComputeMS)
			}
		}
		valLoss, valAcc, err := model.Evaluate(valLoader)
		if err != nil {
			return err
		}
		slog.Info("epoch", "epoch", epoch, "val_loss", valLoss, "val_acc", valAcc)
		if opts.CheckpointPath != "" {
			if err := SaveCheckpoint(model, opts.CheckpointPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate runs the forward pass over every batch of the loader and returns
// mean loss and accuracy. Parameters and gradients are not touched.
func (model *Classifier) Evaluate(loader *BucketLoader) (loss, accuracy float32, err error) {
	loader.Reset()
	var lossSum float64
	examples, correct := 0, 0
	for i := 0; i < loader.NumBatches(); i++ {
		inputs, lengths, targets, T := loader.NextBatch()
		B := len(lengths)
		if err := model.Forward(inputs, lengths, targets, B, T); err != nil {
			return 0, 0, err
		}
		lossSum += float64(model.MeanLoss) * float64(B)
		correct += countCorrect(model.Acts.Probabilities.data, targets, B)
		examples += B
	}
	if examples == 0 {
		return 0, 0, errors.New("loader produced no examples")
	}
	return float32(lossSum / float64(examples)), float32(correct) / float32(examples), nil
}

// Predict tokenizes text and returns the probability that it is positive.
func (model *Classifier) Predict(text string) (float32, error) {
	if model.Vocab == nil {
		return 0, errors.New("model has no vocabulary attached")
	}
	ids := model.Vocab.Encode(Tokenize(text))
	if len(ids) == 0 {
		return 0, errors.New("text tokenized to nothing")
	}
	if len(ids) > model.Config.MaxSeqLen {
		ids = ids[:model.Config.MaxSeqLen]
	}
	if err := model.Forward(ids, []int32{int32(len(ids))}, nil, 1, len(ids)); err != nil {
		return 0, err
	}
	return model.Acts.Probabilities.data[0], nil
}

func countCorrect(probs, targets []float32, B int) int {
	correct := 0
	for b := 0; b < B; b++ {
		predicted := float32(0)
		if probs[b] >= 0.5 {
			predicted = 1
		}
		if predicted == targets[b] {
			correct++
		}
	}
	return correct
}
