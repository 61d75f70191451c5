package sentgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingForward(t *testing.T) {
	type args struct {
		inp     []int32
		lengths []int32
		wte     []float32
		B       int
		T       int
		C       int
	}
	tests := []struct {
		name    string
		args    args
		wantOut []float32
	}{
		{
			name: "",
			args: args{
				inp:     []int32{1, 0}, // second position is padding, stays untouched
				lengths: []int32{1},
				wte:     []float32{0, 1, 2, 3},
				B:       1,
				T:       2,
				C:       2,
			},
			wantOut: []float32{2, 3, 0, 0},
		},
		{
			name: "twoRows",
			args: args{
				inp:     []int32{2, 1, 1, 0},
				lengths: []int32{2, 1},
				wte:     []float32{0, 0, 10, 11, 20, 21},
				B:       2,
				T:       2,
				C:       2,
			},
			wantOut: []float32{20, 21, 10, 11, 10, 11, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]float32, tt.args.B*tt.args.T*tt.args.C)
			embeddingForward(out, tt.args.inp, tt.args.lengths, tt.args.wte, tt.args.B, tt.args.T, tt.args.C)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestEmbeddingBackward(t *testing.T) {
	type args struct {
		inp     []int32
		lengths []int32
		dout    []float32
		B, T, C int
	}
	tests := []struct {
		name     string
		args     args
		wantDwte []float32
	}{
		{
			name: "padRowUntouched",
			args: args{
				inp:     []int32{1, 1, 0},
				lengths: []int32{2},
				dout:    []float32{1, 2, 3, 4, 9, 9},
				B:       1,
				T:       3,
				C:       2,
			},
			// both real positions hit row 1, padding contributes nothing
			wantDwte: []float32{0, 0, 4, 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dwte := make([]float32, 4)
			embeddingBackward(dwte, tt.args.dout, tt.args.inp, tt.args.lengths, tt.args.B, tt.args.T, tt.args.C)
			assert.Equal(t, tt.wantDwte, dwte)
		})
	}
}

func TestHeadForward(t *testing.T) {
	type args struct {
		hidden  []float32
		w       []float32
		bias    []float32
		lengths []int32
		B, T, H int
	}
	tests := []struct {
		name       string
		args       args
		wantLogits []float32
	}{
		{
			name: "",
			args: args{
				// (B=2, T=2, H=2); row 0 ends at t=1, row 1 at t=0
				hidden:  []float32{1, 2, 3, 4, 5, 6, 0, 0},
				w:       []float32{1, -1},
				bias:    []float32{0.5},
				lengths: []int32{2, 1},
				B:       2,
				T:       2,
				H:       2,
			},
			wantLogits: []float32{-0.5, -0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logits := make([]float32, tt.args.B)
			headForward(logits, tt.args.hidden, tt.args.w, tt.args.bias, tt.args.lengths, tt.args.B, tt.args.T, tt.args.H)
			assert.Equal(t, tt.wantLogits, logits)
		})
	}
}

func TestSigmoidBCEForward(t *testing.T) {
	logits := []float32{0, 4, -4}
	targets := []float32{1, 1, 0}
	losses := make([]float32, 3)
	probs := make([]float32, 3)
	sigmoidBCEForward(losses, probs, logits, targets, 3)
	assert.InDelta(t, 0.5, probs[0], 1e-6)
	assert.InDelta(t, 0.98201376, probs[1], 1e-6)
	assert.InDelta(t, 0.01798621, probs[2], 1e-6)
	// loss = -log(p_correct)
	assert.InDelta(t, 0.6931472, losses[0], 1e-6)
	assert.InDelta(t, 0.01814996, losses[1], 1e-6)
	assert.InDelta(t, 0.01814996, losses[2], 1e-6)
}

func TestSigmoidBCEForwardLargeLogitStable(t *testing.T) {
	losses := make([]float32, 1)
	probs := make([]float32, 1)
	sigmoidBCEForward(losses, probs, []float32{-100}, []float32{1}, 1)
	assert.InDelta(t, 100.0, losses[0], 1e-3)
	assert.False(t, math.IsNaN(float64(losses[0])), "loss must not be NaN")
}

func TestRnnForwardIgnoresPadding(t *testing.T) {
	B, T, C, H := 2, 3, 2, 2
	wxh := []float32{0.1, 0.2, -0.1, 0.3}
	whh := []float32{0.05, -0.05, 0.02, 0.01}
	bias := []float32{0.01, -0.01}
	emb := make([]float32, B*T*C)
	for i := range emb {
		emb[i] = float32(i%5) * 0.1
	}
	lengths := []int32{3, 1}

	hidden := make([]float32, B*T*H)
	rnnForward(hidden, emb, wxh, whh, bias, lengths, B, T, C, H)

	// row 1 only computed step 0; steps 1 and 2 must stay zero
	assert.Equal(t, []float32{0, 0, 0, 0}, hidden[B*T*H-4:])

	// the prefix of a longer row matches running the row alone at its true length
	alone := make([]float32, 1*T*H)
	rnnForward(alone, emb[:T*C], wxh, whh, bias, []int32{3}, 1, T, C, H)
	assert.Equal(t, alone, hidden[:T*H])
}

// TestGradientsNumerically checks the whole backward pass against central
// finite differences of the forward loss.
func TestGradientsNumerically(t *testing.T) {
	cfg := Config{V: 6, C: 3, H: 4, MaxSeqLen: 4}
	model, err := NewClassifier(cfg, nil, 42)
	require.NoError(t, err)

	B, T := 2, 4
	inputs := []int32{2, 3, 4, 5, 3, 2, 0, 0}
	lengths := []int32{4, 2}
	targets := []float32{1, 0}

	require.NoError(t, model.Forward(inputs, lengths, targets, B, T))
	model.ZeroGradient()
	require.NoError(t, model.Backward())

	analytic := make([]float32, model.Grads.Len())
	copy(analytic, model.Grads.Memory)

	meanLoss := func() float32 {
		require.NoError(t, model.Forward(inputs, lengths, targets, B, T))
		return model.MeanLoss
	}
	const eps = 1e-2
	// spot-check a spread of parameters across every tensor
	for i := 0; i < model.Params.Len(); i += 7 {
		orig := model.Params.Memory[i]
		model.Params.Memory[i] = orig + eps
		plus := meanLoss()
		model.Params.Memory[i] = orig - eps
		minus := meanLoss()
		model.Params.Memory[i] = orig
		numeric := (plus - minus) / (2 * eps)
		tolerance := 1e-2 + 0.05*Abs(numeric)
		assert.InDeltaf(t, numeric, analytic[i], float64(tolerance), "parameter %d", i)
	}
}
