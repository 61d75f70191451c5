package sentgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_tensor_index(t1 *testing.T) {
	type args struct {
		idx []int
	}
	type testCase struct {
		name string
		t    tensor
		args args
		want tensor
	}
	tests := []testCase{
		{
			name: "",
			t: tensor{
				data: []float32{1, 2, 3, 4},
				dims: []int{2, 2},
			},
			args: args{
				idx: []int{1},
			},
			want: tensor{
				data: []float32{3, 4},
				dims: []int{2},
			},
		},
		{
			name: "",
			t: tensor{
				data: []float32{1, 2, 3, 4},
				dims: []int{2, 2},
			},
			args: args{
				idx: []int{0},
			},
			want: tensor{
				data: []float32{1, 2},
				dims: []int{2},
			},
		},
	}
	for _, tt := range tests {
		t1.Run(tt.name, func(t1 *testing.T) {
			got := tt.t.index(tt.args.idx...)
			assert.Equalf(t1, tt.want, got, "index(%v)", tt.args.idx)
		})
	}
}

func TestParameterTensorsInit(t *testing.T) {
	type args struct {
		V, C, H int
	}
	tests := []struct {
		name string
		args args
		want ParameterTensors
	}{
		{
			name: "",
			args: args{V: 2, C: 1, H: 1},
			want: ParameterTensors{
				WordEmbed: tensor{data: []float32{0, 1}, dims: []int{2, 1}},
				InputW:    tensor{data: []float32{2}, dims: []int{1, 1}},
				HiddenW:   tensor{data: []float32{3}, dims: []int{1, 1}},
				HiddenB:   tensor{data: []float32{4}, dims: []int{1}},
				HeadW:     tensor{data: []float32{5}, dims: []int{1}},
				HeadB:     tensor{data: []float32{6}, dims: []int{1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := ParameterTensors{}
			params.Init(tt.args.V, tt.args.C, tt.args.H)
			for i := range params.Memory {
				params.Memory[i] = float32(i)
			}
			tt.want.Memory = params.Memory
			assert.Equal(t, tt.want, params)
		})
	}
}

func TestActivationTensorsInit(t *testing.T) {
	acts := ActivationTensors{}
	acts.Init(2, 3, 4, 5)
	assert.Equal(t, 2*3*4+2*3*5+2+2+2, len(acts.Memory))
	assert.Equal(t, []int{2, 3, 4}, acts.Embedded.dims)
	assert.Equal(t, []int{2, 3, 5}, acts.Hidden.dims)
	assert.Equal(t, []int{2}, acts.Logits.dims)
	assert.Equal(t, []int{2}, acts.Probabilities.dims)
	assert.Equal(t, []int{2}, acts.Losses.dims)
}
