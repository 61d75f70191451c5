package sentgo

type tensor struct {
	data []float32
	dims []int
}

func (t tensor) Data() []float32 {
	return t.data
}

func newTensor(data []float32, dims ...int) (tensor, int) {
	s := 1
	for _, d := range dims {
		s *= d
	}
	if s > len(data) {
		panic("dimensions larger than supplied data")
	}
	ss := min(s, len(data))
	return tensor{
		data: data[:ss],
		dims: dims,
	}, ss
}

func (t tensor) size() int {
	size := 1
	for _, dim := range t.dims {
		size *= dim
	}
	return size
}

func (t tensor) index(idx ...int) tensor {
	if len(idx) > len(t.dims) {
		panic("too many indices for tensor dimensions")
	}
	for i, dim := range idx {
		if dim < 0 || dim >= t.dims[i] {
			panic("index out of bounds")
		}
	}
	linearIndex := idx[0]
	stride := t.size()
	for i := 1; i < len(idx); i++ {
		stride /= t.dims[i]
		linearIndex += idx[i] * stride
	}
	newDims := t.dims[len(idx):]
	end := linearIndex + t.subTensorSize(newDims)
	return tensor{
		data: t.data[linearIndex:end],
		dims: newDims,
	}
}

func (t tensor) subTensorSize(idx []int) int {
	subTensorSize := 1
	for _, dim := range t.dims[len(idx):] {
		subTensorSize *= dim
	}
	return subTensorSize
}

// ParameterTensors are the parameters of the model.
// Memory is the flat backing arena; the named tensors are views into it so the
// optimizer can walk every weight with a single loop.
type ParameterTensors struct {
	Memory    []float32
	WordEmbed tensor // (V, C) - token embedding table (vocabulary size, embedding dimension)
	InputW    tensor // (H, C) - recurrent cell input weights (hidden dimension, embedding dimension)
	HiddenW   tensor // (H, H) - recurrent cell hidden-to-hidden weights
	HiddenB   tensor // (H) - recurrent cell bias
	HeadW     tensor // (H) - linear classifier weights, one logit per example
	HeadB     tensor // (1) - linear classifier bias
}

// Init carves the parameter arena into the model's weight tensors.
func (tensor *ParameterTensors) Init(V, C, H int) {
	tensor.Memory = make([]float32,
		V*C+ // WordEmbed
			H*C+ // InputW
			H*H+ // HiddenW
			H+ // HiddenB
			H+ // HeadW
			1, // HeadB
	)
	var ptr int
	memPtr := tensor.Memory
	tensor.WordEmbed, ptr = newTensor(memPtr, V, C)
	memPtr = memPtr[ptr:]
	tensor.InputW, ptr = newTensor(memPtr, H, C)
	memPtr = memPtr[ptr:]
	tensor.HiddenW, ptr = newTensor(memPtr, H, H)
	memPtr = memPtr[ptr:]
	tensor.HiddenB, ptr = newTensor(memPtr, H)
	memPtr = memPtr[ptr:]
	tensor.HeadW, ptr = newTensor(memPtr, H)
	memPtr = memPtr[ptr:]
	tensor.HeadB, ptr = newTensor(memPtr, 1)
	memPtr = memPtr[ptr:]
	if len(memPtr) != 0 {
		panic("parameter arena not fully carved")
	}
}

// Len returns the total number of parameters.
func (tensor *ParameterTensors) Len() int {
	return len(tensor.Memory)
}

// ActivationTensors hold everything the forward pass computes that the
// backward pass needs again. Sized for the loader's longest batch; shorter
// batches use a prefix of each buffer.
type ActivationTensors struct {
	Memory        []float32
	Embedded      tensor // (B, T, C) - embedded input tokens
	Hidden        tensor // (B, T, H) - hidden state after every step
	Logits        tensor // (B) - raw classifier output per example
	Probabilities tensor // (B) - sigmoid of the logits
	Losses        tensor // (B) - binary cross-entropy per example
}

func (tensor *ActivationTensors) Init(B, T, C, H int) {
	tensor.Memory = make([]float32,
		B*T*C+
			B*T*H+
			B+
			B+
			B)
	var ptr int
	memPtr := tensor.Memory
	tensor.Embedded, ptr = newTensor(memPtr, B, T, C)
	memPtr = memPtr[ptr:]
	tensor.Hidden, ptr = newTensor(memPtr, B, T, H)
	memPtr = memPtr[ptr:]
	tensor.Logits, ptr = newTensor(memPtr, B)
	memPtr = memPtr[ptr:]
	tensor.Probabilities, ptr = newTensor(memPtr, B)
	memPtr = memPtr[ptr:]
	tensor.Losses, ptr = newTensor(memPtr, B)
	memPtr = memPtr[ptr:]
	if len(memPtr) != 0 {
		panic("activation arena not fully carved")
	}
}
