package sentgo

import (
	"sync"
)

// embeddingForward looks up the embedding vector for every real token in the
// batch. Positions at or beyond an example's true length are padding and are
// never read downstream, so they are left untouched.
func embeddingForward(out []float32, inp, lengths []int32, wte []float32, B, T, C int) {
	for b := 0; b < B; b++ {
		for t := 0; t < int(lengths[b]); t++ {
			// inp holds token ids, each id is a row index into wte
			ix := inp[b*T+t]
			startOutIndex := b*T*C + t*C
			startWteIndex := int(ix) * C
			copy(out[startOutIndex:startOutIndex+C], wte[startWteIndex:startWteIndex+C])
		}
	}
}

// embeddingBackward scatters dout back into the embedding rows that were
// actually used. Padding positions are skipped, so the padding row never
// accumulates gradient.
func embeddingBackward(dwte, dout []float32, inp, lengths []int32, B, T, C int) {
	for b := 0; b < B; b++ {
		for t := 0; t < int(lengths[b]); t++ {
			ix := inp[b*T+t]
			doutOffset := b*T*C + t*C
			dwteOffset := int(ix) * C
			for i := 0; i < C; i++ {
				dwte[dwteOffset+i] += dout[doutOffset+i]
			}
		}
	}
}

// rnnForward runs the tanh recurrence h_t = tanh(Wxh x_t + Whh h_{t-1} + b)
// over each example's true length. The hidden buffer is (B, T, H); steps past
// an example's length are not computed. Batch rows are independent so they run
// in parallel.
func rnnForward(hidden, emb, wxh, whh, bias []float32, lengths []int32, B, T, C, H int) {
	var wg sync.WaitGroup
	for b := 0; b < B; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			for t := 0; t < int(lengths[b]); t++ {
				x := emb[b*T*C+t*C:]
				h := hidden[b*T*H+t*H:]
				var hPrev []float32
				if t > 0 {
					hPrev = hidden[b*T*H+(t-1)*H:]
				}
				for j := 0; j < H; j++ {
					val := float64(bias[j])
					wxhRow := wxh[j*C:]
					for i := 0; i < C; i++ {
						val += float64(wxhRow[i]) * float64(x[i])
					}
					if t > 0 {
						whhRow := whh[j*H:]
						for k := 0; k < H; k++ {
							val += float64(whhRow[k]) * float64(hPrev[k])
						}
					}
					h[j] = Tanh(float32(val))
				}
			}
		}(b)
	}
	wg.Wait()
}

// rnnBackward is backpropagation through time. dhidden must already hold the
// gradient flowing into the final hidden state of each example (seeded by
// headBackward); it is consumed back-to-front and extended with the recurrent
// term at every step. Weight gradients are shared across the batch so this
// stays single-threaded.
func rnnBackward(demb, dwxh, dwhh, dbias, dhidden []float32, hidden, emb, wxh, whh []float32, lengths []int32, B, T, C, H int) {
	for b := 0; b < B; b++ {
		for t := int(lengths[b]) - 1; t >= 0; t-- {
			h := hidden[b*T*H+t*H:]
			dh := dhidden[b*T*H+t*H:]
			x := emb[b*T*C+t*C:]
			dx := demb[b*T*C+t*C:]
			var hPrev, dhPrev []float32
			if t > 0 {
				hPrev = hidden[b*T*H+(t-1)*H:]
				dhPrev = dhidden[b*T*H+(t-1)*H:]
			}
			for j := 0; j < H; j++ {
				// d/dz tanh(z) = 1 - tanh(z)^2
				dpre := dh[j] * (1.0 - h[j]*h[j])
				dbias[j] += dpre
				wxhRow := wxh[j*C:]
				dwxhRow := dwxh[j*C:]
				for i := 0; i < C; i++ {
					dwxhRow[i] += dpre * x[i]
					dx[i] += wxhRow[i] * dpre
				}
				if t > 0 {
					whhRow := whh[j*H:]
					dwhhRow := dwhh[j*H:]
					for k := 0; k < H; k++ {
						dwhhRow[k] += dpre * hPrev[k]
						dhPrev[k] += whhRow[k] * dpre
					}
				}
			}
		}
	}
}

// headForward projects each example's final hidden state down to one logit.
func headForward(logits, hidden, w, bias []float32, lengths []int32, B, T, H int) {
	for b := 0; b < B; b++ {
		last := int(lengths[b]) - 1
		h := hidden[b*T*H+last*H:]
		val := float64(bias[0])
		for j := 0; j < H; j++ {
			val += float64(w[j]) * float64(h[j])
		}
		logits[b] = float32(val)
	}
}

// headBackward seeds the hidden-state gradient at each example's final step.
func headBackward(dhidden, dw, dbias, dlogits, hidden, w []float32, lengths []int32, B, T, H int) {
	for b := 0; b < B; b++ {
		last := int(lengths[b]) - 1
		h := hidden[b*T*H+last*H:]
		dh := dhidden[b*T*H+last*H:]
		d := dlogits[b]
		dbias[0] += d
		for j := 0; j < H; j++ {
			dw[j] += h[j] * d
			dh[j] += w[j] * d
		}
	}
}

// sigmoidBCEForward computes per-example sigmoid probabilities and binary
// cross-entropy losses from the logits. The loss uses the numerically stable
// form max(z,0) - z*y + log(1 + exp(-|z|)) so large logits don't overflow.
func sigmoidBCEForward(losses, probs, logits, targets []float32, B int) {
	for b := 0; b < B; b++ {
		z := logits[b]
		y := targets[b]
		probs[b] = 1.0 / (1.0 + Exp(-z))
		zMax := z
		if zMax < 0 {
			zMax = 0
		}
		losses[b] = zMax - z*y + Log(1.0+Exp(-Abs(z)))
	}
}

// sigmoidBCEBackward folds the sigmoid and cross-entropy derivatives into the
// logit gradient: dL/dz = (sigmoid(z) - y).
func sigmoidBCEBackward(dlogits, dlosses, probs, targets []float32, B int) {
	for b := 0; b < B; b++ {
		dlogits[b] += (probs[b] - targets[b]) * dlosses[b]
	}
}
