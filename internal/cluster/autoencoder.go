package cluster

import (
	"math"
	"math/rand"
)

// Adam optimizer constants.
const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// denseLayer is one fully connected layer with per-parameter Adam state.
type denseLayer struct {
	in, out int
	w       []float64 // row-major, out x in
	b       []float64

	mw, vw []float64
	mb, vb []float64
}

func newDenseLayer(in, out int, rng *rand.Rand) *denseLayer {
	l := &denseLayer{
		in: in, out: out,
		w:  make([]float64, out*in),
		b:  make([]float64, out),
		mw: make([]float64, out*in),
		vw: make([]float64, out*in),
		mb: make([]float64, out),
		vb: make([]float64, out),
	}
	// He initialization for the ReLU stack.
	scale := math.Sqrt(2 / float64(in))
	for i := range l.w {
		l.w[i] = rng.NormFloat64() * scale
	}
	return l
}

// autoencoder is a symmetric MLP: input -> hidden layers -> encoding ->
// mirrored hidden layers -> input. Hidden activations are ReLU, the output
// layer is linear, and training minimizes mean squared reconstruction error
// with mini-batch Adam.
type autoencoder struct {
	layers   []*denseLayer
	encodeAt int // layers[:encodeAt] form the encoder
	lr       float64
	step     int
}

// newAutoencoder builds the layer stack [in, hidden..., enc, reversed
// hidden..., in].
func newAutoencoder(inputDim, encodingDim int, hidden []int, lr float64, rng *rand.Rand) *autoencoder {
	sizes := []int{inputDim}
	sizes = append(sizes, hidden...)
	sizes = append(sizes, encodingDim)
	for i := len(hidden) - 1; i >= 0; i-- {
		sizes = append(sizes, hidden[i])
	}
	sizes = append(sizes, inputDim)

	ae := &autoencoder{
		encodeAt: len(hidden) + 1,
		lr:       lr,
	}
	for i := 0; i+1 < len(sizes); i++ {
		ae.layers = append(ae.layers, newDenseLayer(sizes[i], sizes[i+1], rng))
	}
	return ae
}

// forward runs one sample through the network, recording pre-activations
// and activations per layer for backprop. acts[0] is the input.
func (ae *autoencoder) forward(x []float64) (acts [][]float64, pre [][]float64) {
	acts = make([][]float64, len(ae.layers)+1)
	pre = make([][]float64, len(ae.layers))
	acts[0] = x
	for li, l := range ae.layers {
		z := make([]float64, l.out)
		a := acts[li]
		for o := 0; o < l.out; o++ {
			sum := l.b[o]
			row := l.w[o*l.in : (o+1)*l.in]
			for i, v := range a {
				sum += row[i] * v
			}
			z[o] = sum
		}
		pre[li] = z
		out := make([]float64, l.out)
		if li == len(ae.layers)-1 {
			copy(out, z)
		} else {
			for o, v := range z {
				if v > 0 {
					out[o] = v
				}
			}
		}
		acts[li+1] = out
	}
	return acts, pre
}

// Train runs mini-batch gradient descent for the given number of epochs,
// shuffling sample order each epoch. Returns the final-epoch mean squared
// reconstruction error.
func (ae *autoencoder) Train(x [][]float64, epochs, batchSize int, rng *rand.Rand) float64 {
	n := len(x)
	if batchSize <= 0 || batchSize > n {
		batchSize = n
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	lastLoss := 0.0
	for epoch := 0; epoch < epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		epochLoss := 0.0
		for start := 0; start < n; start += batchSize {
			end := start + batchSize
			if end > n {
				end = n
			}
			epochLoss += ae.trainBatch(x, order[start:end])
		}
		lastLoss = epochLoss / float64(n)
	}
	return lastLoss
}

// trainBatch accumulates gradients over the batch, applies one Adam step,
// and returns the summed per-sample squared-error loss.
func (ae *autoencoder) trainBatch(x [][]float64, idx []int) float64 {
	gw := make([][]float64, len(ae.layers))
	gb := make([][]float64, len(ae.layers))
	for li, l := range ae.layers {
		gw[li] = make([]float64, len(l.w))
		gb[li] = make([]float64, len(l.b))
	}

	loss := 0.0
	outDim := ae.layers[len(ae.layers)-1].out
	for _, s := range idx {
		acts, pre := ae.forward(x[s])
		recon := acts[len(acts)-1]

		// dL/dz for the linear output layer under MSE.
		delta := make([]float64, outDim)
		for o := range delta {
			diff := recon[o] - x[s][o]
			loss += diff * diff / float64(outDim)
			delta[o] = 2 * diff / float64(outDim)
		}

		for li := len(ae.layers) - 1; li >= 0; li-- {
			l := ae.layers[li]
			a := acts[li]
			for o := 0; o < l.out; o++ {
				gb[li][o] += delta[o]
				row := gw[li][o*l.in : (o+1)*l.in]
				for i, v := range a {
					row[i] += delta[o] * v
				}
			}
			if li == 0 {
				break
			}
			prev := make([]float64, l.in)
			for i := 0; i < l.in; i++ {
				sum := 0.0
				for o := 0; o < l.out; o++ {
					sum += l.w[o*l.in+i] * delta[o]
				}
				if pre[li-1][i] <= 0 {
					sum = 0
				}
				prev[i] = sum
			}
			delta = prev
		}
	}

	scale := 1 / float64(len(idx))
	ae.step++
	for li, l := range ae.layers {
		adamUpdate(l.w, gw[li], l.mw, l.vw, ae.lr, ae.step, scale)
		adamUpdate(l.b, gb[li], l.mb, l.vb, ae.lr, ae.step, scale)
	}
	return loss
}

func adamUpdate(param, grad, m, v []float64, lr float64, step int, scale float64) {
	c1 := 1 - math.Pow(adamBeta1, float64(step))
	c2 := 1 - math.Pow(adamBeta2, float64(step))
	for i := range param {
		g := grad[i] * scale
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g*g
		param[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEps)
	}
}

// Encode maps rows to the bottleneck representation.
func (ae *autoencoder) Encode(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		a := row
		for li := 0; li < ae.encodeAt; li++ {
			l := ae.layers[li]
			z := make([]float64, l.out)
			for o := 0; o < l.out; o++ {
				sum := l.b[o]
				wr := l.w[o*l.in : (o+1)*l.in]
				for j, v := range a {
					sum += wr[j] * v
				}
				// The bottleneck layer is still ReLU, matching the
				// symmetric hidden stack.
				if sum > 0 {
					z[o] = sum
				}
			}
			a = z
		}
		out[i] = a
	}
	return out
}

// ReconstructionError returns the mean squared error of reconstructing x.
func (ae *autoencoder) ReconstructionError(x [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range x {
		acts, _ := ae.forward(row)
		recon := acts[len(acts)-1]
		for o, v := range recon {
			diff := v - row[o]
			total += diff * diff
		}
	}
	return total / float64(len(x)*len(x[0]))
}
