package facial

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// DefaultTargetLayer is the last convolutional layer of VGG16
const DefaultTargetLayer = "block5_conv3"

var (
	ErrNoPrediction  = errors.New("classifier returned no class probabilities")
	ErrShapeMismatch = errors.New("gradient shape does not match activations")
	ErrEmptyTensor   = errors.New("empty activation tensor")
)

// Heatmap computes a Grad-CAM saliency map of the classifier's top class for
// img. The grid has the target layer's spatial size and lies in [0, 1].
func Heatmap(ctx context.Context, img image.Image, classifier provider.Classifier, layer string) (domain.Grid, error) {
	size := classifier.InputSize()
	input := imaging.Resize(img, size, size)

	pass, err := classifier.Forward(ctx, input, layer)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	class, ok := argmax(pass.Probabilities)
	if !ok {
		return nil, ErrNoPrediction
	}

	grads, err := classifier.Gradients(ctx, input, layer, class)
	if err != nil {
		return nil, fmt.Errorf("gradients for class %d: %w", class, err)
	}

	return computeGradCAM(pass.Activations, grads)
}

// computeGradCAM weights each activation channel by its spatially averaged
// gradient, averages over channels, rectifies and normalises by the maximum.
// A map with no positive signal, or built from an activation tensor holding
// a single value, comes back all zero.
func computeGradCAM(activations, grads provider.Tensor) (domain.Grid, error) {
	h, w, c := activations.Shape()
	if h == 0 || w == 0 || c == 0 {
		return nil, ErrEmptyTensor
	}
	if err := checkShape(grads, h, w, c); err != nil {
		return nil, err
	}
	if err := checkShape(activations, h, w, c); err != nil {
		return nil, err
	}

	weights := make([]float64, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := 0; k < c; k++ {
				weights[k] += grads[y][x][k]
			}
		}
	}
	for k := range weights {
		weights[k] /= float64(h * w)
	}

	grid := make(domain.Grid, h)
	hi := 0.0
	for y := 0; y < h; y++ {
		grid[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			var v float64
			for k := 0; k < c; k++ {
				v += activations[y][x][k] * weights[k]
			}
			v /= float64(c)
			if v < 0 {
				v = 0
			}
			grid[y][x] = v
			hi = max(hi, v)
		}
	}

	if hi <= 0 || uniform(activations) {
		for y := range grid {
			clear(grid[y])
		}
		return grid, nil
	}

	for y := range grid {
		for x := range grid[y] {
			grid[y][x] /= hi
		}
	}

	return grid, nil
}

// uniform reports whether every activation in the tensor has the same value
func uniform(t provider.Tensor) bool {
	first := t[0][0][0]
	for y := range t {
		for x := range t[y] {
			for _, v := range t[y][x] {
				if v != first {
					return false
				}
			}
		}
	}
	return true
}

func checkShape(t provider.Tensor, h, w, c int) error {
	if len(t) != h {
		return fmt.Errorf("%w: %d rows, want %d", ErrShapeMismatch, len(t), h)
	}
	for y := range t {
		if len(t[y]) != w {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, y, len(t[y]), w)
		}
		for x := range t[y] {
			if len(t[y][x]) != c {
				return fmt.Errorf("%w: cell (%d,%d) has %d channels, want %d", ErrShapeMismatch, y, x, len(t[y][x]), c)
			}
		}
	}
	return nil
}

// argmax returns the index of the largest value, first one on ties
func argmax(values []float64) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best, true
}
