package modelserver

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// Provider exposes the model server's card detector, OCR, landmark and
// classifier endpoints as provider capabilities
type Provider struct {
	client    *Client
	inputSize int
}

var (
	_ provider.RegionDetector    = (*Provider)(nil)
	_ provider.TextExtractor     = (*Provider)(nil)
	_ provider.LandmarkPredictor = (*Provider)(nil)
	_ provider.Classifier        = (*Provider)(nil)
)

// NewProvider creates a new model server provider
func NewProvider(config Config) *Provider {
	inputSize := config.InputSize
	if inputSize <= 0 {
		inputSize = DefaultConfig().InputSize
	}
	return &Provider{
		client:    NewClient(config),
		inputSize: inputSize,
	}
}

func encode(img image.Image) (string, error) {
	data, err := imaging.Base64(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	return data, nil
}

// DetectRegions returns the card field boxes in detector output order.
// Boxes are clipped to the image; boxes left empty are dropped.
func (p *Provider) DetectRegions(ctx context.Context, img image.Image) ([]provider.DetectedRegion, error) {
	data, err := encode(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.DetectRegions(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("detect regions: %w", err)
	}

	bounds := img.Bounds()
	regions := make([]provider.DetectedRegion, 0, len(resp.Detections))
	for _, det := range resp.Detections {
		box := image.Rect(
			int(math.Floor(det.Box[0])), int(math.Floor(det.Box[1])),
			int(math.Ceil(det.Box[2])), int(math.Ceil(det.Box[3])),
		).Add(bounds.Min).Intersect(bounds)
		if box.Empty() {
			continue
		}

		regions = append(regions, provider.DetectedRegion{
			Label:      provider.ParseFieldLabel(det.Label),
			RawLabel:   det.Label,
			Box:        box,
			Confidence: det.Confidence,
		})
	}

	return regions, nil
}

// ExtractText returns the OCR tokens in reading order
func (p *Provider) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	data, err := encode(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.OCR(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	if resp.Texts == nil {
		return []string{}, nil
	}
	return resp.Texts, nil
}

// PredictLandmarks returns one 68-point set per detected face
func (p *Provider) PredictLandmarks(ctx context.Context, img image.Image) ([]domain.LandmarkSet, error) {
	data, err := encode(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Landmarks(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("landmarks: %w", err)
	}

	origin := img.Bounds().Min
	sets := make([]domain.LandmarkSet, 0, len(resp.Faces))
	for i, points := range resp.Faces {
		set, err := domain.NewLandmarkSet(points)
		if err != nil {
			return nil, fmt.Errorf("%w: face %d: %v", ErrInvalidResponse, i, err)
		}
		for j := range set {
			set[j] = set[j].Add(origin)
		}
		sets = append(sets, set)
	}

	return sets, nil
}

// InputSize is the square edge the classifier expects
func (p *Provider) InputSize() int {
	return p.inputSize
}

// Forward runs the classifier and captures the activations of layer
func (p *Provider) Forward(ctx context.Context, img image.Image, layer string) (*provider.ForwardPass, error) {
	data, err := encode(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Classify(ctx, data, layer)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	activations := provider.Tensor(resp.Activations)
	if h, w, c := activations.Shape(); h == 0 || w == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty activations for layer %q", ErrInvalidResponse, layer)
	}
	if len(resp.Probabilities) == 0 {
		return nil, fmt.Errorf("%w: no class probabilities", ErrInvalidResponse)
	}

	return &provider.ForwardPass{
		Activations:   activations,
		Probabilities: resp.Probabilities,
	}, nil
}

// Gradients returns the gradient of the class score with respect to layer
func (p *Provider) Gradients(ctx context.Context, img image.Image, layer string, class int) (provider.Tensor, error) {
	data, err := encode(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Gradients(ctx, data, layer, class)
	if err != nil {
		return nil, fmt.Errorf("gradients: %w", err)
	}

	grads := provider.Tensor(resp.Gradients)
	if h, w, c := grads.Shape(); h == 0 || w == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty gradients for layer %q", ErrInvalidResponse, layer)
	}
	return grads, nil
}
