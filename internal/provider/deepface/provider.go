package deepface

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements face detection and verification on the DeepFace API
type Provider struct {
	client *Client
	model  string
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		model:  config.Model,
	}
}

// DetectFaces returns the pixel boxes DeepFace finds, in its output order.
// DeepFace answers "no face" with a 400; that becomes an empty result.
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	uri, err := imaging.DataURI(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	resp, err := p.client.Represent(ctx, uri)
	if err != nil {
		if isNoFaceError(err) {
			return []provider.DetectedFace{}, nil
		}
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	origin := img.Bounds().Min
	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.FacialArea
		if area.W <= 0 || area.H <= 0 {
			continue
		}

		confidence := calculateConfidence(float64(area.W * area.H))
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}

		faces = append(faces, provider.DetectedFace{
			Box:        image.Rect(area.X, area.Y, area.X+area.W, area.Y+area.H).Add(origin),
			Confidence: confidence,
		})
	}

	return faces, nil
}

// calculateConfidence estimates confidence from face area for DeepFace
// versions that do not report face_confidence
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// VerifyFaces asks DeepFace whether two images show the same person. The
// images are compared whole: detection is not enforced, so inputs that are
// already face crops are used as they are.
func (p *Provider) VerifyFaces(ctx context.Context, img1, img2 image.Image) (*provider.FaceVerification, error) {
	uri1, err := imaging.DataURI(img1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	uri2, err := imaging.DataURI(img2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	resp, err := p.client.Verify(ctx, uri1, uri2, false)
	if err != nil {
		return nil, fmt.Errorf("verify faces: %w", err)
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return &provider.FaceVerification{
		Verified:  resp.Verified,
		Distance:  resp.Distance,
		Threshold: resp.Threshold,
		Model:     model,
	}, nil
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.FaceVerifier = (*Provider)(nil)
)
