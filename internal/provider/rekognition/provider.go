package rekognition

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	providerName = "rekognition"
)

// Provider implements region detection, OCR, face detection and face
// verification on AWS Rekognition
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var (
	_ provider.RegionDetector = (*Provider)(nil)
	_ provider.TextExtractor  = (*Provider)(nil)
	_ provider.FaceDetector   = (*Provider)(nil)
	_ provider.FaceVerifier   = (*Provider)(nil)
)

// NewProvider creates a new Rekognition provider using the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithClient(client, opts...), nil
}

// NewProviderWithClient creates a provider on an existing client
func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, eventType audit.EventType, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: eventType,
		Provider:  providerName,
		Success:   success,
		Metadata:  metadata,
	}

	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(data []byte) error {
	if len(data) == 0 {
		return ErrInvalidImage
	}
	if len(data) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(data), minImageSize)
	}
	if len(data) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(data), maxImageSize)
	}
	return nil
}

// encodeImage turns a decoded image into the JPEG bytes Rekognition accepts
func encodeImage(img image.Image) (*types.Image, error) {
	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := validateImage(data); err != nil {
		return nil, err
	}
	return &types.Image{Bytes: data}, nil
}

// DetectRegions runs the Custom Labels card model and returns the labelled
// field boxes in pixel coordinates. Labels without geometry are skipped.
func (p *Provider) DetectRegions(ctx context.Context, img image.Image) ([]provider.DetectedRegion, error) {
	if p.client.config.ProjectVersionARN == "" {
		return nil, ErrModelNotConfigured
	}

	rekImage, err := encodeImage(img)
	if err != nil {
		p.logAudit(ctx, audit.EventRegionsDetected, false, err, nil)
		return nil, err
	}

	output, err := p.client.rekognition.DetectCustomLabels(ctx, &rekognition.DetectCustomLabelsInput{
		Image:             rekImage,
		ProjectVersionArn: aws.String(p.client.config.ProjectVersionARN),
		MinConfidence:     aws.Float32(float32(p.client.config.MinConfidence)),
	})
	if err != nil {
		err = parseAPIError(err)
		p.logAudit(ctx, audit.EventRegionsDetected, false, err, nil)
		return nil, fmt.Errorf("detect custom labels: %w", err)
	}

	bounds := img.Bounds()
	regions := make([]provider.DetectedRegion, 0, len(output.CustomLabels))
	for _, label := range output.CustomLabels {
		if label.Geometry == nil {
			continue
		}
		box, ok := ratioBox(bounds, label.Geometry.BoundingBox)
		if !ok {
			continue
		}

		name := aws.ToString(label.Name)
		regions = append(regions, provider.DetectedRegion{
			Label:      provider.ParseFieldLabel(name),
			RawLabel:   name,
			Box:        box,
			Confidence: float64(aws.ToFloat32(label.Confidence)) / 100,
		})
	}

	p.logAudit(ctx, audit.EventRegionsDetected, true, nil, map[string]string{
		"regions_count": strconv.Itoa(len(regions)),
	})

	return regions, nil
}

// ExtractText returns the LINE detections in service order
func (p *Provider) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	rekImage, err := encodeImage(img)
	if err != nil {
		p.logAudit(ctx, audit.EventTextDetected, false, err, nil)
		return nil, err
	}

	output, err := p.client.rekognition.DetectText(ctx, &rekognition.DetectTextInput{
		Image: rekImage,
	})
	if err != nil {
		err = parseAPIError(err)
		p.logAudit(ctx, audit.EventTextDetected, false, err, nil)
		return nil, fmt.Errorf("detect text: %w", err)
	}

	lines := make([]string, 0, len(output.TextDetections))
	for _, detection := range output.TextDetections {
		if detection.Type != types.TextTypesLine {
			continue
		}
		if text := aws.ToString(detection.DetectedText); text != "" {
			lines = append(lines, text)
		}
	}

	p.logAudit(ctx, audit.EventTextDetected, true, nil, map[string]string{
		"lines_count": strconv.Itoa(len(lines)),
	})

	return lines, nil
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	rekImage, err := encodeImage(img)
	if err != nil {
		p.logAudit(ctx, audit.EventFacesDetected, false, err, nil)
		return nil, err
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      rekImage,
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		err = parseAPIError(err)
		p.logAudit(ctx, audit.EventFacesDetected, false, err, nil)
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	bounds := img.Bounds()
	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		box, ok := ratioBox(bounds, detail.BoundingBox)
		if !ok {
			continue
		}
		faces = append(faces, provider.DetectedFace{
			Box:        box,
			Confidence: float64(aws.ToFloat32(detail.Confidence)) / 100,
		})
	}

	p.logAudit(ctx, audit.EventFacesDetected, true, nil, map[string]string{
		"faces_count": strconv.Itoa(len(faces)),
	})

	return faces, nil
}

// VerifyFaces compares the largest face of img1 against the faces of img2.
// The best similarity becomes the distance 1 - similarity/100; the pair is
// verified when it reaches the configured similarity threshold.
func (p *Provider) VerifyFaces(ctx context.Context, img1, img2 image.Image) (*provider.FaceVerification, error) {
	source, err := encodeImage(img1)
	if err != nil {
		p.logAudit(ctx, audit.EventFacesVerified, false, err, nil)
		return nil, err
	}
	target, err := encodeImage(img2)
	if err != nil {
		p.logAudit(ctx, audit.EventFacesVerified, false, err, nil)
		return nil, err
	}

	// Threshold zero makes every target face a candidate so the best
	// similarity is known even for non-matches.
	output, err := p.client.rekognition.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         source,
		TargetImage:         target,
		SimilarityThreshold: aws.Float32(0),
	})
	if err != nil {
		err = ParseNoFaceError(err)
		p.logAudit(ctx, audit.EventFacesVerified, false, err, nil)
		return nil, fmt.Errorf("compare faces: %w", err)
	}

	var best float64
	for _, match := range output.FaceMatches {
		best = math.Max(best, float64(aws.ToFloat32(match.Similarity)))
	}

	threshold := p.client.config.SimilarityThreshold
	result := &provider.FaceVerification{
		Verified:  len(output.FaceMatches) > 0 && best >= threshold,
		Distance:  1 - best/100,
		Threshold: 1 - threshold/100,
		Model:     providerName,
	}

	p.logAudit(ctx, audit.EventFacesVerified, true, nil, map[string]string{
		"similarity": strconv.FormatFloat(best, 'f', 2, 64),
		"verified":   strconv.FormatBool(result.Verified),
	})

	return result, nil
}

// ratioBox converts a Rekognition ratio bounding box into pixels of bounds.
// Boxes missing a dimension or falling outside the image are rejected.
func ratioBox(bounds image.Rectangle, bb *types.BoundingBox) (image.Rectangle, bool) {
	if bb == nil || bb.Left == nil || bb.Top == nil || bb.Width == nil || bb.Height == nil {
		return image.Rectangle{}, false
	}

	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	left, top := float64(*bb.Left), float64(*bb.Top)
	right, bottom := left+float64(*bb.Width), top+float64(*bb.Height)

	box := image.Rect(
		int(math.Round(left*w)), int(math.Round(top*h)),
		int(math.Round(right*w)), int(math.Round(bottom*h)),
	).Add(bounds.Min).Intersect(bounds)

	if box.Empty() {
		return image.Rectangle{}, false
	}
	return box, true
}
