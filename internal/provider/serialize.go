package provider

import (
	"context"
	"image"
	"sync"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// Serialize wraps every handle in the set with its own mutex so that at most
// one inference call runs per model at a time. Use it for backends that are
// not documented as safe for concurrent inference.
func Serialize(s Set) Set {
	out := s
	if s.Regions != nil {
		out.Regions = &lockedRegions{next: s.Regions}
	}
	if s.Text != nil {
		out.Text = &lockedText{next: s.Text}
	}
	if s.Faces != nil {
		out.Faces = &lockedFaces{next: s.Faces}
	}
	if s.Verifier != nil {
		out.Verifier = &lockedVerifier{next: s.Verifier}
	}
	if s.Landmarks != nil {
		out.Landmarks = &lockedLandmarks{next: s.Landmarks}
	}
	if s.Classifier != nil {
		out.Classifier = &lockedClassifier{next: s.Classifier}
	}
	return out
}

type lockedRegions struct {
	mu   sync.Mutex
	next RegionDetector
}

func (l *lockedRegions) DetectRegions(ctx context.Context, img image.Image) ([]DetectedRegion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.DetectRegions(ctx, img)
}

type lockedText struct {
	mu   sync.Mutex
	next TextExtractor
}

func (l *lockedText) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.ExtractText(ctx, img)
}

type lockedFaces struct {
	mu   sync.Mutex
	next FaceDetector
}

func (l *lockedFaces) DetectFaces(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.DetectFaces(ctx, img)
}

type lockedVerifier struct {
	mu   sync.Mutex
	next FaceVerifier
}

func (l *lockedVerifier) VerifyFaces(ctx context.Context, img1, img2 image.Image) (*FaceVerification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.VerifyFaces(ctx, img1, img2)
}

type lockedLandmarks struct {
	mu   sync.Mutex
	next LandmarkPredictor
}

func (l *lockedLandmarks) PredictLandmarks(ctx context.Context, img image.Image) ([]domain.LandmarkSet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.PredictLandmarks(ctx, img)
}

// The classifier lock covers one call, not the forward/backward pair; both
// passes are pure functions of the image.
type lockedClassifier struct {
	mu   sync.Mutex
	next Classifier
}

func (l *lockedClassifier) InputSize() int {
	return l.next.InputSize()
}

func (l *lockedClassifier) Forward(ctx context.Context, img image.Image, layer string) (*ForwardPass, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.Forward(ctx, img, layer)
}

func (l *lockedClassifier) Gradients(ctx context.Context, img image.Image, layer string, class int) (Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.Gradients(ctx, img, layer, class)
}
