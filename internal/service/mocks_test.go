package service

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

type MockRegionDetector struct {
	mock.Mock
}

func (m *MockRegionDetector) DetectRegions(ctx context.Context, img image.Image) ([]provider.DetectedRegion, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedRegion), args.Error(1)
}

type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockFaceDetector struct {
	mock.Mock
}

func (m *MockFaceDetector) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

type MockFaceVerifier struct {
	mock.Mock
}

func (m *MockFaceVerifier) VerifyFaces(ctx context.Context, img1, img2 image.Image) (*provider.FaceVerification, error) {
	args := m.Called(ctx, img1, img2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.FaceVerification), args.Error(1)
}

type MockLandmarkPredictor struct {
	mock.Mock
}

func (m *MockLandmarkPredictor) PredictLandmarks(ctx context.Context, img image.Image) ([]domain.LandmarkSet, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LandmarkSet), args.Error(1)
}

// recordingAuditLogger keeps events for assertions; pipelines log from
// several goroutines
type recordingAuditLogger struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAuditLogger) Log(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAuditLogger) types() []audit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]audit.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

func (r *recordingAuditLogger) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func patterned(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*3) + seed, G: uint8(y*5) ^ seed, B: uint8(x*y) + seed, A: 255})
		}
	}
	return img
}
