package idcard

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// MockTextExtractor answers by crop width so each region gets its own text
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	args := m.Called(ctx, img.Bounds().Dx())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func region(label provider.FieldLabel, x0, width int) provider.DetectedRegion {
	return provider.DetectedRegion{
		Label:      label,
		RawLabel:   label.String(),
		Box:        image.Rect(x0, 0, x0+width, 20),
		Confidence: 0.9,
	}
}

func newTestExtractor(ocr provider.TextExtractor) (*Extractor, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewExtractor(ocr, logger), &buf
}

func TestExtractor_Extract(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 400, 100))

	ocr := new(MockTextExtractor)
	ocr.On("ExtractText", mock.Anything, 10).Return([]string{"2345", "6789", "0124"}, nil)
	ocr.On("ExtractText", mock.Anything, 11).Return([]string{"Asha", "Kumari", "Rao"}, nil)
	ocr.On("ExtractText", mock.Anything, 12).Return([]string{"FE", "MALE"}, nil)
	ocr.On("ExtractText", mock.Anything, 13).Return([]string{"01/01/", "1990"}, nil)

	e, _ := newTestExtractor(ocr)

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		region(provider.LabelIdentifier, 0, 10),
		region(provider.LabelName, 20, 11),
		region(provider.LabelGender, 40, 12),
		region(provider.LabelDateOfBirth, 60, 13),
	})

	assert.Equal(t, domain.ExtractedRecord{
		IsValid:     true,
		Identifier:  "234567890124",
		Name:        "Asha Kumari Rao",
		Gender:      "FEMALE",
		DateOfBirth: "01/01/1990",
	}, record)
	ocr.AssertExpectations(t)
}

func TestExtractor_ZeroDetections(t *testing.T) {
	ocr := new(MockTextExtractor)
	e, _ := newTestExtractor(ocr)

	record := e.Extract(context.Background(), image.NewRGBA(image.Rect(0, 0, 10, 10)), nil)

	assert.Equal(t, domain.ExtractedRecord{}, record)
	assert.False(t, record.IsValid)
	ocr.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestExtractor_LastRegionWins(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 400, 100))

	ocr := new(MockTextExtractor)
	ocr.On("ExtractText", mock.Anything, 10).Return([]string{"FIRST"}, nil)
	ocr.On("ExtractText", mock.Anything, 11).Return([]string{"SECOND"}, nil)

	e, _ := newTestExtractor(ocr)

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		region(provider.LabelName, 0, 10),
		region(provider.LabelName, 50, 11),
	})

	assert.Equal(t, "SECOND", record.Name)
}

func TestExtractor_SkipsUnknownLabels(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 400, 100))

	ocr := new(MockTextExtractor)
	ocr.On("ExtractText", mock.Anything, 12).Return([]string{"MALE"}, nil)

	e, logs := newTestExtractor(ocr)

	unknown := region(provider.LabelUnknown, 0, 10)
	unknown.RawLabel = "ADDRESS"

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		unknown,
		region(provider.LabelGender, 40, 12),
	})

	assert.Equal(t, "MALE", record.Gender)
	assert.Empty(t, record.Identifier)
	assert.Contains(t, logs.String(), "ADDRESS")
	ocr.AssertNumberOfCalls(t, "ExtractText", 1)
}

func TestExtractor_OCRFailureEmptiesOnlyThatField(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 400, 100))

	ocr := new(MockTextExtractor)
	ocr.On("ExtractText", mock.Anything, 10).Return([]string{"499112345677"}, nil)
	ocr.On("ExtractText", mock.Anything, 11).Return(nil, errors.New("ocr backend down"))

	e, logs := newTestExtractor(ocr)

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		region(provider.LabelIdentifier, 0, 10),
		region(provider.LabelName, 20, 11),
	})

	assert.True(t, record.IsValid)
	assert.Equal(t, "499112345677", record.Identifier)
	assert.Empty(t, record.Name)
	assert.Contains(t, logs.String(), "ocr backend down")
}

func TestExtractor_BoxOutsideImage(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 100, 100))
	ocr := new(MockTextExtractor)
	e, _ := newTestExtractor(ocr)

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		region(provider.LabelIdentifier, 500, 10),
	})

	require.Empty(t, record.Identifier)
	assert.False(t, record.IsValid)
	ocr.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestExtractor_InvalidChecksum(t *testing.T) {
	card := image.NewRGBA(image.Rect(0, 0, 100, 100))

	ocr := new(MockTextExtractor)
	ocr.On("ExtractText", mock.Anything, 10).Return([]string{"2345 6789 0123"}, nil)

	e, _ := newTestExtractor(ocr)

	record := e.Extract(context.Background(), card, []provider.DetectedRegion{
		region(provider.LabelIdentifier, 0, 10),
	})

	assert.Equal(t, "2345 6789 0123", record.Identifier)
	assert.False(t, record.IsValid)
}
