package facial

import (
	"context"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// Locator crops the first detected face out of an image
type Locator struct {
	detector provider.FaceDetector
	logger   *slog.Logger
}

func NewLocator(detector provider.FaceDetector, logger *slog.Logger) *Locator {
	return &Locator{
		detector: detector,
		logger:   logger.With("component", "face_locator"),
	}
}

// Locate returns the crop of the first face in detector order. It never
// fails: detector errors, zero detections and boxes that fall outside the
// image all report false.
func (l *Locator) Locate(ctx context.Context, img image.Image) (image.Image, bool) {
	faces, err := l.detector.DetectFaces(ctx, img)
	if err != nil {
		l.logger.WarnContext(ctx, "face detection failed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	if len(faces) == 0 {
		return nil, false
	}

	crop := imaging.Crop(img, faces[0].Box)
	if crop == nil {
		l.logger.WarnContext(ctx, "face box outside image",
			slog.String("box", faces[0].Box.String()),
			slog.String("bounds", img.Bounds().String()),
		)
		return nil, false
	}

	return crop, true
}
