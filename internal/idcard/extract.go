package idcard

import (
	"context"
	"image"
	"log/slog"
	"strings"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// Extractor turns detected card regions into an ExtractedRecord
type Extractor struct {
	ocr    provider.TextExtractor
	logger *slog.Logger
}

func NewExtractor(ocr provider.TextExtractor, logger *slog.Logger) *Extractor {
	return &Extractor{
		ocr:    ocr,
		logger: logger.With("component", "field_extractor"),
	}
}

// Extract reads every recognised region and validates the identifier.
// Regions are processed in detector order, so when a label repeats the last
// region wins. Unknown labels are skipped. A region whose crop is empty or
// whose OCR call fails leaves its field empty.
func (e *Extractor) Extract(ctx context.Context, img image.Image, regions []provider.DetectedRegion) domain.ExtractedRecord {
	var record domain.ExtractedRecord

	for _, region := range regions {
		var field *string
		sep := ""

		switch region.Label {
		case provider.LabelIdentifier:
			field = &record.Identifier
		case provider.LabelName:
			field = &record.Name
			sep = " "
		case provider.LabelGender:
			field = &record.Gender
		case provider.LabelDateOfBirth:
			field = &record.DateOfBirth
		case provider.LabelUnknown:
			e.logger.DebugContext(ctx, "skipping unrecognised region",
				slog.String("label", region.RawLabel),
			)
			continue
		default:
			continue
		}

		*field = e.readRegion(ctx, img, region, sep)
	}

	record.IsValid = ValidateAadhaar(record.Identifier)

	e.logger.DebugContext(ctx, "fields extracted",
		slog.Int("regions", len(regions)),
		slog.Bool("is_valid", record.IsValid),
	)

	return record
}

func (e *Extractor) readRegion(ctx context.Context, img image.Image, region provider.DetectedRegion, sep string) string {
	crop := imaging.Crop(img, region.Box)
	if crop == nil {
		return ""
	}

	tokens, err := e.ocr.ExtractText(ctx, crop)
	if err != nil {
		e.logger.WarnContext(ctx, "text extraction failed",
			slog.String("label", region.Label.String()),
			slog.String("error", err.Error()),
		)
		return ""
	}

	return strings.Join(tokens, sep)
}
