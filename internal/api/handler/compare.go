package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// FaceComparer produces an explainable comparison of two face images
type FaceComparer interface {
	Compare(ctx context.Context, url1, url2 string) (*domain.ComparisonReport, error)
}

// CompareHandler serves GET /compare-faces
type CompareHandler struct {
	service FaceComparer
	logger  *slog.Logger
}

func NewCompareHandler(service FaceComparer, logger *slog.Logger) *CompareHandler {
	return &CompareHandler{
		service: service,
		logger:  logger,
	}
}

// CompareFacesQuery holds the GET /compare-faces query parameters
type CompareFacesQuery struct {
	Image1URL string `query:"image1_url" validate:"required"`
	Image2URL string `query:"image2_url" validate:"required"`
}

// Compare handles GET /compare-faces and returns the ComparisonReport as is
func (h *CompareHandler) Compare(c *fiber.Ctx) error {
	var q CompareFacesQuery
	if err := c.QueryParser(&q); err != nil {
		return domain.ErrInvalidRequest.WithMessage("Both image URLs are required")
	}

	if err := validate.Struct(q); err != nil {
		return domain.ErrInvalidRequest.WithMessage("Both image URLs are required")
	}

	report, err := h.service.Compare(c.UserContext(), q.Image1URL, q.Image2URL)
	if err != nil {
		return err
	}

	h.logger.InfoContext(c.UserContext(), "faces compared",
		slog.Float64("match_percentage", report.MatchPercentage),
		slog.String("confidence_level", report.AnalysisSummary.ConfidenceLevel),
	)

	return c.JSON(report)
}
