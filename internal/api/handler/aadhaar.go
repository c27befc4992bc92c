package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// AadhaarVerifier runs the card verification pipeline
type AadhaarVerifier interface {
	Verify(ctx context.Context, aadhaarURL, faceURL string) (*domain.VerificationResult, error)
}

// AadhaarHandler serves POST /validate-aadhaar
type AadhaarHandler struct {
	service AadhaarVerifier
	logger  *slog.Logger
}

func NewAadhaarHandler(service AadhaarVerifier, logger *slog.Logger) *AadhaarHandler {
	return &AadhaarHandler{
		service: service,
		logger:  logger,
	}
}

// ValidateAadhaarRequest is the request body of POST /validate-aadhaar
type ValidateAadhaarRequest struct {
	AadhaarURL  string `json:"aadhaar_url" validate:"required"`
	UserFaceURL string `json:"user_face_url" validate:"required"`
}

// ValidateAadhaarResponse is the success body of POST /validate-aadhaar
type ValidateAadhaarResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    *domain.ExtractedRecord `json:"data"`
}

// Validate handles POST /validate-aadhaar.
// Errors are rendered by the error handler as {"success": false, "error": ...}.
func (h *AadhaarHandler) Validate(c *fiber.Ctx) error {
	var req ValidateAadhaarRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return domain.ErrInvalidRequest.WithMessage("Invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return domain.ErrInvalidRequest.WithMessage("Both Aadhaar and face images are required")
	}

	result, err := h.service.Verify(c.UserContext(), req.AadhaarURL, req.UserFaceURL)
	if err != nil {
		return err
	}

	h.logger.InfoContext(c.UserContext(), "aadhaar validated",
		slog.String("verification_id", result.ID.String()),
		slog.Int64("latency_ms", result.LatencyMs),
	)

	return c.JSON(ValidateAadhaarResponse{
		Success: true,
		Message: "Aadhaar validated",
		Data:    result.Data,
	})
}
