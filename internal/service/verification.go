package service

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/facial"
	"github.com/saturnino-fabrica-de-software/idverify/internal/idcard"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

// ImageFetcher downloads and decodes the image behind a URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// VerificationService checks an Aadhaar card photo against a live face photo
type VerificationService struct {
	fetcher      ImageFetcher
	regions      provider.RegionDetector
	extractor    *idcard.Extractor
	locator      *facial.Locator
	matcher      *facial.Matcher
	auditLogger  audit.Logger
	providerName string
	logger       *slog.Logger
}

func NewVerificationService(fetcher ImageFetcher, providers provider.Set, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		fetcher:      fetcher,
		regions:      providers.Regions,
		extractor:    idcard.NewExtractor(providers.Text, logger),
		locator:      facial.NewLocator(providers.Faces, logger),
		matcher:      facial.NewMatcher(providers.Verifier, logger),
		auditLogger:  &audit.NoOpLogger{},
		providerName: "unknown",
		logger:       logger.With("component", "verification_service"),
	}
}

func (s *VerificationService) WithAuditLogger(logger audit.Logger) *VerificationService {
	s.auditLogger = logger
	return s
}

// WithProviderName sets the backend name stamped on audit events
func (s *VerificationService) WithProviderName(name string) *VerificationService {
	s.providerName = name
	return s
}

// Verify runs the card pipeline:
// START -> FIELDS_EXTRACTED -> USER_FACE_LOCATED -> FACE_COMPARED -> DONE.
// A rejection returns the partial result together with the AppError naming
// the reason; no extracted data is attached to a rejected result.
func (s *VerificationService) Verify(ctx context.Context, aadhaarURL, faceURL string) (*domain.VerificationResult, error) {
	start := time.Now()
	result := &domain.VerificationResult{
		ID:        uuid.New(),
		Stage:     domain.StageStart,
		CreatedAt: start.UTC(),
	}

	card, err := s.fetcher.Fetch(ctx, aadhaarURL)
	if err != nil {
		return s.reject(ctx, result, start, domain.ErrImageAcquisition.WithError(err))
	}

	regions, err := s.regions.DetectRegions(ctx, card)
	if err != nil {
		s.logger.WarnContext(ctx, "region detection failed, continuing with no regions",
			slog.String("error", err.Error()),
		)
		regions = nil
	}

	record := s.extractor.Extract(ctx, card, regions)
	s.logAudit(ctx, audit.EventFieldsExtracted, domain.StageStart, record.IsValid, nil, map[string]string{
		"regions_count": strconv.Itoa(len(regions)),
	})
	if !record.IsValid {
		return s.reject(ctx, result, start, domain.ErrInvalidAadhaar)
	}
	result.Stage = domain.StageFieldsExtracted

	cardFace, cardFound := s.locator.Locate(ctx, card)
	s.logAudit(ctx, audit.EventFaceLocated, result.Stage, cardFound, nil, map[string]string{
		"image": "aadhaar",
	})

	selfie, err := s.fetcher.Fetch(ctx, faceURL)
	if err != nil {
		return s.reject(ctx, result, start, domain.ErrImageAcquisition.WithError(err))
	}

	userFace, userFound := s.locator.Locate(ctx, selfie)
	s.logAudit(ctx, audit.EventFaceLocated, result.Stage, userFound, nil, map[string]string{
		"image": "user",
	})
	if !cardFound || !userFound {
		return s.reject(ctx, result, start, domain.ErrFaceDetectionFailed)
	}
	result.Stage = domain.StageUserFaceLocated

	match := s.matcher.Decide(ctx, cardFace, userFace)
	result.Stage = domain.StageFaceCompared
	if match.Outcome == facial.VerifierUnavailable {
		s.logAudit(ctx, audit.EventVerifierUnavailable, result.Stage, false, match.Err, nil)
	} else {
		s.logAudit(ctx, audit.EventFaceMatched, result.Stage, match.Matched(), nil, map[string]string{
			"distance": strconv.FormatFloat(match.Distance, 'f', 4, 64),
		})
	}
	if !match.Matched() {
		return s.reject(ctx, result, start, domain.ErrFaceMismatch)
	}

	result.Stage = domain.StageDone
	result.Success = true
	result.Data = &record
	result.LatencyMs = time.Since(start).Milliseconds()

	s.logAudit(ctx, audit.EventVerificationFinished, result.Stage, true, nil, map[string]string{
		"latency_ms": strconv.FormatInt(result.LatencyMs, 10),
	})

	return result, nil
}

// reject terminates the pipeline. Business rejections log at Info,
// acquisition failures at Warn.
func (s *VerificationService) reject(ctx context.Context, result *domain.VerificationResult, start time.Time, appErr *domain.AppError) (*domain.VerificationResult, error) {
	result.Success = false
	result.Error = appErr.Message
	result.LatencyMs = time.Since(start).Milliseconds()

	attrs := []any{
		slog.String("verification_id", result.ID.String()),
		slog.String("stage", string(result.Stage)),
		slog.String("reason", appErr.Code),
	}
	if appErr.Expected() {
		s.logger.InfoContext(ctx, "verification rejected", attrs...)
	} else {
		s.logger.WarnContext(ctx, "verification failed", append(attrs, slog.String("error", appErr.Error()))...)
	}

	s.logAudit(ctx, audit.EventVerificationFinished, result.Stage, false, appErr, map[string]string{
		"reason": appErr.Code,
	})

	return result, appErr
}

// logAudit is fire-and-forget; an audit failure never changes the outcome
func (s *VerificationService) logAudit(ctx context.Context, eventType audit.EventType, stage domain.Stage, success bool, err error, metadata map[string]string) {
	event := audit.Event{
		EventType: eventType,
		Stage:     string(stage),
		Provider:  s.providerName,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.auditLogger.Log(ctx, event)
}
