package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/facial"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

const (
	matchThreshold  = 70.0
	highConfidence  = 85.0
	keyFeatureCount = 3
)

var (
	errNoLandmarks       = errors.New("no face landmarks found")
	errEmptyVerification = errors.New("verifier returned no result")
)

// ComparisonService produces the explainable report for two face images
type ComparisonService struct {
	fetcher      ImageFetcher
	landmarks    provider.LandmarkPredictor
	verifier     provider.FaceVerifier
	classifier   provider.Classifier
	layer        string
	auditLogger  audit.Logger
	providerName string
	logger       *slog.Logger
}

func NewComparisonService(fetcher ImageFetcher, providers provider.Set, logger *slog.Logger) *ComparisonService {
	return &ComparisonService{
		fetcher:      fetcher,
		landmarks:    providers.Landmarks,
		verifier:     providers.Verifier,
		classifier:   providers.Classifier,
		layer:        facial.DefaultTargetLayer,
		auditLogger:  &audit.NoOpLogger{},
		providerName: "unknown",
		logger:       logger.With("component", "comparison_service"),
	}
}

// WithTargetLayer sets the classifier layer the heatmaps are taken from
func (s *ComparisonService) WithTargetLayer(layer string) *ComparisonService {
	s.layer = layer
	return s
}

func (s *ComparisonService) WithAuditLogger(logger audit.Logger) *ComparisonService {
	s.auditLogger = logger
	return s
}

// WithProviderName sets the backend name stamped on audit events
func (s *ComparisonService) WithProviderName(name string) *ComparisonService {
	s.providerName = name
	return s
}

// Compare downloads both images and runs the landmark, embedding and
// heatmap paths concurrently. A landmark failure degrades to the fallback
// scores; an embedding failure is ErrEmbeddingFailed; a download failure
// is ErrImageAcquisition; anything else is returned as is.
func (s *ComparisonService) Compare(ctx context.Context, url1, url2 string) (*domain.ComparisonReport, error) {
	img1, img2, err := s.fetchPair(ctx, url1, url2)
	if err != nil {
		s.logger.WarnContext(ctx, "comparison image download failed",
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrImageAcquisition.WithMessage("Error downloading images").WithError(err)
	}

	report := &domain.ComparisonReport{}
	var distance float64

	// Failures are reported in order: embedding, image1 heatmap, image2 heatmap
	var embedErr, heat1Err, heat2Err error
	var g errgroup.Group

	g.Go(func() error {
		s.scoreRegions(ctx, img1, img2, report)
		return nil
	})

	g.Go(func() error {
		v, err := s.verifier.VerifyFaces(ctx, img1, img2)
		if err == nil && v == nil {
			err = errEmptyVerification
		}
		if err != nil {
			embedErr = domain.ErrEmbeddingFailed.WithError(err)
			return nil
		}
		distance = v.Distance
		return nil
	})

	g.Go(func() error {
		heatmap, err := facial.Heatmap(ctx, img1, s.classifier, s.layer)
		if err != nil {
			heat1Err = fmt.Errorf("image1 heatmap: %w", err)
			return nil
		}
		report.Image1Heatmap = heatmap
		return nil
	})

	g.Go(func() error {
		heatmap, err := facial.Heatmap(ctx, img2, s.classifier, s.layer)
		if err != nil {
			heat2Err = fmt.Errorf("image2 heatmap: %w", err)
			return nil
		}
		report.Image2Heatmap = heatmap
		return nil
	})

	_ = g.Wait()

	for _, err := range []error{embedErr, heat1Err, heat2Err} {
		if err != nil {
			s.logAudit(ctx, audit.EventFacesCompared, false, err, nil)
			return nil, err
		}
	}

	report.MatchPercentage = facial.MatchPercentage(distance)
	report.AnalysisSummary = summarize(report.MatchPercentage, report.RegionMatches)

	s.logAudit(ctx, audit.EventFacesCompared, true, nil, map[string]string{
		"match_percentage": strconv.FormatFloat(report.MatchPercentage, 'f', 2, 64),
		"confidence_level": report.AnalysisSummary.ConfidenceLevel,
	})

	return report, nil
}

func (s *ComparisonService) fetchPair(ctx context.Context, url1, url2 string) (image.Image, image.Image, error) {
	var img1, img2 image.Image

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		img1, err = s.fetcher.Fetch(gctx, url1)
		return err
	})
	g.Go(func() error {
		var err error
		img2, err = s.fetcher.Fetch(gctx, url2)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return img1, img2, nil
}

// scoreRegions fills the region scores and landmarks of report. Any failure
// falls back to the fixed scores with null landmarks.
func (s *ComparisonService) scoreRegions(ctx context.Context, img1, img2 image.Image, report *domain.ComparisonReport) {
	a, err := s.firstLandmarks(ctx, img1)
	if err == nil {
		var b *domain.LandmarkSet
		if b, err = s.firstLandmarks(ctx, img2); err == nil {
			report.RegionMatches = facial.ScoreRegions(a, b)
			report.Landmarks1 = a
			report.Landmarks2 = b
			return
		}
	}

	s.logger.WarnContext(ctx, "landmark prediction failed, using fallback region scores",
		slog.String("error", err.Error()),
	)
	s.logAudit(ctx, audit.EventLandmarkFallback, false, err, nil)
	report.RegionMatches = facial.FallbackRegionScores()
}

func (s *ComparisonService) firstLandmarks(ctx context.Context, img image.Image) (*domain.LandmarkSet, error) {
	sets, err := s.landmarks.PredictLandmarks(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, errNoLandmarks
	}
	return &sets[0], nil
}

func summarize(matchPercentage float64, regions domain.RegionScores) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{
		Conclusion:           domain.ConclusionNotLikelyMatch,
		ConfidenceLevel:      domain.ConfidenceLow,
		KeyMatchingFeatures:  facial.TopRegions(regions, keyFeatureCount),
		KeyDifferingFeatures: facial.BottomRegions(regions, keyFeatureCount),
	}

	if matchPercentage > matchThreshold {
		summary.Conclusion = domain.ConclusionPotentialMatch
	}

	switch {
	case matchPercentage > highConfidence:
		summary.ConfidenceLevel = domain.ConfidenceHigh
	case matchPercentage > matchThreshold:
		summary.ConfidenceLevel = domain.ConfidenceMedium
	}

	return summary
}

// logAudit is fire-and-forget; an audit failure never changes the outcome
func (s *ComparisonService) logAudit(ctx context.Context, eventType audit.EventType, success bool, err error, metadata map[string]string) {
	event := audit.Event{
		EventType: eventType,
		Provider:  s.providerName,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.auditLogger.Log(ctx, event)
}
