package facial

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

var errEmptyVerification = errors.New("verifier returned no result")

// Outcome is the result of a face match decision
type Outcome int

const (
	NotMatched Outcome = iota
	Matched
	// VerifierUnavailable means the verifier could not judge the pair
	VerifierUnavailable
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NotMatched:
		return "not_matched"
	case VerifierUnavailable:
		return "verifier_unavailable"
	default:
		return "unknown"
	}
}

// MatchResult keeps the verifier failure apart from a plain "no"
type MatchResult struct {
	Outcome  Outcome
	Distance float64
	Err      error
}

// Matched folds the outcome into the yes/no answer callers act on.
// VerifierUnavailable counts as no.
func (r MatchResult) Matched() bool {
	return r.Outcome == Matched
}

// Matcher asks a FaceVerifier whether two faces belong to the same person
type Matcher struct {
	verifier provider.FaceVerifier
	logger   *slog.Logger
}

func NewMatcher(verifier provider.FaceVerifier, logger *slog.Logger) *Matcher {
	return &Matcher{
		verifier: verifier,
		logger:   logger.With("component", "face_matcher"),
	}
}

// Decide never returns an error. Verifier failures become VerifierUnavailable.
func (m *Matcher) Decide(ctx context.Context, a, b image.Image) MatchResult {
	v, err := m.verifier.VerifyFaces(ctx, a, b)
	if err == nil && v == nil {
		err = errEmptyVerification
	}
	if err != nil {
		m.logger.WarnContext(ctx, "face verifier unavailable",
			slog.String("error", err.Error()),
		)
		return MatchResult{Outcome: VerifierUnavailable, Distance: 1, Err: err}
	}

	if v.Verified {
		return MatchResult{Outcome: Matched, Distance: v.Distance}
	}
	return MatchResult{Outcome: NotMatched, Distance: v.Distance}
}

// MatchPercentage expresses a verifier distance as (1 - distance) * 100,
// clamped to [0, 100] and rounded to two decimals
func MatchPercentage(distance float64) float64 {
	return round2(clamp((1-distance)*100, 0, 100))
}
