package domain

import (
	"encoding/json"
	"fmt"
)

// Grid is a 2-D saliency map, row-major, values in [0, 1]
type Grid [][]float64

// Confidence levels of a comparison
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Comparison conclusions
const (
	ConclusionPotentialMatch = "Potential match"
	ConclusionNotLikelyMatch = "Not a likely match"
)

// RankedFeatures is a ranked list of regions, serialized as
// [["left_eye", 87.6], ...] pairs
type RankedFeatures []RegionScore

func (f RankedFeatures) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(f))
	for i, s := range f {
		pairs[i] = [2]any{s.Region, s.Score}
	}
	return json.Marshal(pairs)
}

func (f *RankedFeatures) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	if pairs == nil {
		*f = nil
		return nil
	}
	features := make(RankedFeatures, len(pairs))
	for i, p := range pairs {
		if err := json.Unmarshal(p[0], &features[i].Region); err != nil {
			return fmt.Errorf("feature %d region: %w", i, err)
		}
		if err := json.Unmarshal(p[1], &features[i].Score); err != nil {
			return fmt.Errorf("feature %d score: %w", i, err)
		}
	}
	*f = features
	return nil
}

// AnalysisSummary is the human-readable verdict of a comparison
type AnalysisSummary struct {
	Conclusion           string        `json:"conclusion"`
	ConfidenceLevel      string        `json:"confidence_level"`
	KeyMatchingFeatures  RankedFeatures `json:"key_matching_features"`
	KeyDifferingFeatures RankedFeatures `json:"key_differing_features"`
}

// ComparisonReport is the explainable result of comparing two face images
type ComparisonReport struct {
	MatchPercentage float64         `json:"match_percentage"`
	RegionMatches   RegionScores    `json:"region_matches"`
	Image1Heatmap   Grid            `json:"image1_heatmap"`
	Image2Heatmap   Grid            `json:"image2_heatmap"`
	Landmarks1      *LandmarkSet    `json:"landmarks1"`
	Landmarks2      *LandmarkSet    `json:"landmarks2"`
	AnalysisSummary AnalysisSummary `json:"analysis_summary"`
}
