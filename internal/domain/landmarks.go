package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"strconv"
)

// LandmarkCount is the number of points in a 68-point facial landmark model
const LandmarkCount = 68

// LandmarkSet is an ordered set of 68 facial keypoints in image coordinates
type LandmarkSet [LandmarkCount]image.Point

// NewLandmarkSet builds a set from [x, y] pairs
func NewLandmarkSet(points [][2]int) (LandmarkSet, error) {
	var set LandmarkSet
	if len(points) != LandmarkCount {
		return set, fmt.Errorf("landmark set needs %d points, got %d", LandmarkCount, len(points))
	}
	for i, p := range points {
		set[i] = image.Pt(p[0], p[1])
	}
	return set, nil
}

func (s LandmarkSet) MarshalJSON() ([]byte, error) {
	pairs := make([][2]int, LandmarkCount)
	for i, p := range s {
		pairs[i] = [2]int{p.X, p.Y}
	}
	return json.Marshal(pairs)
}

func (s *LandmarkSet) UnmarshalJSON(data []byte) error {
	var pairs [][2]int
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	set, err := NewLandmarkSet(pairs)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// FacialRegion is a named anatomical region covering landmark indices [Start, End)
type FacialRegion struct {
	Name  string
	Start int
	End   int
}

// FacialRegions partitions [0, 68) into named regions. Order is significant:
// it is the tie-break order for ranked features.
var FacialRegions = []FacialRegion{
	{Name: "right_eye", Start: 36, End: 42},
	{Name: "left_eye", Start: 42, End: 48},
	{Name: "nose", Start: 27, End: 36},
	{Name: "mouth", Start: 48, End: 68},
	{Name: "jaw", Start: 0, End: 17},
	{Name: "right_eyebrow", Start: 17, End: 22},
	{Name: "left_eyebrow", Start: 22, End: 27},
}

// RegionScore is the similarity percentage of one facial region
type RegionScore struct {
	Region string  `json:"region"`
	Score  float64 `json:"score"`
}

// RegionScores keeps one entry per facial region in FacialRegions order
type RegionScores []RegionScore

// Get returns the score of a region by name
func (r RegionScores) Get(region string) (float64, bool) {
	for _, s := range r {
		if s.Region == region {
			return s.Score, true
		}
	}
	return 0, false
}

// MarshalJSON writes the scores as a JSON object, keys in table order
func (r RegionScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Region)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(s.Score, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object back into table order
func (r *RegionScores) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	scores := make(RegionScores, 0, len(raw))
	for _, region := range FacialRegions {
		if v, ok := raw[region.Name]; ok {
			scores = append(scores, RegionScore{Region: region.Name, Score: v})
		}
	}
	*r = scores
	return nil
}
