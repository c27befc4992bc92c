package provider

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
)

// RegionDetector finds the labelled field regions on a photographed ID card
type RegionDetector interface {
	// DetectRegions returns boxes in detector output order
	DetectRegions(ctx context.Context, img image.Image) ([]DetectedRegion, error)
}

// TextExtractor reads text from an image region
type TextExtractor interface {
	// ExtractText returns the recognised tokens in reading order
	ExtractText(ctx context.Context, img image.Image) ([]string, error)
}

// FaceDetector locates faces in an image
type FaceDetector interface {
	// DetectFaces returns pixel boxes in detector output order.
	// An empty slice means no face, not an error.
	DetectFaces(ctx context.Context, img image.Image) ([]DetectedFace, error)
}

// FaceVerifier judges whether two face images show the same person
type FaceVerifier interface {
	VerifyFaces(ctx context.Context, img1, img2 image.Image) (*FaceVerification, error)
}

// LandmarkPredictor predicts the 68 facial keypoints of each detected face
type LandmarkPredictor interface {
	// PredictLandmarks returns one set per face, in detection order
	PredictLandmarks(ctx context.Context, img image.Image) ([]domain.LandmarkSet, error)
}

// Classifier exposes the forward and backward passes needed for
// class-activation maps. Input images are already resized to InputSize.
type Classifier interface {
	InputSize() int
	// Forward returns the named layer's activations and the class probabilities
	Forward(ctx context.Context, img image.Image, layer string) (*ForwardPass, error)
	// Gradients returns d(score[class]) / d(activations) for the named layer
	Gradients(ctx context.Context, img image.Image, layer string, class int) (Tensor, error)
}

// Set bundles the model capabilities. Handles are loaded once and shared by
// all requests; implementations must be safe for concurrent use unless
// wrapped with Serialize.
type Set struct {
	Regions    RegionDetector
	Text       TextExtractor
	Faces      FaceDetector
	Verifier   FaceVerifier
	Landmarks  LandmarkPredictor
	Classifier Classifier
}

// FieldLabel is the closed set of card field classes
type FieldLabel int

const (
	LabelUnknown FieldLabel = iota
	LabelIdentifier
	LabelName
	LabelGender
	LabelDateOfBirth
)

// ParseFieldLabel maps detector class names onto FieldLabel
func ParseFieldLabel(s string) FieldLabel {
	switch s {
	case "AADHAR_NUMBER", "AADHAAR_NUMBER", "IDENTIFIER":
		return LabelIdentifier
	case "NAME":
		return LabelName
	case "GENDER":
		return LabelGender
	case "DATE_OF_BIRTH", "DOB":
		return LabelDateOfBirth
	default:
		return LabelUnknown
	}
}

func (l FieldLabel) String() string {
	switch l {
	case LabelIdentifier:
		return "IDENTIFIER"
	case LabelName:
		return "NAME"
	case LabelGender:
		return "GENDER"
	case LabelDateOfBirth:
		return "DATE_OF_BIRTH"
	default:
		return "UNKNOWN"
	}
}

// DetectedRegion is one labelled box produced by the region detector
type DetectedRegion struct {
	Label      FieldLabel
	RawLabel   string
	Box        image.Rectangle // x1,y1 inclusive; x2,y2 exclusive
	Confidence float64
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
}

// FaceVerification is the verifier's judgement on a pair of faces
type FaceVerification struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"` // lower is more similar
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
}

// Tensor is an activation or gradient volume indexed [row][col][channel]
type Tensor [][][]float64

// Shape returns height, width and channel count
func (t Tensor) Shape() (h, w, c int) {
	h = len(t)
	if h == 0 {
		return 0, 0, 0
	}
	w = len(t[0])
	if w == 0 {
		return h, 0, 0
	}
	return h, w, len(t[0][0])
}

// ForwardPass is the classifier output for one image
type ForwardPass struct {
	Activations   Tensor
	Probabilities []float64
}
