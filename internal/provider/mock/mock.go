package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/saturnino-fabrica-de-software/idverify/internal/domain"
	"github.com/saturnino-fabrica-de-software/idverify/internal/idcard"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
)

const (
	thumbSize         = 8
	minImageSide      = 16
	featureSide       = 14
	featureChannels   = 8
	classCount        = 10
	defaultInputSize  = 224
	verifyThreshold   = 0.40
	modelName         = "mock"
	identifierDigits  = idcard.AadhaarLength - 1
	landmarkJitterMax = 2
)

// ErrImageTooSmall is returned for images under 16 pixels on either side
var ErrImageTooSmall = errors.New("image too small")

// Provider implements every model capability deterministically from pixel
// content, for development and tests. Identical images always produce
// identical outputs.
type Provider struct {
	inputSize int
}

// New creates a new mock provider
func New() *Provider {
	return &Provider{inputSize: defaultInputSize}
}

// Set returns the provider in every capability slot
func (p *Provider) Set() provider.Set {
	return provider.Set{
		Regions:    p,
		Text:       p,
		Faces:      p,
		Verifier:   p,
		Landmarks:  p,
		Classifier: p,
	}
}

// Card layout as fractions of the card image. Field width/height ratios are
// 8, 4, 2 and 1 so that, for card aspect ratios between about 1.1 and 2,
// ExtractText can tell from a crop alone which field it is reading.
var cardLayout = []struct {
	label string
	box   [4]float64 // x0, y0, x1, y1
}{
	{"NAME", [4]float64{0.35, 0.20, 0.75, 0.30}},
	{"DATE_OF_BIRTH", [4]float64{0.35, 0.35, 0.55, 0.45}},
	{"GENDER", [4]float64{0.35, 0.50, 0.45, 0.60}},
	{"AADHAR_NUMBER", [4]float64{0.22, 0.82, 0.78, 0.89}},
}

// Portrait position on the card and face box on a selfie
var faceBox = [4]float64{0.10, 0.10, 0.90, 0.90}

// DetectRegions returns the fixed card layout scaled to the image
func (p *Provider) DetectRegions(ctx context.Context, img image.Image) ([]provider.DetectedRegion, error) {
	if err := checkSize(img); err != nil {
		return nil, err
	}
	if isBlank(img) {
		return []provider.DetectedRegion{}, nil
	}

	regions := make([]provider.DetectedRegion, 0, len(cardLayout))
	for _, field := range cardLayout {
		regions = append(regions, provider.DetectedRegion{
			Label:      provider.ParseFieldLabel(field.label),
			RawLabel:   field.label,
			Box:        scaleBox(img.Bounds(), field.box),
			Confidence: 0.97,
		})
	}
	return regions, nil
}

// ExtractText reads a field crop. The crop's aspect ratio picks the field;
// the identifier is derived from the pixel hash and always carries a valid
// check digit.
func (p *Provider) ExtractText(ctx context.Context, img image.Image) ([]string, error) {
	b := img.Bounds()
	if b.Empty() {
		return []string{}, nil
	}

	hash := pixelHash(img)
	ratio := float64(b.Dx()) / float64(b.Dy())

	switch {
	case ratio >= 8.5:
		return identifierTokens(hash), nil
	case ratio >= 4.25:
		names := [][]string{{"Asha", "Rao"}, {"Ravi", "Kumar"}, {"Meera", "Nair"}, {"Arjun", "Singh"}}
		return names[int(hash[0])%len(names)], nil
	case ratio >= 2.1:
		day := int(hash[1])%28 + 1
		month := int(hash[2])%12 + 1
		year := 1950 + int(hash[3])%55
		return []string{fmt.Sprintf("%02d/%02d/", day, month), fmt.Sprintf("%d", year)}, nil
	default:
		if hash[4]%2 == 0 {
			return []string{"FEMALE"}, nil
		}
		return []string{"MALE"}, nil
	}
}

func identifierTokens(hash [sha256.Size]byte) []string {
	digits := make([]byte, 0, idcard.AadhaarLength)
	// leading digit stays out of the reserved 0/1 range
	digits = append(digits, '2'+hash[0]%8)
	for i := 1; i < identifierDigits; i++ {
		digits = append(digits, '0'+hash[i]%10)
	}

	check, _ := idcard.CheckDigit(string(digits))
	digits = append(digits, byte('0'+check))

	s := string(digits)
	return []string{s[0:4], s[4:8], s[8:12]}
}

// DetectFaces reports one centred face unless the image is blank
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	if err := checkSize(img); err != nil {
		return nil, err
	}
	if isBlank(img) {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{Box: scaleBox(img.Bounds(), faceBox), Confidence: 0.99},
	}, nil
}

// VerifyFaces compares thumbnail embeddings by cosine distance
func (p *Provider) VerifyFaces(ctx context.Context, img1, img2 image.Image) (*provider.FaceVerification, error) {
	if err := checkSize(img1); err != nil {
		return nil, err
	}
	if err := checkSize(img2); err != nil {
		return nil, err
	}

	distance := 1 - cosineSimilarity(generateEmbedding(img1), generateEmbedding(img2))
	distance = math.Max(0, distance)

	return &provider.FaceVerification{
		Verified:  distance <= verifyThreshold,
		Distance:  distance,
		Threshold: verifyThreshold,
		Model:     modelName,
	}, nil
}

// PredictLandmarks fits a canonical 68-point template into the face box,
// nudged by up to 2 px depending on pixel content
func (p *Provider) PredictLandmarks(ctx context.Context, img image.Image) ([]domain.LandmarkSet, error) {
	faces, err := p.DetectFaces(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return []domain.LandmarkSet{}, nil
	}

	box := faces[0].Box
	hash := pixelHash(img)
	tmpl := landmarkTemplate()

	var set domain.LandmarkSet
	for i, pt := range tmpl {
		jx := int(hash[i%len(hash)]) % (landmarkJitterMax + 1)
		jy := int(hash[(i+7)%len(hash)]) % (landmarkJitterMax + 1)
		set[i] = image.Pt(
			box.Min.X+int(math.Round(pt[0]*float64(box.Dx())))+jx,
			box.Min.Y+int(math.Round(pt[1]*float64(box.Dy())))+jy,
		)
	}

	return []domain.LandmarkSet{set}, nil
}

// InputSize returns the side of the square classifier input
func (p *Provider) InputSize() int {
	return p.inputSize
}

// Forward derives a 14x14x8 activation volume from image brightness
func (p *Provider) Forward(ctx context.Context, img image.Image, layer string) (*provider.ForwardPass, error) {
	if err := checkSize(img); err != nil {
		return nil, err
	}

	gray := grayscale(img, featureSide)
	acts := make(provider.Tensor, featureSide)
	means := make([]float64, featureChannels)
	for y := range acts {
		acts[y] = make([][]float64, featureSide)
		for x := range acts[y] {
			acts[y][x] = make([]float64, featureChannels)
			for k := 0; k < featureChannels; k++ {
				v := gray[y][x] * float64(k+1) / featureChannels
				if k%2 == 1 {
					v = 1 - v
				}
				acts[y][x][k] = v
				means[k] += v
			}
		}
	}

	logits := make([]float64, classCount)
	for c := range logits {
		logits[c] = means[c%featureChannels] / float64(featureSide*featureSide) * float64(c+1)
	}

	return &provider.ForwardPass{Activations: acts, Probabilities: softmax(logits)}, nil
}

// Gradients favours even channels for even classes and odd ones otherwise
func (p *Provider) Gradients(ctx context.Context, img image.Image, layer string, class int) (provider.Tensor, error) {
	if class < 0 || class >= classCount {
		return nil, fmt.Errorf("class %d out of range [0,%d)", class, classCount)
	}

	grads := make(provider.Tensor, featureSide)
	for y := range grads {
		grads[y] = make([][]float64, featureSide)
		for x := range grads[y] {
			grads[y][x] = make([]float64, featureChannels)
			for k := 0; k < featureChannels; k++ {
				if (k+class)%2 == 0 {
					grads[y][x][k] = 0.5
				} else {
					grads[y][x][k] = -0.25
				}
			}
		}
	}
	return grads, nil
}

func checkSize(img image.Image) error {
	b := img.Bounds()
	if b.Dx() < minImageSide || b.Dy() < minImageSide {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, b.Dx(), b.Dy())
	}
	return nil
}

func scaleBox(bounds image.Rectangle, f [4]float64) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(f[0]*w),
		bounds.Min.Y+int(f[1]*h),
		bounds.Min.X+int(f[2]*w),
		bounds.Min.Y+int(f[3]*h),
	)
}

// grayscale samples img down to an n×n luminance grid in [0, 1]
func grayscale(img image.Image, n int) [][]float64 {
	small := imaging.Resize(img, n, n)
	out := make([][]float64, n)
	for y := 0; y < n; y++ {
		out[y] = make([]float64, n)
		for x := 0; x < n; x++ {
			g := color.GrayModel.Convert(small.At(x, y)).(color.Gray)
			out[y][x] = float64(g.Y) / 255
		}
	}
	return out
}

func isBlank(img image.Image) bool {
	gray := grayscale(img, thumbSize)
	first := gray[0][0]
	for _, row := range gray {
		for _, v := range row {
			if v != first {
				return false
			}
		}
	}
	return true
}

func pixelHash(img image.Image) [sha256.Size]byte {
	h := sha256.New()
	var buf [2]byte
	for _, row := range grayscale(img, thumbSize*2) {
		for _, v := range row {
			binary.BigEndian.PutUint16(buf[:], uint16(v*math.MaxUint16))
			h.Write(buf[:])
		}
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// generateEmbedding flattens a mean-centred thumbnail into a unit vector
func generateEmbedding(img image.Image) []float64 {
	gray := grayscale(img, thumbSize)
	embedding := make([]float64, 0, thumbSize*thumbSize)
	var mean float64
	for _, row := range gray {
		for _, v := range row {
			embedding = append(embedding, v)
			mean += v
		}
	}
	mean /= float64(len(embedding))

	norm := 0.0
	for i := range embedding {
		embedding[i] -= mean
		norm += embedding[i] * embedding[i]
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return embedding
	}
	for i := range embedding {
		embedding[i] /= norm
	}
	return embedding
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func softmax(logits []float64) []float64 {
	peak := logits[0]
	for _, v := range logits[1:] {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// landmarkTemplate returns the 68 dlib keypoints of a frontal face in
// unit-square coordinates
func landmarkTemplate() [domain.LandmarkCount][2]float64 {
	var t [domain.LandmarkCount][2]float64

	// jaw 0-16: lower half ellipse from ear to ear
	for i := 0; i <= 16; i++ {
		a := math.Pi * float64(i) / 16
		t[i] = [2]float64{0.5 - 0.45*math.Cos(a), 0.45 + 0.5*math.Sin(a)}
	}
	// eyebrows 17-21 and 22-26
	for i := 0; i < 5; i++ {
		t[17+i] = [2]float64{0.18 + 0.06*float64(i), 0.30 - 0.02*math.Sin(math.Pi*float64(i)/4)}
		t[22+i] = [2]float64{0.58 + 0.06*float64(i), 0.30 - 0.02*math.Sin(math.Pi*float64(i)/4)}
	}
	// nose bridge 27-30, base 31-35
	for i := 0; i < 4; i++ {
		t[27+i] = [2]float64{0.5, 0.38 + 0.06*float64(i)}
	}
	for i := 0; i < 5; i++ {
		t[31+i] = [2]float64{0.42 + 0.04*float64(i), 0.62}
	}
	// eyes 36-41 and 42-47, six points around each
	for i := 0; i < 6; i++ {
		a := 2 * math.Pi * float64(i) / 6
		t[36+i] = [2]float64{0.30 + 0.07*math.Cos(a+math.Pi), 0.40 + 0.025*math.Sin(a)}
		t[42+i] = [2]float64{0.70 + 0.07*math.Cos(a+math.Pi), 0.40 + 0.025*math.Sin(a)}
	}
	// outer lip 48-59, inner lip 60-67
	for i := 0; i < 12; i++ {
		a := 2 * math.Pi * float64(i) / 12
		t[48+i] = [2]float64{0.5 - 0.15*math.Cos(a), 0.75 + 0.06*math.Sin(a)}
	}
	for i := 0; i < 8; i++ {
		a := 2 * math.Pi * float64(i) / 8
		t[60+i] = [2]float64{0.5 - 0.10*math.Cos(a), 0.75 + 0.03*math.Sin(a)}
	}

	return t
}

var (
	_ provider.RegionDetector    = (*Provider)(nil)
	_ provider.TextExtractor     = (*Provider)(nil)
	_ provider.FaceDetector      = (*Provider)(nil)
	_ provider.FaceVerifier      = (*Provider)(nil)
	_ provider.LandmarkPredictor = (*Provider)(nil)
	_ provider.Classifier        = (*Provider)(nil)
)
