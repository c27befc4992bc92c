package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by the provider selectors
const (
	BackendModelServer = "modelserver"
	BackendDeepFace    = "deepface"
	BackendRekognition = "rekognition"
	BackendMock        = "mock"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Provider selection, one backend per capability
	RegionDetector    string `envconfig:"REGION_DETECTOR" default:"modelserver"`
	TextExtractor     string `envconfig:"TEXT_EXTRACTOR" default:"modelserver"`
	FaceDetector      string `envconfig:"FACE_DETECTOR" default:"deepface"`
	FaceVerifier      string `envconfig:"FACE_VERIFIER" default:"deepface"`
	LandmarkPredictor string `envconfig:"LANDMARK_PREDICTOR" default:"modelserver"`
	Classifier        string `envconfig:"CLASSIFIER" default:"modelserver"`

	// DeepFace
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"VGG-Face"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`

	// Model server
	ModelServerURL string `envconfig:"MODEL_SERVER_URL" default:"http://localhost:8500"`

	// AWS Rekognition
	AWSRegion                      string  `envconfig:"AWS_REGION" default:"us-east-1"`
	RekognitionProjectVersionARN   string  `envconfig:"REKOGNITION_PROJECT_VERSION_ARN"`
	RekognitionSimilarityThreshold float64 `envconfig:"REKOGNITION_SIMILARITY_THRESHOLD" default:"80"`

	// Explainability
	GradCAMLayer        string `envconfig:"GRADCAM_LAYER" default:"block5_conv3"`
	ClassifierInputSize int    `envconfig:"CLASSIFIER_INPUT_SIZE" default:"224"`

	// Inference and image acquisition
	InferenceTimeout   time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"60s"`
	FetchTimeout       time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	MaxImageBytes      int64         `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`
	SerializeInference bool          `envconfig:"SERIALIZE_INFERENCE" default:"false"`

	// Rate limiting, per client IP
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads the optional dotenv files (".env" when none are given) and
// then the environment. Variables already set in the environment win over
// dotenv values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every capability names a backend that implements it
func (c *Config) Validate() error {
	selectors := []struct {
		env     string
		value   string
		allowed []string
	}{
		{"REGION_DETECTOR", c.RegionDetector, []string{BackendModelServer, BackendRekognition, BackendMock}},
		{"TEXT_EXTRACTOR", c.TextExtractor, []string{BackendModelServer, BackendRekognition, BackendMock}},
		{"FACE_DETECTOR", c.FaceDetector, []string{BackendDeepFace, BackendRekognition, BackendMock}},
		{"FACE_VERIFIER", c.FaceVerifier, []string{BackendDeepFace, BackendRekognition, BackendMock}},
		{"LANDMARK_PREDICTOR", c.LandmarkPredictor, []string{BackendModelServer, BackendMock}},
		{"CLASSIFIER", c.Classifier, []string{BackendModelServer, BackendMock}},
	}

	for _, s := range selectors {
		if !slices.Contains(s.allowed, s.value) {
			return fmt.Errorf("invalid %s %q (supported: %v)", s.env, s.value, s.allowed)
		}
	}

	if c.RegionDetector == BackendRekognition && c.RekognitionProjectVersionARN == "" {
		return errors.New("REKOGNITION_PROJECT_VERSION_ARN is required when REGION_DETECTOR=rekognition")
	}
	if c.ClassifierInputSize <= 0 {
		return fmt.Errorf("invalid CLASSIFIER_INPUT_SIZE %d", c.ClassifierInputSize)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("invalid MAX_IMAGE_BYTES %d", c.MaxImageBytes)
	}
	return nil
}

// Uses reports whether any capability is served by backend
func (c *Config) Uses(backend string) bool {
	return slices.Contains([]string{
		c.RegionDetector, c.TextExtractor, c.FaceDetector,
		c.FaceVerifier, c.LandmarkPredictor, c.Classifier,
	}, backend)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
