package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/config"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/modelserver"
	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/rekognition"
)

// backends holds at most one instance per backend so that capabilities
// served by the same backend share one client
type backends struct {
	cfg         *config.Config
	auditLogger audit.Logger

	modelServer *modelserver.Provider
	deepFace    *deepface.Provider
	rekognition *rekognition.Provider
	mock        *mock.Provider
}

// NewProviderSet builds the model capabilities selected in cfg.
// Models are created once here and shared by all requests.
//
// Environment variables:
//   - REGION_DETECTOR, TEXT_EXTRACTOR: "modelserver", "rekognition" or "mock"
//   - FACE_DETECTOR, FACE_VERIFIER: "deepface", "rekognition" or "mock"
//   - LANDMARK_PREDICTOR, CLASSIFIER: "modelserver" or "mock"
//   - SERIALIZE_INFERENCE: one call at a time per model
func NewProviderSet(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.Set, error) {
	if err := cfg.Validate(); err != nil {
		return provider.Set{}, err
	}

	b := &backends{cfg: cfg, auditLogger: auditLogger}

	var set provider.Set
	var err error

	if set.Regions, err = b.regions(ctx); err != nil {
		return provider.Set{}, err
	}
	if set.Text, err = b.text(ctx); err != nil {
		return provider.Set{}, err
	}
	if set.Faces, err = b.faces(ctx); err != nil {
		return provider.Set{}, err
	}
	if set.Verifier, err = b.verifier(ctx); err != nil {
		return provider.Set{}, err
	}
	set.Landmarks = b.landmarks()
	set.Classifier = b.classifier()

	if cfg.SerializeInference {
		set = provider.Serialize(set)
	}
	return set, nil
}

// Name describes the backend selection, used as the audit provider name
func Name(cfg *config.Config) string {
	if cfg.RegionDetector == cfg.FaceVerifier {
		return cfg.RegionDetector
	}
	return cfg.RegionDetector + "+" + cfg.FaceVerifier
}

func (b *backends) regions(ctx context.Context) (provider.RegionDetector, error) {
	switch b.cfg.RegionDetector {
	case config.BackendRekognition:
		return b.rekognitionProvider(ctx)
	case config.BackendMock:
		return b.mockProvider(), nil
	default:
		return b.modelServerProvider(), nil
	}
}

func (b *backends) text(ctx context.Context) (provider.TextExtractor, error) {
	switch b.cfg.TextExtractor {
	case config.BackendRekognition:
		return b.rekognitionProvider(ctx)
	case config.BackendMock:
		return b.mockProvider(), nil
	default:
		return b.modelServerProvider(), nil
	}
}

func (b *backends) faces(ctx context.Context) (provider.FaceDetector, error) {
	switch b.cfg.FaceDetector {
	case config.BackendRekognition:
		return b.rekognitionProvider(ctx)
	case config.BackendMock:
		return b.mockProvider(), nil
	default:
		return b.deepFaceProvider(), nil
	}
}

func (b *backends) verifier(ctx context.Context) (provider.FaceVerifier, error) {
	switch b.cfg.FaceVerifier {
	case config.BackendRekognition:
		return b.rekognitionProvider(ctx)
	case config.BackendMock:
		return b.mockProvider(), nil
	default:
		return b.deepFaceProvider(), nil
	}
}

func (b *backends) landmarks() provider.LandmarkPredictor {
	if b.cfg.LandmarkPredictor == config.BackendMock {
		return b.mockProvider()
	}
	return b.modelServerProvider()
}

func (b *backends) classifier() provider.Classifier {
	if b.cfg.Classifier == config.BackendMock {
		return b.mockProvider()
	}
	return b.modelServerProvider()
}

// rekognitionProvider creates the AWS Rekognition provider on first use
func (b *backends) rekognitionProvider(ctx context.Context) (*rekognition.Provider, error) {
	if b.rekognition != nil {
		return b.rekognition, nil
	}

	rekogConfig := rekognition.DefaultConfig()
	rekogConfig.Region = b.cfg.AWSRegion
	rekogConfig.ProjectVersionARN = b.cfg.RekognitionProjectVersionARN
	if b.cfg.RekognitionSimilarityThreshold > 0 {
		rekogConfig.SimilarityThreshold = b.cfg.RekognitionSimilarityThreshold
	}

	var opts []rekognition.ProviderOption
	if b.auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(b.auditLogger))
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider in %s: %w", rekogConfig.Region, err)
	}

	b.rekognition = prov
	return prov, nil
}

// deepFaceProvider creates the DeepFace provider on first use
func (b *backends) deepFaceProvider() *deepface.Provider {
	if b.deepFace != nil {
		return b.deepFace
	}

	deepfaceConfig := deepface.DefaultConfig()
	if b.cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = b.cfg.DeepFaceURL
	}
	if b.cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = b.cfg.DeepFaceModel
	}
	if b.cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = b.cfg.DeepFaceDetector
	}
	if b.cfg.InferenceTimeout > 0 {
		deepfaceConfig.Timeout = b.cfg.InferenceTimeout
	}

	b.deepFace = deepface.NewProvider(deepfaceConfig)
	return b.deepFace
}

// modelServerProvider creates the model server provider on first use
func (b *backends) modelServerProvider() *modelserver.Provider {
	if b.modelServer != nil {
		return b.modelServer
	}

	msConfig := modelserver.DefaultConfig()
	if b.cfg.ModelServerURL != "" {
		msConfig.BaseURL = b.cfg.ModelServerURL
	}
	if b.cfg.InferenceTimeout > 0 {
		msConfig.Timeout = b.cfg.InferenceTimeout
	}
	if b.cfg.ClassifierInputSize > 0 {
		msConfig.InputSize = b.cfg.ClassifierInputSize
	}

	b.modelServer = modelserver.NewProvider(msConfig)
	return b.modelServer
}

func (b *backends) mockProvider() *mock.Provider {
	if b.mock == nil {
		b.mock = mock.New()
	}
	return b.mock
}
