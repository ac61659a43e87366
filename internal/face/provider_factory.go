package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeDeepFace talks to a DeepFace HTTP server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs dlib in-process (requires the dlib build tag)
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock is deterministic and model-free, for dev/test
	ProviderTypeMock ProviderType = "mock"
)

// deepfaceDetectors maps the shared detector model names onto DeepFace backends.
var deepfaceDetectors = map[string]string{
	provider.DetectorHOG: "dlib",
	provider.DetectorCNN: "retinaface",
}

// NewFaceProvider creates a FaceProvider instance based on configuration
//
// Environment variables:
//   - FACE_PROVIDER: "deepface", "dlib" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - DLIB_MODELS_DIR: go-face model directory (default: "./models")
//   - DETECTOR_MODEL, DETECTOR_UPSAMPLE: detector knobs
func NewFaceProvider(cfg *config.Config) (provider.FaceProvider, error) {
	opts := provider.DetectorOptions{
		Model:    cfg.DetectorModel,
		Upsample: cfg.DetectorUpsample,
	}
	if opts.Model == "" {
		opts.Model = provider.DetectorHOG
	}
	if opts.Model != provider.DetectorHOG && opts.Model != provider.DetectorCNN {
		return nil, fmt.Errorf("unknown detector model: %s (supported: %s, %s)",
			opts.Model, provider.DetectorHOG, provider.DetectorCNN)
	}

	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg, opts), nil

	case ProviderTypeDlib:
		prov, err := newDlibProvider(cfg.DlibModelsDir, opts)
		if err != nil {
			return nil, fmt.Errorf("create dlib provider: %w", err)
		}
		return prov, nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeDlib, ProviderTypeMock)
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config, opts provider.DetectorOptions) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	deepfaceConfig.Detector = deepfaceDetectors[opts.Model]

	return deepface.NewProvider(deepfaceConfig)
}
