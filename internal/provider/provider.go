package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// FaceProvider is the boundary to an external face detector + encoder.
type FaceProvider interface {
	// DetectAndEncode finds faces in a preprocessed JPEG image and returns one
	// embedding per face, in the order the detector reported them.
	// No face is not an error: the slice is simply empty.
	DetectAndEncode(ctx context.Context, image []byte) ([]domain.DetectedFace, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Closer is implemented by providers holding native or network resources.
type Closer interface {
	Close() error
}

// DetectorOptions are the detector knobs shared by every backend.
type DetectorOptions struct {
	// Model selects the detector: "hog" (fast, CPU) or "cnn" (accurate, slow).
	Model string
	// Upsample is how many times the image is upsampled before detection;
	// higher values find smaller faces at a latency cost.
	Upsample int
}

const (
	DetectorHOG = "hog"
	DetectorCNN = "cnn"
)

// DefaultDetectorOptions mirrors the face_recognition library defaults.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		Model:    DetectorHOG,
		Upsample: 1,
	}
}
