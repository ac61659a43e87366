package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// noFaceMarker is the fragment DeepFace puts in its 400 body when
// enforce_detection finds nothing.
const noFaceMarker = "Face could not be detected"

// Provider implements provider.FaceProvider using DeepFace API
type Provider struct {
	client *Client
	model  string
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		model:  config.Model,
	}
}

func (p *Provider) Name() string {
	return "deepface/" + p.model
}

// DetectAndEncode sends the image to /represent and maps each result to a face.
func (p *Provider) DetectAndEncode(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		if isNoFace(err) {
			return []domain.DetectedFace{}, nil
		}
		return nil, translateError(err)
	}

	faces := make([]domain.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) == 0 {
			return nil, domain.ErrInternal.WithError(
				fmt.Errorf("detect faces: %w: empty embedding", ErrInvalidResponse))
		}
		faces = append(faces, domain.DetectedFace{
			Box:       toBoundingBox(result.FacialArea),
			Embedding: domain.Embedding(result.Embedding),
		})
	}

	return faces, nil
}

func toBoundingBox(a FacialArea) domain.BoundingBox {
	return domain.BoundingBox{
		Top:    a.Y,
		Right:  a.X + a.W,
		Bottom: a.Y + a.H,
		Left:   a.X,
	}
}

func isNoFace(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) &&
		statusErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(statusErr.Body, noFaceMarker)
}

// translateError folds client failures into the service error taxonomy.
func translateError(err error) error {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && !statusErr.Temporary():
		return domain.ErrInvalidImage.WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrInvalidResponse):
		return domain.ErrInternal.WithError(err)
	default:
		return domain.ErrProviderUnavailable.WithError(err)
	}
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
