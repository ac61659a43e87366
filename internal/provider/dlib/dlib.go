//go:build dlib

// Package dlib runs face detection and encoding in-process through dlib's
// ResNet model. It needs cgo and the dlib shared libraries, so it is only
// compiled with the "dlib" build tag.
package dlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// Provider wraps a go-face recognizer. The underlying dlib objects are not
// safe for concurrent use, so calls are serialized.
type Provider struct {
	mu       sync.Mutex
	rec      *face.Recognizer
	detector string
	// scale is the extra enlargement applied before detection. go-face
	// already upsamples once, so Upsample=1 means scale 1.
	scale int
}

// New loads the shape predictor, ResNet and CNN detector models from modelsDir.
func New(modelsDir string, opts provider.DetectorOptions) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models from %s: %w", modelsDir, err)
	}
	scale := 1
	for i := 1; i < opts.Upsample; i++ {
		scale *= 2
	}
	return &Provider{rec: rec, detector: opts.Model, scale: scale}, nil
}

func (p *Provider) Name() string {
	return "dlib/" + p.detector
}

func (p *Provider) DetectAndEncode(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.scale > 1 {
		enlarged, err := enlarge(image, p.scale)
		if err != nil {
			return nil, err
		}
		image = enlarged
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		found []face.Face
		err   error
	)
	if p.detector == provider.DetectorCNN {
		found, err = p.rec.RecognizeCNN(image)
	} else {
		found, err = p.rec.Recognize(image)
	}
	if err != nil {
		var loadErr face.ImageLoadError
		if errors.As(err, &loadErr) {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		return nil, domain.ErrInternal.WithError(err)
	}

	faces := make([]domain.DetectedFace, 0, len(found))
	for _, f := range found {
		emb := make(domain.Embedding, len(f.Descriptor))
		for i, v := range f.Descriptor {
			emb[i] = float64(v)
		}
		faces = append(faces, domain.DetectedFace{
			Box: domain.BoundingBox{
				Top:    f.Rectangle.Min.Y / p.scale,
				Right:  f.Rectangle.Max.X / p.scale,
				Bottom: f.Rectangle.Max.Y / p.scale,
				Left:   f.Rectangle.Min.X / p.scale,
			},
			Embedding: emb,
		})
	}
	return faces, nil
}

func enlarge(data []byte, scale int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	b := img.Bounds()
	big := imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.Linear)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, big, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}
	return buf.Bytes(), nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.Close()
	return nil
}

var (
	_ provider.FaceProvider = (*Provider)(nil)
	_ provider.Closer       = (*Provider)(nil)
)
