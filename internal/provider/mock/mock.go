package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	embeddingDimension = 128
	// blankTolerance is the max luminance spread (0-255) of an image treated as empty.
	blankTolerance = 8
)

// Provider implementa provider.FaceProvider para testes e desenvolvimento.
// Images with uniform content yield no face; anything else yields FacesPerImage
// faces whose embeddings derive from the image hash.
type Provider struct {
	FacesPerImage int
}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{FacesPerImage: 1}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectAndEncode simula detecção de faces
func (p *Provider) DetectAndEncode(ctx context.Context, data []byte) ([]domain.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	if isBlank(img) {
		return []domain.DetectedFace{}, nil
	}

	n := p.FacesPerImage
	if n <= 0 {
		n = 1
	}

	b := img.Bounds()
	faces := make([]domain.DetectedFace, 0, n)
	for i := 0; i < n; i++ {
		w := b.Dx() / n
		faces = append(faces, domain.DetectedFace{
			Box: domain.BoundingBox{
				Top:    b.Dy() / 10,
				Right:  w*(i+1) - w/10,
				Bottom: b.Dy() - b.Dy()/10,
				Left:   w*i + w/10,
			},
			Embedding: generateEmbedding(data, i),
		})
	}

	return faces, nil
}

func isBlank(img image.Image) bool {
	gray := imaging.Grayscale(img)
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(gray.Pix); i += 4 {
		v := gray.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi < lo || hi-lo <= blankTolerance
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(image []byte, index int) domain.Embedding {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(index))
	hash := sha256.Sum256(append(seed[:], image...))

	embedding := make(domain.Embedding, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := (i * 7) % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx]^byte(i))/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
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

var _ provider.FaceProvider = (*Provider)(nil)
