// Package preprocess turns uploaded images into bounded JPEG thumbnails
// so detector latency and memory stay flat regardless of upload size.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const (
	// MaxSide bounds both thumbnail dimensions.
	MaxSide = 300
	// DefaultQuality is the JPEG quality of the re-encoded thumbnail.
	DefaultQuality = 95
	// DefaultMaxPixels caps width*height before the full decode, the same
	// decompression bomb limit PIL applies.
	DefaultMaxPixels = 89_478_485
)

// Preprocessor decodes, flattens and downsamples images.
type Preprocessor struct {
	MaxSide    int
	Quality    int
	MaxPixels  int
	Background color.Color
}

// New returns a Preprocessor with the default bound and quality.
func New() *Preprocessor {
	return &Preprocessor{
		MaxSide:    MaxSide,
		Quality:    DefaultQuality,
		MaxPixels:  DefaultMaxPixels,
		Background: color.White,
	}
}

// Normalize applies the default Preprocessor.
func Normalize(data []byte) ([]byte, error) {
	return New().Normalize(data)
}

// Normalize decodes data, converts it to opaque RGB, shrinks it to fit inside
// MaxSide x MaxSide keeping the aspect ratio and re-encodes it as JPEG.
// Images already inside the bound are not upscaled.
func (p *Preprocessor) Normalize(data []byte) ([]byte, error) {
	img, err := p.Thumbnail(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail is Normalize without the final JPEG encoding.
func (p *Preprocessor) Thumbnail(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}

	if err := p.checkSize(data); err != nil {
		return nil, err
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image has zero size"))
	}

	side := p.MaxSide
	if side <= 0 {
		side = MaxSide
	}

	fitted := imaging.Fit(src, side, side, imaging.Lanczos)
	return p.flatten(fitted), nil
}

// checkSize reads only the image header and rejects images whose decoded
// pixel count would exceed MaxPixels.
func (p *Preprocessor) checkSize(data []byte) error {
	limit := p.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ErrInvalidImage.WithError(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image has zero size"))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return domain.ErrInvalidImage.WithError(
			fmt.Errorf("image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, limit))
	}
	return nil
}

// flatten composites img over an opaque background, dropping the alpha channel.
func (p *Preprocessor) flatten(img image.Image) *image.NRGBA {
	bg := p.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
