// Package codec converts between base64 text, raw bytes and face embeddings.
//
// Embeddings travel as the base64 of their raw float64 little-endian bytes,
// the layout numpy produces for a float64 array on x86 and ARM hosts.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// ElementWidth is the byte width of one serialized embedding component.
const ElementWidth = 8

var errEmptyInput = errors.New("empty input")

// DecodeImage decodes base64 image text into raw bytes.
// Surrounding whitespace, missing padding and a data URL prefix are tolerated.
func DecodeImage(text string) ([]byte, error) {
	return DecodeBytes(text)
}

// DecodeBytes decodes any base64 payload with the same leniency as DecodeImage.
func DecodeBytes(text string) ([]byte, error) {
	data, err := decode(text)
	if err != nil {
		return nil, domain.ErrDecode.WithError(err)
	}
	return data, nil
}

// EncodeBytes returns the padded standard base64 encoding of data.
func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// EmbeddingBytes serializes an embedding into raw float64 little-endian bytes.
func EmbeddingBytes(e domain.Embedding) []byte {
	buf := make([]byte, len(e)*ElementWidth)
	for i, v := range e {
		binary.LittleEndian.PutUint64(buf[i*ElementWidth:], math.Float64bits(v))
	}
	return buf
}

// EncodeEmbedding returns the base64 text of an embedding's raw bytes.
func EncodeEmbedding(e domain.Embedding) string {
	return EncodeBytes(EmbeddingBytes(e))
}

// DecodeEmbedding reconstructs an embedding from base64 text.
// dim <= 0 skips the dimensionality check.
func DecodeEmbedding(text string, dim int) (domain.Embedding, error) {
	raw, err := DecodeBytes(text)
	if err != nil {
		return nil, err
	}
	return EmbeddingFromBytes(raw, dim)
}

// EmbeddingFromBytes reinterprets raw float64 little-endian bytes as an embedding.
func EmbeddingFromBytes(raw []byte, dim int) (domain.Embedding, error) {
	if len(raw)%ElementWidth != 0 {
		return nil, domain.ErrDecode.WithError(
			fmt.Errorf("embedding length %d is not a multiple of %d", len(raw), ElementWidth))
	}

	e := make(domain.Embedding, len(raw)/ElementWidth)
	for i := range e {
		e[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*ElementWidth:]))
	}

	if dim > 0 && len(e) != dim {
		return nil, domain.ErrFormat.WithError(
			fmt.Errorf("embedding has %d dimensions, expected %d", len(e), dim))
	}

	return e, nil
}

func decode(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "data:") {
		if idx := strings.Index(text, ";base64,"); idx >= 0 {
			text = text[idx+len(";base64,"):]
		}
	}
	if text == "" {
		return nil, errEmptyInput
	}

	if strings.HasSuffix(text, "=") {
		return base64.StdEncoding.DecodeString(text)
	}
	return base64.RawStdEncoding.DecodeString(text)
}
