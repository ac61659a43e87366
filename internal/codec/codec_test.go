package codec

import (
	"encoding/base64"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

func TestDecodeImage(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	padded := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr error
	}{
		{name: "padded", input: padded, want: payload},
		{name: "unpadded", input: base64.RawStdEncoding.EncodeToString(payload), want: payload},
		{name: "surrounding whitespace", input: "  " + padded + "\n", want: payload},
		{name: "data url prefix", input: "data:image/jpeg;base64," + padded, want: payload},
		{name: "empty", input: "", wantErr: domain.ErrDecode},
		{name: "whitespace only", input: "   ", wantErr: domain.ErrDecode},
		{name: "invalid characters", input: "not base64!!", wantErr: domain.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeImage(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeBytes(t *testing.T) {
	assert.Equal(t, "dGVzdA==", EncodeBytes([]byte("test")))
	assert.Equal(t, "", EncodeBytes(nil))
}

func TestEmbeddingRoundTrip_BitExact(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	e := make(domain.Embedding, 128)
	for i := range e {
		e[i] = rng.NormFloat64() * 0.1
	}
	e[0] = math.Copysign(0, -1)
	e[1] = math.SmallestNonzeroFloat64
	e[2] = math.MaxFloat64
	e[3] = math.Float64frombits(0x7FF8000000000001) // NaN with payload

	got, err := DecodeEmbedding(EncodeEmbedding(e), 128)
	require.NoError(t, err)
	require.Len(t, got, len(e))

	for i := range e {
		assert.Equal(t, math.Float64bits(e[i]), math.Float64bits(got[i]), "component %d", i)
	}
}

func TestEmbeddingBytes_LittleEndianFloat64(t *testing.T) {
	raw := EmbeddingBytes(domain.Embedding{1.0})

	// 1.0 == 0x3FF0000000000000
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, raw)
}

func TestDecodeEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		dim     int
		wantErr error
	}{
		{
			name:    "invalid base64",
			input:   "%%%",
			dim:     128,
			wantErr: domain.ErrDecode,
		},
		{
			name:    "length not a multiple of element width",
			input:   base64.StdEncoding.EncodeToString(make([]byte, 12)),
			dim:     0,
			wantErr: domain.ErrDecode,
		},
		{
			name:    "wrong dimensionality",
			input:   EncodeEmbedding(make(domain.Embedding, 64)),
			dim:     128,
			wantErr: domain.ErrFormat,
		},
		{
			name:    "empty",
			input:   "",
			dim:     128,
			wantErr: domain.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEmbedding(tt.input, tt.dim)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeEmbedding_DimensionCheckDisabled(t *testing.T) {
	got, err := DecodeEmbedding(EncodeEmbedding(domain.Embedding{0.5, -0.25}), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{0.5, -0.25}, got)
}
