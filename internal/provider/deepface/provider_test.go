package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.FaceProvider = (*Provider)(nil)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	config.RetryCount = 0
	return NewProvider(config)
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "deepface/Dlib", NewProvider(DefaultConfig()).Name())
}

func TestProvider_DetectAndEncode(t *testing.T) {
	embedding := make([]float64, 128)
	for i := range embedding {
		embedding[i] = float64(i) / 1000
	}

	tests := []struct {
		name      string
		status    int
		body      interface{}
		wantFaces []domain.BoundingBox
		wantCode  string
	}{
		{
			name:   "two faces in detector order",
			status: http.StatusOK,
			body: RepresentResponse{Results: []RepresentResult{
				{Embedding: embedding, FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 120}},
				{Embedding: embedding, FacialArea: FacialArea{X: 150, Y: 30, W: 90, H: 90}},
			}},
			wantFaces: []domain.BoundingBox{
				{Top: 20, Right: 110, Bottom: 140, Left: 10},
				{Top: 30, Right: 240, Bottom: 120, Left: 150},
			},
		},
		{
			name:      "no face rejection maps to empty result",
			status:    http.StatusBadRequest,
			body:      map[string]string{"error": "Exception while representing: Face could not be detected in numpy array."},
			wantFaces: []domain.BoundingBox{},
		},
		{
			name:     "other client error is an invalid image",
			status:   http.StatusBadRequest,
			body:     map[string]string{"error": "cannot identify image file"},
			wantCode: domain.ErrInvalidImage.Code,
		},
		{
			name:     "server error is provider unavailable",
			status:   http.StatusInternalServerError,
			body:     map[string]string{"error": "boom"},
			wantCode: domain.ErrProviderUnavailable.Code,
		},
		{
			name:     "empty embedding is an internal error",
			status:   http.StatusOK,
			body:     RepresentResponse{Results: []RepresentResult{{FacialArea: FacialArea{W: 1, H: 1}}}},
			wantCode: domain.ErrInternal.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			})

			faces, err := p.DetectAndEncode(context.Background(), []byte("jpeg bytes"))

			if tt.wantCode != "" {
				require.Error(t, err)
				var appErr *domain.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantCode, appErr.Code)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, faces)
			require.Len(t, faces, len(tt.wantFaces))
			for i, box := range tt.wantFaces {
				assert.Equal(t, box, faces[i].Box)
				assert.Equal(t, domain.Embedding(embedding), faces[i].Embedding)
			}
		})
	}
}

func TestProvider_DetectAndEncode_ContextCanceled(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.DetectAndEncode(ctx, []byte("jpeg bytes"))
	assert.ErrorIs(t, err, context.Canceled)
}
