package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/codec"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/gallery"
	"github.com/saturnino-fabrica-de-software/facegate/internal/knn"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facegate/internal/preprocess"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// Options tunes the matching side of the pipeline.
type Options struct {
	MatchThreshold float64
	EmbeddingDim   int
	KNNNeighbors   int
	KNNThreshold   float64
}

func DefaultOptions() Options {
	return Options{
		MatchThreshold: matcher.DefaultThreshold,
		EmbeddingDim:   128,
		KNNThreshold:   knn.DefaultThreshold,
	}
}

// FaceService runs base64 payloads through decode, preprocess, detection and
// matching. It holds no per-request state.
type FaceService struct {
	provider   provider.FaceProvider
	pre        *preprocess.Preprocessor
	matcher    *matcher.Matcher
	gallery    gallery.Store
	classifier *knn.Classifier
	auditor    audit.Logger
	dim        int
}

func NewFaceService(faceProvider provider.FaceProvider, store gallery.Store, opts Options) *FaceService {
	return &FaceService{
		provider:   faceProvider,
		pre:        preprocess.New(),
		matcher:    matcher.New(opts.MatchThreshold),
		gallery:    store,
		classifier: knn.New(store, opts.KNNNeighbors, opts.KNNThreshold),
		auditor:    &audit.NoOpLogger{},
		dim:        opts.EmbeddingDim,
	}
}

// WithPreprocessor swaps the image normalizer.
func (s *FaceService) WithPreprocessor(p *preprocess.Preprocessor) *FaceService {
	s.pre = p
	return s
}

// WithAuditor records gallery operations to a.
func (s *FaceService) WithAuditor(a audit.Logger) *FaceService {
	s.auditor = a
	return s
}

// record logs event; audit failures never fail the audited operation.
func (s *FaceService) record(ctx context.Context, event audit.Event, err error) {
	event.Provider = s.provider.Name()
	event.Success = err == nil
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.auditor.Log(ctx, event)
}

// Gallery exposes the backing store for readiness checks.
func (s *FaceService) Gallery() gallery.Store {
	return s.gallery
}

// ProviderName identifies the face backend in health output.
func (s *FaceService) ProviderName() string {
	return s.provider.Name()
}

// detect normalizes raw image bytes and runs the provider on them.
func (s *FaceService) detect(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	normalized, err := s.pre.Normalize(image)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	faces, err := s.provider.DetectAndEncode(ctx, normalized)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ProviderDuration.WithLabelValues(s.provider.Name(), outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	metrics.FacesDetected.Add(float64(len(faces)))
	return faces, nil
}

// Encode returns the base64 embedding of the first face in imageB64.
func (s *FaceService) Encode(ctx context.Context, imageB64 string) (string, error) {
	if strings.TrimSpace(imageB64) == "" {
		return "", domain.ErrFormat
	}

	image, err := codec.DecodeImage(imageB64)
	if err != nil {
		return "", err
	}

	faces, err := s.detect(ctx, image)
	if err != nil {
		return "", err
	}
	if len(faces) == 0 {
		return "", domain.ErrNoFaceFound
	}

	return codec.EncodeEmbedding(faces[0].Embedding), nil
}

// Verify compares the first face in imageB64 against the reference encoding.
func (s *FaceService) Verify(ctx context.Context, imageB64, encodingB64 string) (domain.MatchResult, error) {
	if strings.TrimSpace(imageB64) == "" || strings.TrimSpace(encodingB64) == "" {
		return domain.MatchResult{}, domain.ErrFormat
	}

	image, err := codec.DecodeImage(imageB64)
	if err != nil {
		return domain.MatchResult{}, err
	}
	rawReference, err := codec.DecodeBytes(encodingB64)
	if err != nil {
		return domain.MatchResult{}, err
	}

	faces, err := s.detect(ctx, image)
	if err != nil {
		return domain.MatchResult{}, err
	}

	reference, err := codec.EmbeddingFromBytes(rawReference, s.dim)
	if err != nil {
		return domain.MatchResult{}, err
	}

	if len(faces) == 0 {
		return domain.MatchResult{}, domain.ErrNoFaceFound
	}

	result, err := s.matcher.Compare(reference, faces[0].Embedding)
	if err != nil {
		return domain.MatchResult{}, err
	}

	if result.Same {
		metrics.Verifications.WithLabelValues("same").Inc()
	} else {
		metrics.Verifications.WithLabelValues("different").Inc()
	}
	return result, nil
}

// Enroll adds one labelled sample to the gallery, from either an image with
// exactly one face or a ready-made encoding.
func (s *FaceService) Enroll(ctx context.Context, label, imageB64, encodingB64 string) (*domain.Sample, error) {
	label = strings.TrimSpace(label)
	hasImage := strings.TrimSpace(imageB64) != ""
	hasEncoding := strings.TrimSpace(encodingB64) != ""
	if label == "" || hasImage == hasEncoding {
		return nil, domain.ErrFormat
	}

	var emb domain.Embedding
	if hasEncoding {
		decoded, err := codec.DecodeEmbedding(encodingB64, s.dim)
		if err != nil {
			return nil, err
		}
		emb = decoded
	} else {
		image, err := codec.DecodeImage(imageB64)
		if err != nil {
			return nil, err
		}
		faces, err := s.detect(ctx, image)
		if err != nil {
			return nil, err
		}
		switch len(faces) {
		case 0:
			return nil, domain.ErrNoFaceFound
		case 1:
			emb = faces[0].Embedding
		default:
			return nil, domain.ErrMultipleFaces
		}
	}

	sample := &domain.Sample{Label: label, Embedding: emb}
	err := s.gallery.Add(ctx, sample)
	s.record(ctx, audit.Event{
		EventType: audit.EventIdentityEnrolled,
		Label:     label,
		SampleID:  sample.ID.String(),
	}, err)
	if err != nil {
		return nil, fmt.Errorf("enroll %q: %w", label, err)
	}
	return sample, nil
}

// Identify classifies every face in imageB64 against the gallery.
func (s *FaceService) Identify(ctx context.Context, imageB64 string) ([]domain.Prediction, error) {
	if strings.TrimSpace(imageB64) == "" {
		return nil, domain.ErrFormat
	}

	n, err := s.gallery.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count gallery: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrGalleryEmpty
	}

	image, err := codec.DecodeImage(imageB64)
	if err != nil {
		return nil, err
	}

	faces, err := s.detect(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, domain.ErrNoFaceFound
	}

	predictions := make([]domain.Prediction, 0, len(faces))
	recognized := 0
	for _, f := range faces {
		pred, err := s.classifier.Classify(ctx, f.Embedding)
		if err != nil {
			s.record(ctx, audit.Event{EventType: audit.EventFaceIdentified}, err)
			return nil, fmt.Errorf("classify face: %w", err)
		}
		pred.Box = f.Box
		if pred.Recognized {
			recognized++
		}
		predictions = append(predictions, pred)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventFaceIdentified,
		Metadata: map[string]string{
			"faces":      strconv.Itoa(len(predictions)),
			"recognized": strconv.Itoa(recognized),
		},
	}, nil)
	return predictions, nil
}

func (s *FaceService) ListIdentities(ctx context.Context) ([]domain.IdentitySummary, error) {
	labels, err := s.gallery.Labels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return labels, nil
}

func (s *FaceService) DeleteIdentity(ctx context.Context, label string) (int, error) {
	if strings.TrimSpace(label) == "" {
		return 0, domain.ErrFormat
	}
	removed, err := s.gallery.DeleteLabel(ctx, label)
	s.record(ctx, audit.Event{
		EventType: audit.EventIdentityDeleted,
		Label:     label,
		Metadata:  map[string]string{"samples": strconv.Itoa(removed)},
	}, err)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("delete identity %q: %w", label, err)
	}
	return removed, nil
}
