package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownLabel is reported for faces the gallery could not recognize.
const UnknownLabel = "N/A"

// Embedding is the numeric descriptor of one detected face.
type Embedding []float64

// BoundingBox is a face region in pixel coordinates of the processed image.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// DetectedFace pairs a detection with the embedding extracted from it.
type DetectedFace struct {
	Box       BoundingBox
	Embedding Embedding
}

// MatchResult is the outcome of comparing a reference and a candidate embedding.
type MatchResult struct {
	Same      bool    `json:"same"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
}

// Sample is a labelled embedding stored in the gallery.
type Sample struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Embedding Embedding `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Neighbor is a gallery sample returned by a nearest-neighbour lookup.
type Neighbor struct {
	Label    string
	Distance float64
}

// Prediction is the gallery classification of one detected face.
type Prediction struct {
	Label      string      `json:"label"`
	Distance   float64     `json:"distance"`
	Recognized bool        `json:"recognized"`
	Box        BoundingBox `json:"box"`
}

// IdentitySummary counts the samples enrolled under a label.
type IdentitySummary struct {
	Label   string `json:"label"`
	Samples int    `json:"samples"`
}
