// Package trainer enrolls a directory tree of labelled photos into the gallery.
//
// The expected layout is one sub-directory per person:
//
//	<dir>/<label>/<photo>.{png,jpg,jpeg}
package trainer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Item is one photo to enroll under Label.
type Item struct {
	Label string
	Path  string
}

// Skip records a photo that was not enrolled.
type Skip struct {
	Path   string
	Reason string
}

// Report summarizes a training run.
type Report struct {
	Enrolled int
	Skipped  []Skip
	Labels   map[string]int
}

// Enroller is the gallery side of the face service.
type Enroller interface {
	Enroll(ctx context.Context, label, imageB64, encodingB64 string) (*domain.Sample, error)
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Collect lists every photo under dir, ordered by label then file name.
// Files directly in dir are ignored.
func Collect(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read training dir: %w", err)
	}

	var items []Item
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		classDir := filepath.Join(dir, e.Name())
		files, err := os.ReadDir(classDir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", classDir, err)
		}
		for _, f := range files {
			if f.IsDir() || !IsImage(f.Name()) {
				continue
			}
			items = append(items, Item{Label: e.Name(), Path: filepath.Join(classDir, f.Name())})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Label != items[j].Label {
			return items[i].Label < items[j].Label
		}
		return items[i].Path < items[j].Path
	})
	return items, nil
}

type Trainer struct {
	enroller Enroller
	logger   *slog.Logger
}

func New(enroller Enroller, logger *slog.Logger) *Trainer {
	return &Trainer{enroller: enroller, logger: logger}
}

// Run enrolls items one by one. Photos without exactly one face, or that
// cannot be decoded, are skipped; any other failure aborts the run.
// progress, if set, is called after every item.
func (t *Trainer) Run(ctx context.Context, items []Item, progress func()) (Report, error) {
	report := Report{Labels: make(map[string]int)}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		reason, err := t.enroll(ctx, item)
		if err != nil {
			return report, fmt.Errorf("enroll %s: %w", item.Path, err)
		}
		if reason != "" {
			report.Skipped = append(report.Skipped, Skip{Path: item.Path, Reason: reason})
			t.logger.Debug("image not fit for training",
				slog.String("path", item.Path),
				slog.String("reason", reason),
			)
		} else {
			report.Enrolled++
			report.Labels[item.Label]++
		}

		if progress != nil {
			progress()
		}
	}

	return report, nil
}

func (t *Trainer) enroll(ctx context.Context, item Item) (string, error) {
	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", err
	}

	_, err = t.enroller.Enroll(ctx, item.Label, base64.StdEncoding.EncodeToString(data), "")
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, domain.ErrNoFaceFound):
		return "didn't find a face", nil
	case errors.Is(err, domain.ErrMultipleFaces):
		return "found more than one face", nil
	case errors.Is(err, domain.ErrInvalidImage):
		return "not a readable image", nil
	default:
		return "", err
	}
}
