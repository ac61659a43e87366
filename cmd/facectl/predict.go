package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type identifier interface {
	Identify(ctx context.Context, imageB64 string) ([]domain.Prediction, error)
}

func newPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <image>",
		Short: "Identify every face in an image against the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImageB64(args[0])
			if err != nil {
				return err
			}

			svc, err := a.galleryService(cmd.Context())
			if err != nil {
				return err
			}

			return predict(cmd.Context(), cmd.OutOrStdout(), svc, img)
		},
	}
}

// predict prints one line per face. An image without faces prints nothing.
func predict(ctx context.Context, w io.Writer, svc identifier, img string) error {
	predictions, err := svc.Identify(ctx, img)
	if errors.Is(err, domain.ErrNoFaceFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, p := range predictions {
		fmt.Fprintf(w, "%s (%d,%d,%d,%d) %.4f\n",
			p.Label, p.Box.Top, p.Box.Right, p.Box.Bottom, p.Box.Left, p.Distance)
	}
	return nil
}
