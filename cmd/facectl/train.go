package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/trainer"
)

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train <dir>",
		Short: "Enroll <dir>/<person>/*.{png,jpg,jpeg} into the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := trainer.Collect(args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no training images under %s", args[0])
			}

			svc, err := a.galleryService(cmd.Context())
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(items),
				progressbar.OptionSetDescription("Enrolling faces"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			report, err := trainer.New(svc, a.logger).Run(cmd.Context(), items, func() { _ = bar.Add(1) })
			_ = bar.Finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.verbose {
				for _, s := range report.Skipped {
					fmt.Fprintf(out, "image %s not fit for training: %s\n", s.Path, s.Reason)
				}
			}
			fmt.Fprintf(out, "enrolled %d samples across %d identities, skipped %d\n",
				report.Enrolled, len(report.Labels), len(report.Skipped))
			return nil
		},
	}
}
