package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <image> <encoding|@file>",
		Short: "Print True if the first face in image matches the reference encoding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImageB64(args[0])
			if err != nil {
				return err
			}

			encoding := args[1]
			if path, ok := strings.CutPrefix(encoding, "@"); ok {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read encoding: %w", err)
				}
				encoding = strings.TrimSpace(string(raw))
			}

			result, err := a.service().Verify(cmd.Context(), img, encoding)
			if err != nil {
				return err
			}

			if a.verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "distance %.4f (threshold %.2f)\n", result.Distance, result.Threshold)
			}
			if result.Same {
				fmt.Fprintln(cmd.OutOrStdout(), "True")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "False")
			}
			return nil
		},
	}
}
