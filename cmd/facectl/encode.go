package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <image>",
		Short: "Print the base64 encoding of the first face in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImageB64(args[0])
			if err != nil {
				return err
			}

			encoding, err := a.service().Encode(cmd.Context(), img)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), encoding)
			return nil
		},
	}
}
