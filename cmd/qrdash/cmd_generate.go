package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qrdash/internal/qr"
)

var (
	generateOut  string
	generateFill string
	generateBack string
)

var generateCmd = &cobra.Command{
	Use:   "generate URL",
	Short: "Write a QR code PNG for any URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fill, err := qr.ParseColor(generateFill)
		if err != nil {
			return err
		}
		back, err := qr.ParseColor(generateBack)
		if err != nil {
			return err
		}
		png, err := qr.EncodePNG(args[0], fill, back)
		if err != nil {
			return err
		}
		if err := os.WriteFile(generateOut, png, 0644); err != nil {
			return fmt.Errorf("write %s: %w", generateOut, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), generateOut)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "dynamic_QR.png", "output PNG file")
	generateCmd.Flags().StringVar(&generateFill, "fill", qr.DefaultFill, "fill color")
	generateCmd.Flags().StringVar(&generateBack, "back", qr.DefaultBack, "background color")
}
