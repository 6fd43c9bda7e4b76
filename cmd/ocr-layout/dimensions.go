package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/rescale"
)

var dimensionsJSON bool

// dimensionsCmd represents the dimensions command
var dimensionsCmd = &cobra.Command{
	Use:   "dimensions <file>",
	Short: "Print the pixel size of an image, or of a PDF's first page at 300 dpi",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := rescale.FileDimensions(args[0])
		if err != nil {
			return err
		}
		if dimensionsJSON {
			return writeJSON(cmd.OutOrStdout(), d)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", d.Width, d.Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dimensionsCmd)
	dimensionsCmd.Flags().BoolVar(&dimensionsJSON, "json", false, "print as JSON")
}
