package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/pipeline"
)

// rescaleCmd represents the rescale command
var rescaleCmd = &cobra.Command{
	Use:   "rescale [<original> <processed-image> <page.json>]",
	Short: "Map a page record back onto the original file's pixels",
	Long: `Rescale converts the boxes and corners of a page record from the processed
raster's coordinates to the original file's, and writes
original_text_extraction_page_<n>.json next to the record.

PDF originals are measured by rendering their first page at 300 dpi.

Without arguments, the files of the last extraction into --output-dir are used.

Examples:
  ocr-layout rescale
  ocr-layout rescale scan.pdf extractions/page_1.png extractions/text_extraction_page_1.json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected no arguments or 3 arguments, got %d", len(args))
		}
		return nil
	},
	RunE: runRescale,
}

func init() {
	rootCmd.AddCommand(rescaleCmd)
}

func runRescale(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	proc, err := pipeline.New(cfg, pipeline.WithLogger(log), pipeline.WithBarcodeDecoder(nil))
	if err != nil {
		return err
	}

	var res *pipeline.RescaleResult
	if len(args) == 3 {
		res, err = proc.RescaleToOriginal(args[0], args[1], args[2])
	} else {
		res, err = proc.RescaleLast(cfg.OutputDir)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dimensions: original=(%dx%d), processed=(%dx%d)\n",
		res.Original.Width, res.Original.Height, res.Processed.Width, res.Processed.Height)
	fmt.Fprintf(out, "Scaling ratios: ratio_x = %.4f, ratio_y = %.4f\n", res.Ratios.X, res.Ratios.Y)
	fmt.Fprintf(out, "Updated JSON saved to %s\n", res.Path)
	return nil
}
