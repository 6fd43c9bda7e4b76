package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
	"github.com/ironsheep/ocr-layout-mcp/internal/pipeline"
)

var extractPrint bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract text regions and barcodes from an image or PDF",
	Long: `Extract rasterizes every page of an image or PDF, runs OCR and barcode
decoding, and writes text_extraction_page_<n>.json per page into the output
directory together with the processed page image.

Images are first wrapped into a PDF at the conversion dpi; pages are rendered
at the render dpi. Both come from the doc-type preset unless doc-type is custom.

Examples:
  # Extract a scanned invoice
  ocr-layout extract invoice.png

  # Large-format drawing with overlays, records printed to stdout
  ocr-layout extract plan.pdf --doc-type large --overlay --print`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractPrint, "print", false, "print page records to stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	proc, err := pipeline.New(cfg, pipeline.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := proc.ProcessDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	out := cmd.OutOrStdout()
	records := make([]*layout.Page, 0, len(result.Pages))
	for _, pr := range result.Pages {
		if pr.Err != nil {
			continue
		}
		records = append(records, pr.Record)
		if !extractPrint {
			fmt.Fprintf(out, "page %d: %d regions -> %s\n", pr.Page, len(pr.Regions), pr.JSONPath)
		}
	}
	if extractPrint {
		if err := writeJSON(out, records); err != nil {
			return err
		}
	}

	return result.Err()
}
