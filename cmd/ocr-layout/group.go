package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
	"github.com/ironsheep/ocr-layout-mcp/internal/pipeline"
)

var (
	groupPage int
	groupOut  string
)

// groupCmd represents the group command
var groupCmd = &cobra.Command{
	Use:   "group <detections.json|->",
	Short: "Group raw detections into lines and merged regions",
	Long: `Group reads a JSON array of detections produced by any OCR engine and
emits the page record: text regions merged from grouped lines, followed by
barcode regions.

Each element is a word {"quad": [[x,y],[x,y],[x,y],[x,y]], "text": "...",
"confidence": n} or a barcode {"rect": [x,y,w,h], "payload": "...",
"symbology": "..."}. Confidence is read on the scale of --engine.

Examples:
  ocr-layout group words.json --page 2
  cat words.json | ocr-layout group - --engine easyocr --json-mode boxes_only`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.Flags().IntVar(&groupPage, "page", 1, "page number of the record")
	groupCmd.Flags().StringVar(&groupOut, "out", "", "write the record to this file instead of stdout")
}

func runGroup(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read detections: %w", err)
	}

	dets, barcodes, err := layout.ParseDetections(data)
	if err != nil {
		return err
	}

	page, err := cfg.LayoutEngine().BuildPage(groupPage, dets, barcodes, cfg.Mode())
	if err != nil {
		return err
	}
	log.WithPage(groupPage).Infow("Grouped detections",
		"detections", len(dets),
		"barcodes", len(barcodes),
		"regions", len(page.Boxes),
	)

	if groupOut != "" {
		return pipeline.WriteJSON(groupOut, page)
	}
	return writeJSON(cmd.OutOrStdout(), page)
}
