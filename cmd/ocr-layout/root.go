package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/ocr-layout-mcp/internal/config"
	"github.com/ironsheep/ocr-layout-mcp/internal/logger"
)

var (
	cfgFile string

	// v holds flag bindings; config.LoadWith layers env, file and defaults
	// underneath them.
	v = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ocr-layout",
	Short: "Turn OCR word boxes into merged, coordinate-accurate text regions",
	Long: `ocr-layout runs OCR and barcode decoding on images and PDFs, groups the
recognized words into lines, merges the lines into text regions, and writes
one JSON record per page with the corners of every region.

Records are in the coordinates of the processed raster; use "rescale" to map
them back onto the original file.

Configuration is read from flags, OCR_LAYOUT_* environment variables, and
.ocr-layout.yaml in the current or home directory, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.ocr-layout.yaml or $HOME/.ocr-layout.yaml)")

	flags.String("engine", def.Engine, "recognizer family and confidence scale (tesseract, easyocr)")
	flags.String("languages", def.Languages, "recognizer languages, e.g. eng or eng+deu")
	flags.String("doc-type", def.DocType, "resolution preset (default, large, small, custom)")
	flags.Int("conversion-dpi", def.ConversionDPI, "dpi used to wrap images into PDF (doc-type custom)")
	flags.Int("render-dpi", def.RenderDPI, "dpi used to render PDF pages (doc-type custom)")
	flags.Float64("confidence-threshold", 0, "override the engine's confidence threshold")
	flags.String("json-mode", def.JSONMode, "page record shape (with_text, boxes_only)")
	flags.String("output-dir", def.OutputDir, "directory for page records and images")
	flags.Int("workers", def.Workers, "pages processed concurrently")

	flags.Float64("line-threshold", def.LineThreshold, "max top-edge drift for words on one line (px)")
	flags.Float64("max-horizontal-gap", def.MaxHorizontalGap, "max horizontal gap between words and between merged regions (px)")
	flags.Bool("bullet-break", def.BulletBreak, "start a new line between consecutive list markers")
	flags.Float64("merge-threshold", def.MergeThreshold, "distance within which regions merge (px)")
	flags.Float64("merge-max-vertical-gap", def.MergeMaxVerticalGap, "max vertical gap between merged regions (px)")
	flags.String("merge-strategy", def.MergeStrategy, "merge closure (restart, sweep, components)")

	flags.Bool("barcodes", def.Barcodes, "decode barcodes on each page")
	flags.Bool("overlay", def.Overlay, "write an overlay PNG per page")
	flags.Bool("overlay-labels", def.OverlayLabels, "number each box on the overlay")

	flags.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", def.LogFormat, "log format (console, json)")
	flags.String("log-file", "", "also write logs to this file")

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = v.BindPFlag(f.Name, f)
		}
	})
}

// setup loads configuration and builds the logger for a command.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWith(v, cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogFile,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get()
	log.Debugw("Configuration loaded", "config_file", v.ConfigFileUsed(), "engine", cfg.Engine)
	return cfg, log, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// writeJSON prints val with four-space indentation.
func writeJSON(w io.Writer, val interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(val)
}
