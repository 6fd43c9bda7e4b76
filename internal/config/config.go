// Package config provides configuration management for ocr-layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/ocr-layout-mcp/internal/layout"
)

// EnvPrefix is prepended to every environment variable, e.g. OCR_LAYOUT_RENDER_DPI.
const EnvPrefix = "OCR_LAYOUT"

// Document types select a resolution preset.
const (
	DocTypeDefault = "default"
	DocTypeLarge   = "large"
	DocTypeSmall   = "small"
	DocTypeCustom  = "custom"
)

// Config holds all settings. Precedence: CLI flags > environment > config file > defaults.
type Config struct {
	// Engine names the recognizer family and its confidence scale
	// (tesseract or easyocr).
	Engine string

	// Languages is the recognizer language list, e.g. "eng" or "eng+deu".
	Languages string

	// DocType picks the resolution preset; "custom" uses RenderDPI and
	// ConversionDPI as given.
	DocType string

	// ConversionDPI is used when wrapping a raster image into a PDF.
	ConversionDPI int

	// RenderDPI is used when rasterizing PDF pages for recognition.
	RenderDPI int

	// ConfidenceThreshold overrides the engine profile threshold when set.
	// Zero keeps every fragment that has text.
	ConfidenceThreshold *float64

	// JSONMode is with_text or boxes_only.
	JSONMode string

	// OutputDir receives per-page JSON and overlays.
	OutputDir string

	// Workers bounds concurrent page processing.
	Workers int

	LineThreshold       float64
	MaxHorizontalGap    float64
	BulletBreak         bool
	MergeThreshold      float64
	MergeMaxVerticalGap float64
	MergeStrategy       string

	// Barcodes enables barcode decoding on each page.
	Barcodes bool

	// Overlay writes a PNG per page with region boxes drawn on it.
	Overlay bool

	// OverlayLabels numbers each box on the overlay in output order.
	OverlayLabels bool

	// CacheSize is the number of decoded images kept in memory.
	CacheSize int

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration into a fresh viper instance.
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith reads configuration using v, which may already carry bound flags.
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".ocr-layout")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fromViper assembles a Config from every key SetDefaults registers.
func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Engine:              v.GetString("engine"),
		Languages:           v.GetString("languages"),
		DocType:             v.GetString("doc-type"),
		ConversionDPI:       v.GetInt("conversion-dpi"),
		RenderDPI:           v.GetInt("render-dpi"),
		JSONMode:            v.GetString("json-mode"),
		OutputDir:           v.GetString("output-dir"),
		Workers:             v.GetInt("workers"),
		LineThreshold:       v.GetFloat64("line-threshold"),
		MaxHorizontalGap:    v.GetFloat64("max-horizontal-gap"),
		BulletBreak:         v.GetBool("bullet-break"),
		MergeThreshold:      v.GetFloat64("merge-threshold"),
		MergeMaxVerticalGap: v.GetFloat64("merge-max-vertical-gap"),
		MergeStrategy:       v.GetString("merge-strategy"),
		Barcodes:            v.GetBool("barcodes"),
		Overlay:             v.GetBool("overlay"),
		OverlayLabels:       v.GetBool("overlay-labels"),
		CacheSize:           v.GetInt("cache-size"),
		LogLevel:            v.GetString("log-level"),
		LogFormat:           v.GetString("log-format"),
		LogFile:             v.GetString("log-file"),
	}
	// No default is registered, so IsSet reports only an explicit value.
	if v.IsSet("confidence-threshold") {
		t := v.GetFloat64("confidence-threshold")
		cfg.ConfidenceThreshold = &t
	}
	return cfg
}

// SetDefaults registers default values on v. confidence-threshold has no
// default: the engine profile supplies it.
func SetDefaults(v *viper.Viper) {
	group := layout.DefaultGroupOptions()
	merge := layout.DefaultMergeOptions()

	v.SetDefault("engine", layout.ProfileTesseract.Name)
	v.SetDefault("languages", "eng")
	v.SetDefault("doc-type", DocTypeDefault)
	v.SetDefault("conversion-dpi", 100)
	v.SetDefault("render-dpi", 110)
	v.SetDefault("json-mode", string(layout.JSONModeWithText))
	v.SetDefault("output-dir", "extractions")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("line-threshold", group.LineThreshold)
	v.SetDefault("max-horizontal-gap", group.MaxHorizontalGap)
	v.SetDefault("bullet-break", group.BulletBreak)
	v.SetDefault("merge-threshold", merge.Threshold)
	v.SetDefault("merge-max-vertical-gap", merge.MaxVerticalGap)
	v.SetDefault("merge-strategy", string(merge.Strategy))
	v.SetDefault("barcodes", true)
	v.SetDefault("overlay", false)
	v.SetDefault("overlay-labels", false)
	v.SetDefault("cache-size", 10)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("log-file", "")
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

// Resolution is a conversion/render dpi pair.
type Resolution struct {
	ConversionDPI int
	RenderDPI     int
}

// presets holds the resolution tables per engine and document type. Tesseract
// wants moderate render resolution; EasyOCR's detector works best on a small
// source wrapped into a PDF and rendered large.
var presets = map[string]map[string]Resolution{
	"tesseract": {
		DocTypeLarge:   {ConversionDPI: 200, RenderDPI: 150},
		DocTypeSmall:   {ConversionDPI: 100, RenderDPI: 110},
		DocTypeDefault: {ConversionDPI: 100, RenderDPI: 110},
	},
	"easyocr": {
		DocTypeLarge:   {ConversionDPI: 55, RenderDPI: 500},
		DocTypeSmall:   {ConversionDPI: 100, RenderDPI: 300},
		DocTypeDefault: {ConversionDPI: 100, RenderDPI: 300},
	},
}

// Resolution returns the effective conversion and render dpi.
func (c *Config) Resolution() Resolution {
	return Resolution{ConversionDPI: c.ConversionDPI, RenderDPI: c.RenderDPI}
}

// Preset returns the resolution for an engine and document type.
func Preset(engine, docType string) (Resolution, bool) {
	byType, ok := presets[strings.ToLower(engine)]
	if !ok {
		return Resolution{}, false
	}
	r, ok := byType[strings.ToLower(docType)]
	return r, ok
}

// Validate checks the configuration and normalizes case and presets.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(c.Engine)
	if _, ok := layout.ProfileByName(c.Engine); !ok {
		return fmt.Errorf("invalid engine %q, must be one of: tesseract, easyocr", c.Engine)
	}

	c.DocType = strings.ToLower(c.DocType)
	if c.DocType == "" {
		c.DocType = DocTypeDefault
	}
	if c.DocType != DocTypeCustom {
		res, ok := Preset(c.Engine, c.DocType)
		if !ok {
			return fmt.Errorf("invalid doc-type %q, must be one of: default, large, small, custom", c.DocType)
		}
		c.ConversionDPI = res.ConversionDPI
		c.RenderDPI = res.RenderDPI
	}
	if c.ConversionDPI <= 0 {
		return fmt.Errorf("conversion-dpi must be positive, got %d", c.ConversionDPI)
	}
	if c.RenderDPI <= 0 {
		return fmt.Errorf("render-dpi must be positive, got %d", c.RenderDPI)
	}

	if c.ConfidenceThreshold != nil && *c.ConfidenceThreshold < 0 {
		return fmt.Errorf("confidence-threshold must be non-negative, got %g", *c.ConfidenceThreshold)
	}
	if _, err := layout.ParseJSONMode(c.JSONMode); err != nil {
		return err
	}
	if _, err := layout.ParseMergeStrategy(c.MergeStrategy); err != nil {
		return err
	}
	if c.LineThreshold < 0 || c.MaxHorizontalGap < 0 || c.MergeThreshold < 0 || c.MergeMaxVerticalGap < 0 {
		return fmt.Errorf("grouping and merge distances must be non-negative")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache-size must be at least 1, got %d", c.CacheSize)
	}

	if strings.HasPrefix(c.OutputDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to expand home directory in output-dir: %w", err)
		}
		c.OutputDir = filepath.Join(home, c.OutputDir[2:])
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log-level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log-format %q, must be console or json", c.LogFormat)
	}

	return nil
}

// Profile returns the engine profile with any threshold override applied.
func (c *Config) Profile() layout.Profile {
	p, _ := layout.ProfileByName(c.Engine)
	if c.ConfidenceThreshold != nil {
		p.Threshold = *c.ConfidenceThreshold
	}
	return p
}

// LayoutEngine builds a layout engine from the grouping and merge settings.
func (c *Config) LayoutEngine() *layout.Engine {
	e := layout.NewEngine(c.Profile())
	e.Group = layout.GroupOptions{
		LineThreshold:    c.LineThreshold,
		MaxHorizontalGap: c.MaxHorizontalGap,
		BulletBreak:      c.BulletBreak,
	}
	strategy, _ := layout.ParseMergeStrategy(c.MergeStrategy)
	e.Merge = layout.MergeOptions{
		Threshold:        c.MergeThreshold,
		MaxHorizontalGap: c.MaxHorizontalGap,
		MaxVerticalGap:   c.MergeMaxVerticalGap,
		Strategy:         strategy,
	}
	return e
}

// Mode returns the parsed JSON output mode.
func (c *Config) Mode() layout.JSONMode {
	m, _ := layout.ParseJSONMode(c.JSONMode)
	return m
}

// String returns a readable summary.
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Engine: %s (%s)
  DocType: %s (conversion %d dpi, render %d dpi)
  JSONMode: %s
  OutputDir: %s
  Workers: %d
  Grouping: line %.2f px, gap %.2f px, bullet break %t
  Merge: %s, threshold %.2f px, vertical gap %.2f px
  Barcodes: %t
  Overlay: %t (labels %t)
  LogLevel: %s`,
		c.Engine, c.Languages,
		c.DocType, c.ConversionDPI, c.RenderDPI,
		c.JSONMode,
		c.OutputDir,
		c.Workers,
		c.LineThreshold, c.MaxHorizontalGap, c.BulletBreak,
		c.MergeStrategy, c.MergeThreshold, c.MergeMaxVerticalGap,
		c.Barcodes,
		c.Overlay, c.OverlayLabels,
		c.LogLevel,
	)
}
