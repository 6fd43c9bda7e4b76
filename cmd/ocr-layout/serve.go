package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/imaging"
	"github.com/ironsheep/ocr-layout-mcp/internal/pipeline"
	"github.com/ironsheep/ocr-layout-mcp/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serve exposes extraction, grouping, rescaling and cropping as MCP tools.
The server communicates via JSON-RPC over stdin/stdout; logs go to stderr.
Configure it in your MCP client as:

  {"command": "ocr-layout", "args": ["serve"]}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	log.Infow("Starting MCP server", "version", Version, "commit", GitCommit)

	cache := imaging.NewImageCache(cfg.CacheSize)
	proc, err := pipeline.New(cfg, pipeline.WithLogger(log), pipeline.WithImageCache(cache))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return server.New(proc, cache, log).Run(ctx)
}
