package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-layout-mcp/internal/ocr"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ocr-layout %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		if v := ocr.Version(); v != "" {
			fmt.Fprintf(out, "  Tesseract:  %s\n", v)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
