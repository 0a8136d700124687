package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cdtool",
	Short: "Read-only tool for Compact Disc images",
	Long: `cdtool reads BIN/CUE Compact Disc images (optionally packed inside a
ZIP archive) and presents their table of contents and individual
sectors the way a physical drive would.`,
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// mediaType returns the override when set, otherwise the lower-cased
// filename extension without its dot.
func mediaType(mediaType, filename string) string {
	if mediaType != "" {
		return mediaType
	}

	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
