// Segclockd is the daemon behind a segclock network clock.
//
// It drives the four-digit display, serves the clock's web interface one
// client at a time and advertises itself on the LAN over mDNS. Settings
// changed from the web interface are kept in a YAML file.
//
// Usage:
//
//	segclockd serve [flags]
//
// See 'segclockd serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/segclock/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "segclockd",
	Short: "Segclock network clock daemon",
	Long: `The segclock daemon shows the time on a four-digit display and serves a
small web interface for brightness, network and timezone settings.

To change settings from another machine, use the separate 'segclock-cfg'
utility or open the clock's address in a browser.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("segclockd %s (commit: %s)\n", version.Version, version.Commit)
	},
}
