// Segclock-cfg configures segclock network clocks from the command line.
//
// Clocks are found with mDNS or addressed directly with --clock. Every
// command talks to the clock's web interface, the same pages a browser
// would use.
//
// Usage:
//
//	segclock-cfg scan
//	segclock-cfg show --clock 192.168.1.40
//	segclock-cfg set --timezone Europe/London
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
	Use:   "segclock-cfg",
	Short: "Configure segclock network clocks",
	Long: `Segclock-cfg finds clocks on the local network and changes their
brightness, network and timezone settings.

When --clock is not given and exactly one clock answers on mDNS, that
clock is used.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("segclock-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
