package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/segclock/internal/clockclient"
	"github.com/muurk/segclock/internal/config"
	"github.com/muurk/segclock/internal/discovery"
	"github.com/muurk/segclock/internal/ui"
)

// Command flags
var (
	clockAddr      string
	clockName      string
	clockPort      int
	requestTimeout time.Duration
	retries        int
	scanTimeout    int
	outputFormat   string

	newSSID     string
	newPassword string
	newTimezone string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&clockAddr, "clock", "", "Clock address, host or host:port (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&clockName, "name", "", "Find the clock with this mDNS name")
	rootCmd.PersistentFlags().IntVar(&clockPort, "port", discovery.DefaultPort, "Clock HTTP port when --clock has none")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", clockclient.DefaultTimeout, "Timeout for each request")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", clockclient.DefaultMaxRetries, "Retries for failed requests")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(brighterCmd)
	rootCmd.AddCommand(dimmerCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(useCmd)
}

// scanCmd discovers clocks on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for clocks on the network",
	Long: `Scan for segclock clocks using mDNS/DNS-SD discovery.

Only services carrying the segclock model marker are listed; other web
servers on the network are ignored.`,
	Example: `  # Scan for 5 seconds (default)
  segclock-cfg scan

  # Longer scan for busy networks
  segclock-cfg scan --scan-timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for clocks (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	devices, err := scanner.ScanForDevicesWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No clocks found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure segclockd is running with advertising enabled")
		fmt.Println("  - Check that this computer is on the same network segment")
		fmt.Println("  - Check that the firewall allows mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --clock to give the address directly")
		return nil
	}

	registry := loadRegistry()
	fmt.Printf("Found %d clock(s):\n\n", len(devices))
	for i, device := range devices {
		registry.UpdateClockLastSeen(device.Name, device.Addr(), device.Version)
		fmt.Printf("%d. %s\n", i+1, device.Name)
		fmt.Printf("   Address:  %s\n", device.Addr())
		if device.Hostname != "" {
			fmt.Printf("   Hostname: %s\n", device.Hostname)
		}
		if device.Version != "" {
			fmt.Printf("   Version:  %s\n", device.Version)
		}
		fmt.Println()
	}
	saveRegistry(registry)
	return nil
}

// showCmd prints a clock's status and settings
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a clock's status and settings",
	Example: `  segclock-cfg show
  segclock-cfg show --clock 192.168.1.40 --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

// showOutput is the JSON form of the show command.
type showOutput struct {
	URL    string              `json:"url"`
	Status *clockclient.Status `json:"status"`
	Config *clockclient.Config `json:"config"`
}

func runShow(cmd *cobra.Command, args []string) error {
	if outputFormat != "detailed" && outputFormat != "json" {
		return fmt.Errorf("unknown format %q (want detailed or json)", outputFormat)
	}

	client, err := newClient(cmd.Context(), outputFormat != "json")
	if err != nil {
		return err
	}

	status, err := client.Status(cmd.Context())
	if err != nil {
		return reportError("Could not read clock status", err)
	}
	settings, err := client.Config(cmd.Context())
	if err != nil {
		return reportError("Could not read clock settings", err)
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(showOutput{URL: client.BaseURL, Status: status, Config: settings})
	}

	password := "(not set)"
	if settings.Password != "" {
		password = strings.Repeat("*", len(settings.Password))
	}
	timezone := settings.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintSuccess(status.Title,
		ui.Field{Key: "URL", Value: client.BaseURL},
		ui.Field{Key: "Firmware", Value: status.Version},
		ui.Field{Key: "Address", Value: status.Address},
		ui.Field{Key: "Brightness", Value: strconv.Itoa(status.Brightness)},
		ui.Field{Key: "Network", Value: settings.SSID},
		ui.Field{Key: "Password", Value: password},
		ui.Field{Key: "Timezone", Value: timezone},
	)
	return nil
}

var brighterCmd = &cobra.Command{
	Use:   "brighter",
	Short: "Raise the display brightness one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrightness(cmd.Context(), "brighter")
	},
}

var dimmerCmd = &cobra.Command{
	Use:   "dimmer",
	Short: "Lower the display brightness one step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrightness(cmd.Context(), "dimmer")
	},
}

func runBrightness(ctx context.Context, direction string) error {
	client, err := newClient(ctx, true)
	if err != nil {
		return err
	}

	step := client.Brighter
	if direction == "dimmer" {
		step = client.Dimmer
	}
	if err := step(ctx); err != nil {
		return reportError("Brightness change failed", err)
	}

	status, err := client.Status(ctx)
	if err != nil {
		return reportError("Could not read clock status", err)
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Brightness changed",
		ui.Field{Key: "Clock", Value: status.Title},
		ui.Field{Key: "Brightness", Value: strconv.Itoa(status.Brightness)},
	)
	return nil
}

// setCmd changes network and timezone settings
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change network or timezone settings",
	Long: `Change the clock's stored network name, network password or timezone.

Only the flags given are changed. Timezones are IANA names such as
Europe/London; an unknown zone is rejected by the clock and nothing is
saved.`,
	Example: `  segclock-cfg set --timezone America/New_York
  segclock-cfg set --ssid attic --password hunter22`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&newSSID, "ssid", "", "Network name")
	setCmd.Flags().StringVar(&newPassword, "password", "", "Network password")
	setCmd.Flags().StringVar(&newTimezone, "timezone", "", "IANA timezone name")
}

func runSet(cmd *cobra.Command, args []string) error {
	update := clockclient.ConfigUpdate{
		SSID:     newSSID,
		Password: newPassword,
		Timezone: newTimezone,
	}
	if _, err := update.FormBody(); err != nil {
		return reportError("Invalid settings", err)
	}

	client, err := newClient(cmd.Context(), true)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(os.Stdout)
	var params []ui.Field
	if newSSID != "" {
		params = append(params, ui.Field{Key: "Network", Value: newSSID})
	}
	if newPassword != "" {
		params = append(params, ui.Field{Key: "Password", Value: strings.Repeat("*", len(newPassword))})
	}
	if newTimezone != "" {
		params = append(params, ui.Field{Key: "Timezone", Value: newTimezone})
	}
	printer.PrintHeader("Updating clock settings", "POST "+client.BaseURL+"/updatecfg", params...)

	if err := client.UpdateConfig(cmd.Context(), update); err != nil {
		return reportError("Settings update failed", err)
	}

	// The clock accepts the form even when a value is invalid; read back
	// to see what was stored.
	settings, err := client.Config(cmd.Context())
	if err != nil {
		return reportError("Could not read back settings", err)
	}
	if (newSSID != "" && settings.SSID != newSSID) ||
		(newPassword != "" && settings.Password != newPassword) ||
		(newTimezone != "" && settings.Timezone != newTimezone) {
		err := clockclient.NewValidationError("clock did not store the new settings")
		printer.PrintError("Settings rejected", err,
			"Check that the timezone is a valid IANA name and values are not too long")
		return err
	}

	printer.PrintSuccess("Settings saved",
		ui.Field{Key: "Network", Value: settings.SSID},
		ui.Field{Key: "Timezone", Value: settings.Timezone},
	)
	return nil
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Restart the clock",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context(), true)
		if err != nil {
			return err
		}
		if err := client.Reboot(cmd.Context()); err != nil {
			return reportError("Reboot failed", err)
		}
		ui.NewPrinter(os.Stdout).PrintSuccess("Reboot requested",
			ui.Field{Key: "Clock", Value: client.BaseURL},
		)
		return nil
	},
}

// newClient builds a client for the selected clock. verbose prints the
// discovery progress.
func newClient(ctx context.Context, verbose bool) (*clockclient.Client, error) {
	baseURL, err := getClockURL(ctx, verbose)
	if err != nil {
		return nil, err
	}
	client := clockclient.NewWithURL(baseURL)
	client.SetTimeout(requestTimeout)
	client.SetRetry(retries, clockclient.DefaultRetryDelay)
	return client, nil
}

// getClockURL resolves --clock, --name, the default clock or
// auto-discovery to a base URL.
func getClockURL(ctx context.Context, verbose bool) (string, error) {
	if clockAddr != "" {
		return clockURL(clockAddr, clockPort), nil
	}

	registry := loadRegistry()
	scanner := discovery.NewScanner()

	if clockName != "" {
		device, err := scanner.WaitForDeviceWithContext(ctx, clockName)
		if err == nil {
			registry.UpdateClockLastSeen(device.Name, device.Addr(), device.Version)
			saveRegistry(registry)
			return device.BaseURL(), nil
		}
		if known := registry.GetClock(clockName); known != nil && known.LastAddr != "" {
			if verbose {
				fmt.Printf("%s not answering on mDNS, using last known address %s\n\n", clockName, known.LastAddr)
			}
			return clockURL(known.LastAddr, clockPort), nil
		}
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if known := registry.DefaultClock(); known != nil && known.LastAddr != "" {
		if verbose {
			fmt.Printf("Using default clock %s (%s)\n\n", registry.Preferences.DefaultClock, known.LastAddr)
		}
		return clockURL(known.LastAddr, clockPort), nil
	}

	if !registry.Preferences.AutoDiscover {
		return "", errors.New("no clock specified and auto-discovery is disabled. Use --clock to give the address")
	}
	if registry.Preferences.DiscoverTimeout > 0 {
		scanner.Timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	}

	if verbose {
		fmt.Println("No clock specified, attempting auto-discovery...")
	}
	devices, err := scanner.ScanForDevicesWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if len(devices) == 0 {
		return "", errors.New("no clocks found. Use --clock to give the address")
	}

	if len(devices) > 1 {
		fmt.Printf("Found %d clocks:\n", len(devices))
		for i, device := range devices {
			fmt.Printf("%d. %s (%s)\n", i+1, device.Name, device.Addr())
		}
		return "", errors.New("multiple clocks found. Use --clock or --name, or pick one with 'segclock-cfg use'")
	}

	device := devices[0]
	if verbose {
		fmt.Printf("Found clock: %s (%s)\n\n", device.Name, device.Addr())
	}
	registry.UpdateClockLastSeen(device.Name, device.Addr(), device.Version)
	saveRegistry(registry)
	return device.BaseURL(), nil
}

// useCmd sets or clears the default clock
var useCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the clock used when none is given",
	Long: `Set the default clock by its mDNS name or nickname. The clock must have
been found by 'segclock-cfg scan' before. Without a name the current
default is printed; --clear removes it.`,
	Example: `  segclock-cfg scan
  segclock-cfg use "Hall Clock" --nickname hall
  segclock-cfg use --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUse,
}

var (
	useClear    bool
	useNickname string
)

func init() {
	useCmd.Flags().BoolVar(&useClear, "clear", false, "Remove the default clock")
	useCmd.Flags().StringVar(&useNickname, "nickname", "", "Also give the clock a nickname")
}

func runUse(cmd *cobra.Command, args []string) error {
	registry, err := config.Load("")
	if err != nil {
		return err
	}

	if useClear {
		registry.Preferences.DefaultClock = ""
		return registry.Save()
	}

	if len(args) == 0 {
		if registry.Preferences.DefaultClock == "" {
			fmt.Println("No default clock set.")
			return nil
		}
		fmt.Println(registry.Preferences.DefaultClock)
		return nil
	}

	name := args[0]
	clock := registry.GetClock(name)
	if clock == nil {
		return fmt.Errorf("unknown clock %q. Run 'segclock-cfg scan' first", name)
	}
	if useNickname != "" {
		for key, c := range registry.Clocks {
			if c == clock {
				registry.SetClockNickname(key, useNickname)
			}
		}
	}
	registry.Preferences.DefaultClock = name
	if err := registry.Save(); err != nil {
		return err
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("Default clock set",
		ui.Field{Key: "Clock", Value: name},
		ui.Field{Key: "Address", Value: clock.LastAddr},
	)
	return nil
}

// loadRegistry returns the clock registry, or an empty one when it cannot
// be read.
func loadRegistry() *config.Registry {
	registry, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return config.NewRegistry()
	}
	return registry
}

// saveRegistry writes registry unless it is the stand-in for one that
// could not be read.
func saveRegistry(registry *config.Registry) {
	if registry.Path() == "" {
		return
	}
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save clock registry: %v\n", err)
	}
}

// clockURL turns "host" or "host:port" into a base URL, using port when
// addr has none.
func clockURL(addr string, port int) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return "http://" + addr
	}
	return "http://" + net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(port))
}

// reportError prints err in a box with a hint and returns it for the exit code.
func reportError(title string, err error) error {
	ui.NewPrinter(os.Stderr).PrintError(title, errors.New(clockclient.GetShortErrorMessage(err)),
		clockclient.GetTroubleshootingHint(err))
	return err
}
