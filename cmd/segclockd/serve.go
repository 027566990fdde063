package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/segclock/internal/appliance"
	"github.com/muurk/segclock/internal/logging"
	"github.com/muurk/segclock/internal/mirror"
)

// rebootExitCode tells the supervisor that a restart was asked for.
const rebootExitCode = 3

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the clock",
	Long: `Run the clock: paint the time, serve the web interface and advertise
on mDNS until interrupted.

Options are read, lowest precedence first, from built-in defaults, a
segclockd.yaml (or .toml/.json) file, SEGCLOCK_* environment variables and
flags. Without --config the file is looked for in the segclock settings
directory and /etc/segclock.

The display is chosen with --display:
  auto     terminal simulator when attached to a terminal, log otherwise
  log      log what would be shown (needs --log-level)
  tui      terminal simulator; press b for the button, q to quit
  ht16k33  HT16K33 segment display on --i2c-device

Logs go to stderr. With the tui display, redirect them (2>segclockd.log).

On Unix, SIGUSR1 and SIGUSR2 press and release the clock's button.`,
	Example: `  # Run on a terminal with the simulated display on port 8080
  segclockd serve --port 8080 --display tui

  # Run on hardware, logging to stderr
  segclockd serve --display ht16k33 --log-level info

  # Mirror everything the display shows to an MQTT broker
  SEGCLOCK_MQTT_BROKER=broker.lan:1883 segclockd serve --display log --log-level debug

  # Tap the button from a shell
  kill -USR1 $(pidof segclockd); kill -USR2 $(pidof segclockd)`,
	RunE: runServe,
}

func init() {
	defaults := appliance.DefaultOptions()
	f := serveCmd.Flags()

	f.StringVar(&configFile, "config", "", "Options file (default: segclockd.yaml in the settings directory or /etc/segclock)")
	f.String("name", defaults.Name, "Clock name, used for mDNS and page titles")
	f.String("host", defaults.Host, "Listen address (empty = all interfaces)")
	f.Int("port", defaults.Port, "Web interface port")
	f.Duration("read-timeout", defaults.ReadTimeout, "Time allowed for a client to send its request")
	f.Duration("write-timeout", defaults.WriteTimeout, "Time allowed for writing a reply")
	f.Int("listen-retries", defaults.ListenRetries, "Extra attempts to bind the port")
	f.Bool("advertise", defaults.Advertise, "Advertise the clock on mDNS")
	f.String("settings", "", "Settings file (default: settings.yaml in the settings directory)")
	f.String("display", defaults.Display, "Display backend (auto, log, tui, ht16k33)")
	f.String("i2c-device", defaults.I2CDevice, "I2C bus device for ht16k33")
	f.Int("i2c-address", defaults.I2CAddress, "I2C address of the ht16k33")
	f.String("address", "", "Address to show for the button instead of probing interfaces")
	f.String("interface", "", "Network interface whose address is shown")
	f.String("mqtt-broker", "", "MQTT broker host:port to mirror the display to")
	f.String("mqtt-topic", mirror.DefaultTopic, "MQTT topic for display mirroring")
	f.String("mqtt-username", "", "MQTT username")
	f.String("mqtt-password", "", "MQTT password")
	f.String("log-level", "", "Log level (debug, info, warn, error); empty = silent")
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, err := appliance.LoadOptions(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	if err := logging.Initialize(opts.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock, err := appliance.New(opts)
	if err != nil {
		return fmt.Errorf("failed to start clock: %w", err)
	}
	watchButtonSignals(ctx, clock.Button())

	err = clock.Run(ctx)
	if errors.Is(err, appliance.ErrReboot) {
		fmt.Fprintln(os.Stderr, "Reboot requested, exiting for restart")
		logging.Sync()
		os.Exit(rebootExitCode)
	}
	return err
}
