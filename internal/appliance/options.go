package appliance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/segclock/internal/display"
	"github.com/muurk/segclock/internal/display/ht16k33"
	"github.com/muurk/segclock/internal/i2c"
	"github.com/muurk/segclock/internal/mirror"
	"github.com/muurk/segclock/internal/settings"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables read by LoadOptions, e.g.
// SEGCLOCK_PORT or SEGCLOCK_MQTT_BROKER.
const EnvPrefix = "SEGCLOCK"

// Display backends.
const (
	DisplayAuto    = "auto"
	DisplayLog     = "log"
	DisplayTUI     = "tui"
	DisplayHT16K33 = "ht16k33"
)

// MQTTOptions configures the optional display mirror. An empty Broker
// disables it.
type MQTTOptions struct {
	Broker   string        `mapstructure:"broker"`
	Topic    string        `mapstructure:"topic"`
	ClientID string        `mapstructure:"client_id"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Options configures the daemon.
type Options struct {
	Name          string        `mapstructure:"name"` // mDNS instance name and page title
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ListenRetries int           `mapstructure:"listen_retries"`
	Advertise     bool          `mapstructure:"advertise"`

	SettingsPath string `mapstructure:"settings"` // empty means the per-user default
	QueueSize    int    `mapstructure:"queue_size"`

	Display    string `mapstructure:"display"`
	I2CDevice  string `mapstructure:"i2c_device"`
	I2CAddress int    `mapstructure:"i2c_address"`

	Address   string `mapstructure:"address"`   // fixed address to show instead of probing
	Interface string `mapstructure:"interface"` // interface to take the address from

	MQTT MQTTOptions `mapstructure:"mqtt"`

	LogLevel string `mapstructure:"log_level"`
}

// DefaultOptions returns the options segclockd uses with no configuration.
func DefaultOptions() Options {
	return Options{
		Name:          "segclock",
		Port:          80,
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  5 * time.Second,
		ListenRetries: 5,
		Advertise:     true,
		QueueSize:     display.DefaultQueueSize,
		Display:       DisplayAuto,
		I2CDevice:     i2c.DefaultDevice,
		I2CAddress:    ht16k33.DefaultAddress,
		MQTT: MQTTOptions{
			Topic:    mirror.DefaultTopic,
			ClientID: "segclock",
			Timeout:  mirror.DefaultTimeout,
		},
	}
}

// flagKeys maps command-line flag names onto option keys.
var flagKeys = map[string]string{
	"name":           "name",
	"host":           "host",
	"port":           "port",
	"read-timeout":   "read_timeout",
	"write-timeout":  "write_timeout",
	"listen-retries": "listen_retries",
	"advertise":      "advertise",
	"settings":       "settings",
	"display":        "display",
	"i2c-device":     "i2c_device",
	"i2c-address":    "i2c_address",
	"address":        "address",
	"interface":      "interface",
	"mqtt-broker":    "mqtt.broker",
	"mqtt-topic":     "mqtt.topic",
	"mqtt-username":  "mqtt.username",
	"mqtt-password":  "mqtt.password",
	"log-level":      "log_level",
}

// LoadOptions merges defaults, a config file, SEGCLOCK_* environment
// variables and flags, in increasing order of precedence.
//
// With configFile empty, segclockd.{yaml,toml,json} is looked for in the
// settings directory and /etc/segclock; not finding one is fine.
func LoadOptions(configFile string, flags *pflag.FlagSet) (Options, error) {
	v := viper.New()

	defaults := DefaultOptions()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("read_timeout", defaults.ReadTimeout)
	v.SetDefault("write_timeout", defaults.WriteTimeout)
	v.SetDefault("listen_retries", defaults.ListenRetries)
	v.SetDefault("advertise", defaults.Advertise)
	v.SetDefault("settings", defaults.SettingsPath)
	v.SetDefault("queue_size", defaults.QueueSize)
	v.SetDefault("display", defaults.Display)
	v.SetDefault("i2c_device", defaults.I2CDevice)
	v.SetDefault("i2c_address", defaults.I2CAddress)
	v.SetDefault("address", defaults.Address)
	v.SetDefault("interface", defaults.Interface)
	v.SetDefault("mqtt.broker", defaults.MQTT.Broker)
	v.SetDefault("mqtt.topic", defaults.MQTT.Topic)
	v.SetDefault("mqtt.client_id", defaults.MQTT.ClientID)
	v.SetDefault("mqtt.username", defaults.MQTT.Username)
	v.SetDefault("mqtt.password", defaults.MQTT.Password)
	v.SetDefault("mqtt.timeout", defaults.MQTT.Timeout)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("segclockd")
		if dir, err := settings.GetConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("/etc/segclock")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Options{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Options{}, err
				}
			}
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks option values that would otherwise fail late.
func (o Options) Validate() error {
	var errs []error
	if o.Port < 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", o.Port))
	}
	switch o.Display {
	case DisplayAuto, DisplayLog, DisplayTUI, DisplayHT16K33:
	default:
		errs = append(errs, fmt.Errorf("unknown display %q (want auto, log, tui or ht16k33)", o.Display))
	}
	if o.I2CAddress < 0 || o.I2CAddress > 0x7F {
		errs = append(errs, fmt.Errorf("i2c address 0x%x out of range", o.I2CAddress))
	}
	if o.Advertise && o.Name == "" {
		errs = append(errs, errors.New("name is required when advertising"))
	}
	return errors.Join(errs...)
}
