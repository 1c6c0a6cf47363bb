package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/barologd/internal/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultIntervalMinutes = 15
	defaultTimeoutMS       = 2500
	defaultRecentDays      = 60
	defaultDatabase        = "/var/lib/barologd/barometer.db"
	defaultSensorBus       = ""
	defaultSensorAddr      = 0x76
)

// Config holds the daemon configuration. UseForeground is the one live
// setting: changes to it in the config file are observed at runtime and
// cause the periodic unit to be rescheduled.
type Config struct {
	Interval      int    `mapstructure:"interval"`
	TimeoutMS     int    `mapstructure:"timeout_ms"`
	UseForeground bool   `mapstructure:"use_foreground"`
	Database      string `mapstructure:"database"`
	RecentDays    int    `mapstructure:"recent_days"`
	SensorBus     string `mapstructure:"sensor_bus"`
	SensorAddr    int    `mapstructure:"sensor_addr"`
	LogLevel      string `mapstructure:"log_level"`
	Debug         bool   `mapstructure:"debug"`
	Verbose       bool   `mapstructure:"verbose"`
	Report        string `mapstructure:"report"`
	Days          bool   `mapstructure:"days"`

	v *viper.Viper
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("interval", defaultIntervalMinutes)
	v.SetDefault("timeout_ms", defaultTimeoutMS)
	v.SetDefault("use_foreground", false)
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("recent_days", defaultRecentDays)
	v.SetDefault("sensor_bus", defaultSensorBus)
	v.SetDefault("sensor_addr", defaultSensorAddr)
	v.SetDefault("log_level", DefaultLogLevel)

	flags := pflag.NewFlagSet("barologd", pflag.ContinueOnError)
	flags.Int("interval", defaultIntervalMinutes, "Minutes between sampling ticks")
	flags.Int("timeout-ms", defaultTimeoutMS, "Per-attempt sensor read timeout in milliseconds")
	flags.Bool("use-foreground", false, "Run sampling ticks in elevated-priority mode")
	flags.String("database", defaultDatabase, "Path to the sample database")
	flags.Int("recent-days", defaultRecentDays, "Number of recent day pages to keep selectable")
	flags.String("sensor-bus", defaultSensorBus, "I2C bus of the pressure sensor (empty selects the first bus)")
	flags.Int("sensor-addr", defaultSensorAddr, "I2C address of the pressure sensor")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("report", "", "Print the plain-text report for the given day (YYYY-MM-DD) and exit")
	flags.Bool("days", false, "List the selectable day pages and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed {
			v.Set(key, f.Value.String())
		}
	})

	// Config file: explicit override via BAROLOGD_CONFIG, otherwise
	// /etc/barologd.toml.
	if path := os.Getenv("BAROLOGD_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("barologd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err).
					WithMessage("Failed to read config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}
	cfg.v = v

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.TimeoutMS <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.TimeoutMS)
	}
	if c.Database == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "database path must not be empty")
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// Watch observes the config file for changes and invokes onChange with the
// freshly unmarshaled configuration. Used to pick up use_foreground flips
// without a restart.
func (c *Config) Watch(onChange func(Config)) {
	if c.v == nil {
		return
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		next := Config{}
		if err := c.v.Unmarshal(&next); err != nil {
			return
		}
		next.v = c.v
		if next.Validate() != nil {
			return
		}
		onChange(next)
	})
	c.v.WatchConfig()
}
