package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pocsagtx/internal/fsk"
	"pocsagtx/internal/mqttsource"
	"pocsagtx/internal/page"
	"pocsagtx/internal/pocsag"
)

// Default configuration constants
const (
	DefaultFrequency    = fsk.DefaultFrequency
	DefaultBaudRate     = fsk.DefaultBaudRate
	DefaultDeviation    = fsk.DefaultDeviation
	DefaultSampleRate   = fsk.DefaultSampleRate
	DefaultFunctionBits = pocsag.FunctionAlpha
	DefaultRepeats      = 4
	DefaultMode         = "text"
	DefaultFormat       = string(fsk.FormatPCM)
	DefaultLogDir       = "./logs"
)

// EnvPrefix prefixes every environment override, e.g. POCSAGTX_BAUD_RATE
const EnvPrefix = "POCSAGTX"

// Config holds application configuration
type Config struct {
	Frequency    uint64            `mapstructure:"frequency"`
	BaudRate     int               `mapstructure:"baud_rate"`
	Deviation    float64           `mapstructure:"deviation"`
	Inverted     bool              `mapstructure:"inverted"`
	SampleRate   int               `mapstructure:"sample_rate"`
	FunctionBits uint8             `mapstructure:"function_bits"`
	Repeats      int               `mapstructure:"repeats"`
	Mode         string            `mapstructure:"mode"`
	MaxLength    int               `mapstructure:"max_length"`
	Input        string            `mapstructure:"input"`
	Output       string            `mapstructure:"output"`
	Format       string            `mapstructure:"format"`
	LogDir       string            `mapstructure:"log_dir"`
	LogRotateUTC bool              `mapstructure:"log_utc"`
	LogRetention int               `mapstructure:"log_retention_days"`
	Verbose      bool              `mapstructure:"verbose"`
	MetricsAddr  string            `mapstructure:"metrics_addr"`
	MQTT         mqttsource.Config `mapstructure:"mqtt"`
	ShowVersion  bool              `mapstructure:"-"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Frequency:    DefaultFrequency,
		BaudRate:     DefaultBaudRate,
		Deviation:    DefaultDeviation,
		SampleRate:   DefaultSampleRate,
		FunctionBits: DefaultFunctionBits,
		Repeats:      DefaultRepeats,
		Mode:         DefaultMode,
		MaxLength:    page.DefaultMaxLength,
		Input:        "-",
		Output:       "-",
		Format:       DefaultFormat,
		LogDir:       DefaultLogDir,
		LogRotateUTC: true,
		MQTT:         mqttsource.Config{Topic: mqttsource.DefaultTopic},
	}
}

// flagKeys maps configuration keys to command line flag names
var flagKeys = map[string]string{
	"frequency":          "frequency",
	"baud_rate":          "baud-rate",
	"deviation":          "deviation",
	"inverted":           "inverted",
	"sample_rate":        "sample-rate",
	"function_bits":      "function-bits",
	"repeats":            "repeats",
	"mode":               "mode",
	"max_length":         "max-length",
	"input":              "input",
	"output":             "output",
	"format":             "format",
	"log_dir":            "log-dir",
	"log_utc":            "utc",
	"log_retention_days": "log-retention",
	"verbose":            "verbose",
	"metrics_addr":       "metrics-addr",
	"mqtt.broker":        "mqtt-broker",
	"mqtt.topic":         "mqtt-topic",
}

// BindFlags makes every known flag in flags override its configuration key
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

var loadEnvOnce sync.Once

// loadDotEnv reads a .env file from the working directory if present
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
}

// LoadConfig resolves flags, environment, an optional config file and defaults
func LoadConfig(v *viper.Viper, configFile string) (Config, error) {
	loadEnvOnce.Do(loadDotEnv)

	defaults := DefaultConfig()
	v.SetDefault("frequency", defaults.Frequency)
	v.SetDefault("baud_rate", defaults.BaudRate)
	v.SetDefault("deviation", defaults.Deviation)
	v.SetDefault("inverted", defaults.Inverted)
	v.SetDefault("sample_rate", defaults.SampleRate)
	v.SetDefault("function_bits", defaults.FunctionBits)
	v.SetDefault("repeats", defaults.Repeats)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("max_length", defaults.MaxLength)
	v.SetDefault("input", defaults.Input)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("log_utc", defaults.LogRotateUTC)
	v.SetDefault("log_retention_days", defaults.LogRetention)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", defaults.MQTT.Topic)
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem found
func (c Config) Validate() error {
	var errs []error

	if err := c.RadioParams().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.FunctionBits > pocsag.FunctionMask {
		errs = append(errs, fmt.Errorf("function bits %d out of range 0-3", c.FunctionBits))
	}
	if c.Repeats < 1 {
		errs = append(errs, fmt.Errorf("repeats must be at least 1, got %d", c.Repeats))
	}
	if _, err := pocsag.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := fsk.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.MaxLength < 0 {
		errs = append(errs, fmt.Errorf("max length must not be negative, got %d", c.MaxLength))
	}
	if c.LogRetention < 0 {
		errs = append(errs, fmt.Errorf("log retention must not be negative, got %d", c.LogRetention))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt qos %d out of range 0-2", c.MQTT.QoS))
	}

	return errors.Join(errs...)
}

// RadioParams returns the transmitter parameters
func (c Config) RadioParams() fsk.Params {
	return fsk.Params{
		Frequency:  c.Frequency,
		BaudRate:   c.BaudRate,
		Deviation:  c.Deviation,
		Inverted:   c.Inverted,
		SampleRate: c.SampleRate,
	}
}

// ParseOptions returns the options applied to every input line
func (c Config) ParseOptions() page.ParseOptions {
	mode, _ := pocsag.ParseMode(c.Mode)
	return page.ParseOptions{
		Function:  c.FunctionBits,
		Mode:      mode,
		MaxLength: c.MaxLength,
	}
}
