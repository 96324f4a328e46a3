package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pocsagtx/internal/app"
	"pocsagtx/internal/mqttsource"
	"pocsagtx/internal/page"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile  string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "pocsagtx [address:message ...]",
		Short: "POCSAG paging encoder",
		Long: `POCSAG paging encoder and FSK transmitter.

Reads "address:message" lines from stdin (or --input, or an MQTT topic),
encodes each page as POCSAG codewords with preamble, sync and idle fill,
and keys the bit stream as two-level FSK samples on the output. Pages
given as arguments are sent once and the program exits.

Example usage:
  echo "1234:HELLO" | pocsagtx --baud-rate 1200 --output /dev/ttyUSB0
  pocsagtx --mode numeric --repeats 2 --format text 1234:5551234`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				app.ShowVersion(cmd.OutOrStdout())
				return nil
			}

			v := viper.New()
			if err := app.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			config, err := app.LoadConfig(v, configFile)
			if err != nil {
				return err
			}

			application := app.NewApplication(config)
			return application.Start(args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (yaml, toml or json)")
	flags.Uint64P("frequency", "f", app.DefaultFrequency, "Transmit frequency (Hz)")
	flags.IntP("baud-rate", "b", app.DefaultBaudRate, "Bit rate: 512, 1200 or 2400")
	flags.Float64("deviation", app.DefaultDeviation, "FSK deviation (Hz)")
	flags.Bool("inverted", false, "Invert mark and space")
	flags.IntP("sample-rate", "s", app.DefaultSampleRate, "PCM sample rate (Hz)")
	flags.Uint8("function-bits", app.DefaultFunctionBits, "Function bits of the address codeword (0-3)")
	flags.IntP("repeats", "r", app.DefaultRepeats, "Transmissions of each page")
	flags.StringP("mode", "m", app.DefaultMode, "Message encoding: text or numeric")
	flags.Int("max-length", page.DefaultMaxLength, "Longest accepted message, 0 for no limit")
	flags.StringP("input", "i", "-", "Page line input, - for stdin")
	flags.StringP("output", "o", "-", "Transmitter output, - for stdout")
	flags.String("format", app.DefaultFormat, "Output format: pcm, raw, text or audio (sound device)")
	flags.StringP("log-dir", "l", app.DefaultLogDir, "Page journal directory, empty to disable")
	flags.BoolP("utc", "u", true, "Use UTC for log rotation")
	flags.Int("log-retention", 0, "Delete journal files older than this many days, 0 keeps all")
	flags.BoolP("verbose", "v", false, "Verbose logging")
	flags.String("metrics-addr", "", "Prometheus listen address, e.g. :9100")
	flags.String("mqtt-broker", "", "MQTT broker URL for page lines")
	flags.String("mqtt-topic", mqttsource.DefaultTopic, "MQTT topic for page lines")
	flags.BoolVar(&showVersion, "version", false, "Show version information")

	return rootCmd
}
