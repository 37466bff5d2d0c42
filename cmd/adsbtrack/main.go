package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"adsbtrack/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command. Flags that were set override the configuration file.
func newRootCmd() *cobra.Command {
	var configPath string
	flagConfig := app.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "adsbtrack",
		Short: "ADS-B receive-only decoder and aircraft tracker",
		Long: `ADS-B receive-only decoder and aircraft tracker.

Reads 12-bit samples, recorded frames or a Beast stream, demodulates and
validates 1090 MHz extended squitters, decodes identification, position and
velocity messages, tracks aircraft and outputs in BaseStation (SBS) format.

Example usage:
  adsbtrack --input samples.bin --log-dir ./logs
  adsbtrack --input flight.rec --format recording --realtime --stdout
  adsbtrack --config adsbtrack.yaml --beast-listen :30005`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig.ShowVersion {
				app.ShowVersion(cmd.OutOrStdout())
				return nil
			}

			config, err := resolveConfig(configPath, cmd.Flags(), flagConfig)
			if err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				return err
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&flagConfig.Input, "input", "i", flagConfig.Input, "Input file, - for stdin")
	flags.StringVarP(&flagConfig.InputFormat, "format", "f", flagConfig.InputFormat, "Input format: samples, recording or beast")
	flags.BoolVar(&flagConfig.Realtime, "realtime", false, "Deliver frames at the pace they were received")
	flags.StringVar(&flagConfig.RegistryPath, "registry", "", "Aircraft registry database (zip or sqlite)")
	flags.StringVar(&flagConfig.RegistryType, "registry-type", "", "Registry type: zip or sqlite, from the extension when empty")
	flags.DurationVar(&flagConfig.RegistryCacheTTL, "registry-cache-ttl", flagConfig.RegistryCacheTTL, "Registry lookup cache lifetime, 0 to disable")
	flags.StringVarP(&flagConfig.LogDir, "log-dir", "l", flagConfig.LogDir, "BaseStation log directory, empty to disable")
	flags.StringVar(&flagConfig.LogPattern, "log-pattern", flagConfig.LogPattern, "strftime pattern of log file names")
	flags.BoolVarP(&flagConfig.LogRotateUTC, "utc", "u", flagConfig.LogRotateUTC, "Use UTC for log rotation")
	flags.IntVar(&flagConfig.LogMaxDays, "log-max-days", 0, "Remove log files older than this many days, 0 to keep all")
	flags.BoolVar(&flagConfig.Stdout, "stdout", false, "Also write BaseStation lines to stdout")
	flags.StringVar(&flagConfig.RecordPath, "record", "", "Record received frames to this file")
	flags.StringVar(&flagConfig.BeastListen, "beast-listen", "", "Serve frames in Beast format on this TCP address")
	flags.StringVar(&flagConfig.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.DurationVar(&flagConfig.PurgeInterval, "purge-interval", flagConfig.PurgeInterval, "Stream time between purges of silent aircraft")
	flags.DurationVar(&flagConfig.StatsInterval, "stats-interval", flagConfig.StatsInterval, "Interval between statistics reports")
	flags.StringVar(&flagConfig.LogFormat, "log-format", flagConfig.LogFormat, "Log format: text or json")
	flags.BoolVarP(&flagConfig.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&flagConfig.ShowVersion, "version", false, "Show version information")

	rootCmd.AddCommand(newRegistryCmd())

	return rootCmd
}

// resolveConfig loads the configuration file, if any, and applies the flags that were set
func resolveConfig(path string, flags *pflag.FlagSet, flagConfig app.Config) (app.Config, error) {
	if path == "" {
		return flagConfig, nil
	}

	config, err := app.LoadConfig(path)
	if err != nil {
		return config, err
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "input":
			config.Input = flagConfig.Input
		case "format":
			config.InputFormat = flagConfig.InputFormat
		case "realtime":
			config.Realtime = flagConfig.Realtime
		case "registry":
			config.RegistryPath = flagConfig.RegistryPath
		case "registry-type":
			config.RegistryType = flagConfig.RegistryType
		case "registry-cache-ttl":
			config.RegistryCacheTTL = flagConfig.RegistryCacheTTL
		case "log-dir":
			config.LogDir = flagConfig.LogDir
		case "log-pattern":
			config.LogPattern = flagConfig.LogPattern
		case "utc":
			config.LogRotateUTC = flagConfig.LogRotateUTC
		case "log-max-days":
			config.LogMaxDays = flagConfig.LogMaxDays
		case "stdout":
			config.Stdout = flagConfig.Stdout
		case "record":
			config.RecordPath = flagConfig.RecordPath
		case "beast-listen":
			config.BeastListen = flagConfig.BeastListen
		case "metrics-addr":
			config.MetricsAddr = flagConfig.MetricsAddr
		case "purge-interval":
			config.PurgeInterval = flagConfig.PurgeInterval
		case "stats-interval":
			config.StatsInterval = flagConfig.StatsInterval
		case "log-format":
			config.LogFormat = flagConfig.LogFormat
		case "verbose":
			config.Verbose = flagConfig.Verbose
		}
	})

	return config, nil
}
