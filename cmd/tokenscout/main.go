package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagConfig   string
	flagLogLevel string
	flagFormat   string
)

// rootCmd is the base command for the tokenscout CLI.
var rootCmd = &cobra.Command{
	Use:   "tokenscout",
	Short: "tokenscout early-stage token discovery and ranking engine",
	Long: `tokenscout ingests candidate tokens from multiple discovery sources and runs
them through a four-stage progressive analysis pipeline, emitting a small set
of high-conviction candidates per scan cycle while minimizing expensive
provider calls.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "table", "output format: table, json")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(daemonCmd)
}

func setupLogging() error {
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
