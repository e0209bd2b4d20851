package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "mallocctl",
	Short: "Replay, generate and check allocation traces",
	Long: `mallocctl drives the segregated free-list allocator over simulated or
file-backed heaps. It replays allocation traces with correctness checks,
generates random traces, verifies heap consistency and reports utilization
and fragmentation.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger(cmd.ErrOrStderr())
	},
}

// logger is shared by the commands and handed to the allocator.
var logger = logrus.New()

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func configureLogger(w io.Writer) {
	logger.SetOutput(w)
	logger.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		DisableColors:   noColor,
	})
	switch {
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
}

// printInfo prints a message unless in quiet mode.
func printInfo(cmd *cobra.Command, format string, args ...any) {
	if !quiet {
		printer.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// printVerbose prints a message in verbose mode.
func printVerbose(cmd *cobra.Command, format string, args ...any) {
	if verbose && !quiet {
		printer.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
