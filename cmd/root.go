package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ziadkadry99/esp-finder/internal/client"
)

var (
	cfgFile   string
	serverURL string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "espfinder",
	Short: "Identify the email service provider behind addresses in a CSV file",
	Long: `espfinder uploads a CSV (or XLSX) file to an ESP lookup server, lets you
pick the email column, follows the server-side processing with a progress
bar and hands you the processed file with an ESP column added.

It can also look up a single address, and run the lookup server itself.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		handleCmdError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".espfinder.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides server_url from config)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (trace, debug, info, warn, error)")
}

func setupLogger() error {
	level := logLevel
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}
	return nil
}

// handleCmdError prints err unless the view has already shown it.
func handleCmdError(err error) {
	if _, ok := client.AsBackendError(err); ok {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
