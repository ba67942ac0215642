package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esp-finder/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize espfinder configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the client and/or server and writes the config file (.espfinder.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
