package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <email>",
	Short: "Look up the email service provider of a single address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		c, view := newController(cfg)
		defer view.Close()

		return c.Identify(ctx, args[0])
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}
