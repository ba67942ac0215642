package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	processColumn      string
	processDownloadDir string
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Upload a spreadsheet and add an ESP column to it",
	Long: `Uploads a CSV or XLSX file, asks which column holds the email addresses
(unless --column is given), starts processing on the server and polls its
progress once per poll_interval. When processing completes the download
link is printed; with --download the file is also saved locally.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, view := newController(cfg)
		defer view.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		c.SelectFile(path)

		if err := c.Upload(ctx); err != nil {
			return err
		}

		column := processColumn
		if column == "" {
			column, err = view.ChooseColumn()
			if err != nil {
				return err
			}
		}

		if err := c.Process(ctx, column); err != nil {
			return err
		}

		if processDownloadDir != "" {
			dest, err := c.Download(ctx, processDownloadDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Saved %s\n", dest)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&processColumn, "column", "c", "", "email column (prompted for when omitted)")
	processCmd.Flags().StringVarP(&processDownloadDir, "download", "d", "", "directory to save the processed file into")
	rootCmd.AddCommand(processCmd)
}
