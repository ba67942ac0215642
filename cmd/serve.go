package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esp-finder/internal/db"
	"github.com/ziadkadry99/esp-finder/internal/esp"
	"github.com/ziadkadry99/esp-finder/internal/server"
	"github.com/ziadkadry99/esp-finder/internal/tasks"
)

var serverPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ESP lookup server",
	Long:  `Starts the HTTP API used by "espfinder process" and "espfinder identify": /upload, /process, /progress/{task_id}, /download/{name} and /identify.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		// Open database.
		database, err := db.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		for _, dir := range []string{cfg.UploadDir(), cfg.ProcessedDir()} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := tasks.NewStore(database)
		runner := tasks.NewRunner(ctx, store, cfg.UploadDir(), cfg.ProcessedDir(),
			func() tasks.Identifier { return esp.NewIdentifier(nil) })

		srv := server.New(server.Config{
			Port:           cfg.Port,
			UploadDir:      cfg.UploadDir(),
			ProcessedDir:   cfg.ProcessedDir(),
			AllowAll:       cfg.AllowAllOrigins,
			MaxUploadBytes: cfg.MaxUploadMB << 20,
		}, store, runner, func() server.Identifier { return esp.NewIdentifier(nil) })

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logrus.WithError(err).Warn("server shutdown")
			}
		}()

		fmt.Fprintf(os.Stderr, "espfinder server %s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Uploads: %s\n", cfg.UploadDir())
		fmt.Fprintf(os.Stderr, "  Results: %s\n", cfg.ProcessedDir())

		err = srv.Start()
		runner.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().IntVar(&serverPort, "port", 5000, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
