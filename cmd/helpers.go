package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/esp-finder/internal/client"
	"github.com/ziadkadry99/esp-finder/internal/config"
	"github.com/ziadkadry99/esp-finder/internal/controller"
	"github.com/ziadkadry99/esp-finder/internal/ui"
)

// loadConfig loads and validates the config, applying the --server and
// --log-level flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `espfinder init` to create a config file", err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if logLevel == "" && cfg.LogLevel != "" {
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logrus.SetLevel(lvl)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newController wires a terminal view to the configured server.
func newController(cfg *config.Config) (*controller.Controller, *ui.Terminal) {
	view := ui.NewTerminal(os.Stdout)
	c := controller.New(client.NewClient(cfg.ServerURL), view, controller.Options{
		PollInterval: cfg.PollInterval,
		HideDelay:    cfg.HideDelay,
	})
	c.Init()
	return c, view
}
