package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to espfinder! Let's configure your setup.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Role: which half of the tool this machine runs.
	rolePrompt := promptui.Select{
		Label: "How will you use espfinder on this machine",
		Items: []string{
			"client — upload files to an existing server",
			"server — host the ESP lookup API",
			"both   — run the server and use it locally",
		},
	}
	roleIdx, _, err := rolePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("role selection: %w", err)
	}

	// 2. Server URL.
	if roleIdx != 1 {
		urlPrompt := promptui.Prompt{
			Label:    "Server URL",
			Default:  cfg.ServerURL,
			Validate: validateURL,
		}
		serverURL, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("server url: %w", err)
		}
		cfg.ServerURL = serverURL

		intervalPrompt := promptui.Prompt{
			Label:    "Progress poll interval",
			Default:  cfg.PollInterval.String(),
			Validate: validateDuration,
		}
		intervalStr, err := intervalPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("poll interval: %w", err)
		}
		cfg.PollInterval, _ = time.ParseDuration(intervalStr)
	}

	// 3. Server settings.
	if roleIdx != 0 {
		portPrompt := promptui.Prompt{
			Label:    "Port to listen on",
			Default:  strconv.Itoa(cfg.Port),
			Validate: validatePort,
		}
		portStr, err := portPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("port: %w", err)
		}
		cfg.Port, _ = strconv.Atoi(portStr)

		dataPrompt := promptui.Prompt{
			Label:   "Data directory for uploads, results and the task database",
			Default: cfg.DataDir,
		}
		dataDir, err := dataPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		cfg.DataDir = dataDir

		if roleIdx == 2 {
			cfg.ServerURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter an absolute URL such as http://localhost:5000")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("enter a positive duration such as 1s or 500ms")
	}
	return nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("enter a port between 0 and 65535")
	}
	return nil
}
