package config

import "time"

// Config is the top-level espfinder configuration, corresponding to .espfinder.yml.
type Config struct {
	// Client side.
	ServerURL    string        `yaml:"server_url" koanf:"server_url"`
	PollInterval time.Duration `yaml:"poll_interval" koanf:"poll_interval"`
	HideDelay    time.Duration `yaml:"hide_delay" koanf:"hide_delay"`
	LogLevel     string        `yaml:"log_level" koanf:"log_level"`

	// Server side.
	Port            int    `yaml:"port" koanf:"port"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	MaxUploadMB     int64  `yaml:"max_upload_mb" koanf:"max_upload_mb"`
}

// UploadDir is where the server stores uploaded spreadsheets.
func (c *Config) UploadDir() string { return joinData(c.DataDir, "uploads") }

// ProcessedDir is where the server writes result files.
func (c *Config) ProcessedDir() string { return joinData(c.DataDir, "processed") }

// DBPath is the SQLite database holding task progress.
func (c *Config) DBPath() string { return joinData(c.DataDir, "espfinder.db") }
