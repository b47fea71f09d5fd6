package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the labeling service
type ServerConfig struct {
	Port             string   `yaml:"port"`
	DataDir          string   `yaml:"data_dir"`
	DatabasePath     string   `yaml:"database_path"`
	APIKey           string   `yaml:"api_key"`
	FrameFilePattern string   `yaml:"frame_file_pattern"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	WatchDataset     bool     `yaml:"watch_dataset"`
}

// ClientConfig configures the interactive labeler
type ClientConfig struct {
	BackendURL     string        `yaml:"backend_url"`
	APIKey         string        `yaml:"api_key"`
	StateFile      string        `yaml:"state_file"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig selects level and destination of the logs
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	cwd, _ := os.Getwd()
	home, err := os.UserHomeDir()
	if err != nil {
		home = cwd
	}
	stateDir := filepath.Join(home, ".demo-labeler")

	return &Config{
		Server: ServerConfig{
			Port:             "8000",
			DataDir:          filepath.Join(cwd, "datasets"),
			DatabasePath:     filepath.Join(cwd, "data", "labels.db"),
			FrameFilePattern: "*.jpg,*.jpeg,*.png",
			AllowedOrigins:   []string{"*"},
			WatchDataset:     true,
		},
		Client: ClientConfig{
			BackendURL:     "http://localhost:8000",
			StateFile:      filepath.Join(stateDir, "state.json"),
			RequestTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// and environment variables, in that order of precedence
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.DataDir = getEnv("DATA_DIR", c.Server.DataDir)
	c.Server.DatabasePath = getEnv("DATABASE_PATH", c.Server.DatabasePath)
	c.Server.APIKey = getEnv("API_KEY", c.Server.APIKey)
	c.Server.FrameFilePattern = getEnv("FRAME_FILE_PATTERN", c.Server.FrameFilePattern)

	c.Client.BackendURL = getEnv("BACKEND_URL", c.Client.BackendURL)
	c.Client.APIKey = getEnv("API_KEY", c.Client.APIKey)
	c.Client.StateFile = getEnv("STATE_FILE", c.Client.StateFile)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if hclog.LevelFromString(c.Logging.Level) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	u, err := url.Parse(c.Client.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https, got %q", c.Client.BackendURL)
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
