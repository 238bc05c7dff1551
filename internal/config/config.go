package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything swapp needs to reach the marketplace.
type Config struct {
	APIURL            string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	TrustedImageHosts []string
	LogFile           string
	PollInterval      time.Duration
}

const (
	defaultConfigPath     = "~/.config/swapp/config.toml"
	defaultLogFile        = "~/.local/state/swapp/swapp.log"
	defaultAPIURL         = "http://127.0.0.1:8000"
	defaultRequestTimeout = 10 * time.Second
	defaultRPS            = 8
	defaultPollSeconds    = 30
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	APIURL            string   `toml:"api_url"`
	RequestTimeout    string   `toml:"request_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	TrustedImageHosts []string `toml:"trusted_image_hosts"`
	LogFile           string   `toml:"log_file"`
	PollSeconds       int      `toml:"poll_seconds"`
}

// envConfig holds overrides; nil means unset.
type envConfig struct {
	APIURL            *string  `env:"SWAPP_API_URL"`
	LogFile           *string  `env:"SWAPP_LOG_FILE"`
	RequestsPerSecond *float64 `env:"SWAPP_REQUESTS_PER_SECOND"`
	TrustedImageHosts []string `env:"SWAPP_TRUSTED_IMAGE_HOSTS" envSeparator:","`
}

// Load reads the config file, falling back to defaults when missing, then
// applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if overrides.APIURL != nil {
		raw.APIURL = *overrides.APIURL
	}
	if overrides.LogFile != nil {
		raw.LogFile = *overrides.LogFile
	}
	if overrides.RequestsPerSecond != nil {
		raw.RequestsPerSecond = *overrides.RequestsPerSecond
	}
	if len(overrides.TrustedImageHosts) > 0 {
		raw.TrustedImageHosts = overrides.TrustedImageHosts
	}

	return normalize(raw)
}

func normalize(raw fileConfig) (Config, error) {
	cfg := Config{
		APIURL:            strings.TrimSpace(raw.APIURL),
		RequestsPerSecond: raw.RequestsPerSecond,
		RequestTimeout:    defaultRequestTimeout,
		PollInterval:      time.Duration(raw.PollSeconds) * time.Second,
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		if d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollSeconds * time.Second
	}

	for _, h := range raw.TrustedImageHosts {
		if h = strings.TrimSpace(h); h != "" {
			cfg.TrustedImageHosts = append(cfg.TrustedImageHosts, h)
		}
	}

	cfg.LogFile = strings.TrimSpace(raw.LogFile)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
