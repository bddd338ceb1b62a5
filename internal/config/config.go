package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
	"github.com/mitchellh/mapstructure"
)

const (
	DefaultAPIURL  = "http://127.0.0.1:8999"
	DefaultTimeout = 15 * time.Second

	EnvHome     = "TODO_HOME"
	EnvAPIURL   = "TODO_API_URL"
	EnvLogLevel = "TODO_LOG_LEVEL"
	EnvTheme    = "TODO_THEME"
)

type Config struct {
	APIURL   string        `config:"api_url"`
	Timeout  time.Duration `config:"timeout"`
	LogLevel string        `config:"log_level"`
	LogFile  string        `config:"log_file"`
	Theme    string        `config:"theme"`

	// Home holds config files, credentials and the default log file.
	Home string `config:"-"`
}

// DefaultHome is $TODO_HOME, or ~/.todo.
func DefaultHome() (string, error) {
	if h := strings.TrimSpace(os.Getenv(EnvHome)); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".todo"), nil
}

// Load reads defaults, then <home>/config.yml, then <home>/config.local.yml,
// then the TODO_* environment. Missing files are skipped.
func Load(home string) (*Config, error) {
	return load(home, os.Getenv)
}

func load(home string, getenv func(string) string) (*Config, error) {
	if home == "" {
		return nil, errors.New("config: home directory is empty")
	}

	c := config.New("todo")
	c.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
		opt.DecoderConfig.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	})
	c.AddDriver(yaml.Driver)

	defaults := map[string]any{
		"api_url":   DefaultAPIURL,
		"timeout":   DefaultTimeout.String(),
		"log_level": "info",
		"log_file":  "",
		"theme":     "classic",
	}
	if err := c.LoadData(defaults); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	path := filepath.Join(home, "config.yml")
	if err := c.LoadExists(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.LoadExists(strings.Replace(path, ".yml", ".local.yml", 1)); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	var cfg Config
	if err := c.BindStruct("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Home = home
	cfg.applyEnv(getenv)
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvTheme)); v != "" {
		c.Theme = v
	}
}

func (c *Config) normalize() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("config: api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Home, "todo.log")
	} else if !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(c.Home, c.LogFile)
	}
	return nil
}
