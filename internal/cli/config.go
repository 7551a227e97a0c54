package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

const (
	defaultServer   = "http://localhost:8082"
	defaultPageSize = 10
	maxPageSize     = 50
)

var (
	errConfigInvalid = errors.New("invalid config")
	errServerInvalid = errors.New("server must be an http(s) url")
)

// Config 是命令行客户端的配置，保存在 $XDG_CONFIG_HOME/quill/config.json。
type Config struct {
	Server   string `json:"server"`
	PageSize int    `json:"page_size,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{Server: defaultServer, PageSize: defaultPageSize}
}

// ConfigPath resolves the config file location from env, falling back to the process environment.
// Returns "" when no home directory can be determined.
func ConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && after != "" {
			return filepath.Join(after, "quill", "config.json")
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quill", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quill", "config.json")
}

// LoadConfig reads path on top of the defaults. A missing file is not an error.
// QUILL_SERVER in env overrides the file.
func LoadConfig(path string, env []string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is user-controlled by design of the CLI
		switch {
		case err == nil:
			fileCfg, parseErr := parseConfig(data)
			if parseErr != nil {
				return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
			}
			if fileCfg.Server != "" {
				cfg.Server = fileCfg.Server
			}
			if fileCfg.PageSize != 0 {
				cfg.PageSize = fileCfg.PageSize
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "QUILL_SERVER="); ok && after != "" {
			cfg.Server = after
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	// comments and trailing commas are allowed
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := validateServer(c.Server); err != nil {
		return err
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", errConfigInvalid, maxPageSize)
	}
	return nil
}

func validateServer(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errServerInvalid, raw)
	}
	return nil
}

// SaveConfig writes cfg to path atomically, creating the directory when needed.
func SaveConfig(path string, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if err := atomic.WriteFile(path, strings.NewReader(string(raw))); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
