// Package config handles loading and managing textvault configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wesm/textvault/internal/fileutil"
	"github.com/wesm/textvault/internal/search"
)

// Config represents the textvault configuration.
type Config struct {
	Data   DataConfig   `toml:"data"`
	Search SearchConfig `toml:"search"`
	Server ServerConfig `toml:"server"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	configPath string
}

// DataConfig locates the databases textvault reads.
type DataConfig struct {
	ChatDB      string `toml:"chat_db"`      // default ~/Library/Messages/chat.db
	AddressBook string `toml:"address_book"` // default: discovered under ~/Library/Application Support/AddressBook
	TempDir     string `toml:"temp_dir"`     // parent for temporary database copies
	NoCopy      bool   `toml:"no_copy"`      // never fall back to a temporary copy
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultLimit int    `toml:"default_limit"`
	Timezone     string `toml:"timezone"` // IANA name used for AFTER/BEFORE dates; default UTC
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`         // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`        // default 127.0.0.1
	APIKey          string   `toml:"api_key"`          // API authentication key
	AllowInsecure   bool     `toml:"allow_insecure"`   // permit a non-loopback bind without api_key
	CORSOrigins     []string `toml:"cors_origins"`     // empty disables CORS
	CORSCredentials bool     `toml:"cors_credentials"` // send Access-Control-Allow-Credentials
	CORSMaxAge      int      `toml:"cors_max_age"`     // preflight cache seconds
}

// IsLoopback reports whether the bind address only accepts local connections.
// An empty address means the default loopback bind.
func (s ServerConfig) IsLoopback() bool {
	addr := s.BindAddr
	if addr == "" || strings.EqualFold(addr, "localhost") {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// ValidateSecure refuses to expose private messages on a non-loopback
// address without authentication unless allow_insecure is set.
func (s ServerConfig) ValidateSecure() error {
	if s.IsLoopback() || s.APIKey != "" || s.AllowInsecure {
		return nil
	}
	return fmt.Errorf("refusing to bind to %s without authentication: set [server] api_key in config.toml (or allow_insecure = true)", s.BindAddr)
}

// DefaultHome returns the default textvault home directory.
// Respects TEXTVAULT_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("TEXTVAULT_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".textvault"
	}
	return filepath.Join(home, ".textvault")
}

// Load reads the configuration file. An empty configPath means
// config.toml inside the home directory; an empty homeDir means DefaultHome.
// A missing file is not an error unless configPath was given explicitly.
func Load(configPath, homeDir string) (*Config, error) {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	homeDir = expandPath(homeDir)

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(homeDir, "config.toml")
	}
	configPath = expandPath(configPath)

	cfg := &Config{
		HomeDir:    homeDir,
		configPath: configPath,
		Search: SearchConfig{
			DefaultLimit: search.DefaultLimit,
		},
		Server: ServerConfig{
			APIPort:  8080,
			BindAddr: "127.0.0.1",
		},
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(configPath, cfg)
	if err != nil {
		if msg := err.Error(); strings.Contains(msg, "invalid escape") || strings.Contains(msg, "hexadecimal digits") {
			return nil, fmt.Errorf("decode config: %w\n\nhint: use forward slashes (C:/Users/me/chat.db) or single quotes ('C:\\Users\\me\\chat.db') for Windows paths", err)
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode config: unknown key %q", undecoded[0].String())
	}

	cfg.Data.ChatDB = expandPath(cfg.Data.ChatDB)
	cfg.Data.AddressBook = expandPath(cfg.Data.AddressBook)
	cfg.Data.TempDir = expandPath(cfg.Data.TempDir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Search.DefaultLimit < 0 || c.Search.DefaultLimit > search.MaxLimit {
		return fmt.Errorf("[search] default_limit must be between 0 and %d", search.MaxLimit)
	}
	if c.Server.APIPort < 0 || c.Server.APIPort > 65535 {
		return fmt.Errorf("[server] api_port %d out of range", c.Server.APIPort)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone for date directives.
func (c *Config) Location() (*time.Location, error) {
	if c.Search.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Search.Timezone)
	if err != nil {
		return nil, fmt.Errorf("[search] timezone: %w", err)
	}
	return loc, nil
}

// ConfigFilePath returns the path config.toml was (or would be) loaded from.
func (c *Config) ConfigFilePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(c.HomeDir, "config.toml")
}

// EnsureHomeDir creates the home directory with owner-only permissions.
func (c *Config) EnsureHomeDir() error {
	return fileutil.SecureMkdirAll(c.HomeDir, 0o700)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
