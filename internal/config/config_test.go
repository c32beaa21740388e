package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/textvault/internal/search"
	"github.com/wesm/textvault/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	return testutil.WriteFile(t, dir, "config.toml", []byte(content))
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TEXTVAULT_HOME", tmpDir)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		HomeDir:    tmpDir,
		configPath: filepath.Join(tmpDir, "config.toml"),
		Search:     SearchConfig{DefaultLimit: search.DefaultLimit},
		Server:     ServerConfig{APIPort: 8080, BindAddr: "127.0.0.1"},
	}
	if diff := cmp.Diff(want, cfg, cmp.AllowUnexported(Config{})); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if loc, err := cfg.Location(); err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TEXTVAULT_HOME", tmpDir)
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}

	writeConfig(t, tmpDir, `
[data]
chat_db = "~/Messages/chat.db"
address_book = "/tmp/AddressBook-v22.abcddb"
temp_dir = "~/tmp"
no_copy = true

[search]
default_limit = 25
timezone = "America/New_York"

[server]
api_port = 9090
bind_addr = "0.0.0.0"
api_key = "test-secret-key"
cors_origins = ["http://localhost:3000"]
cors_max_age = 600
`)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantData := DataConfig{
		ChatDB:      filepath.Join(home, "Messages/chat.db"),
		AddressBook: "/tmp/AddressBook-v22.abcddb",
		TempDir:     filepath.Join(home, "tmp"),
		NoCopy:      true,
	}
	if diff := cmp.Diff(wantData, cfg.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	wantServer := ServerConfig{
		APIPort:     9090,
		BindAddr:    "0.0.0.0",
		APIKey:      "test-secret-key",
		CORSOrigins: []string{"http://localhost:3000"},
		CORSMaxAge:  600,
	}
	if diff := cmp.Diff(wantServer, cfg.Server); diff != "" {
		t.Errorf("server mismatch (-want +got):\n%s", diff)
	}
	if cfg.Search.DefaultLimit != 25 {
		t.Errorf("Search.DefaultLimit = %d, want 25", cfg.Search.DefaultLimit)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("Location() = %v, want America/New_York", loc)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "[data]\nchatdb = \"x\"\n", "unknown key"},
		{"limit too large", "[search]\ndefault_limit = 5000\n", "default_limit"},
		{"bad port", "[server]\napi_port = 70000\n", "api_port"},
		{"bad timezone", "[search]\ntimezone = \"Mars/Olympus\"\n", "timezone"},
		{"not toml", "[data\n", "decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.content)

			_, err := Load("", tmpDir)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadBackslashErrorHint(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid escape (backslash G)",
			content: "[data]\nchat_db = \"C:\\Games\\chat.db\"\n",
		},
		{
			name:    "unicode escape (backslash U)",
			content: "[data]\nchat_db = \"C:\\Users\\me\\chat.db\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.content)

			_, err := Load("", tmpDir)
			if err == nil {
				t.Fatal("Load should fail on TOML backslash error")
			}
			testutil.AssertContainsAll(t, err.Error(), []string{"hint:", "forward slashes", "single quotes"})
		})
	}
}

func TestLoadExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TEXTVAULT_HOME", filepath.Join(tmpDir, "home"))

	path := testutil.WriteFile(t, tmpDir, "custom.toml", []byte("[server]\napi_port = 9999\n"))
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIPort != 9999 {
		t.Errorf("APIPort = %d, want 9999", cfg.Server.APIPort)
	}
	if cfg.ConfigFilePath() != path {
		t.Errorf("ConfigFilePath() = %q, want %q", cfg.ConfigFilePath(), path)
	}
	if cfg.HomeDir != filepath.Join(tmpDir, "home") {
		t.Errorf("HomeDir = %q", cfg.HomeDir)
	}

	if _, err := Load(filepath.Join(tmpDir, "missing.toml"), ""); err == nil {
		t.Error("explicit missing config file should be an error")
	}
}

func TestLoadWithHomeDir(t *testing.T) {
	t.Setenv("TEXTVAULT_HOME", t.TempDir())
	homeDir := t.TempDir()
	writeConfig(t, homeDir, "[search]\ndefault_limit = 7\n")

	cfg, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HomeDir != homeDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, homeDir)
	}
	if cfg.Search.DefaultLimit != 7 {
		t.Errorf("DefaultLimit = %d, want 7 from --home config", cfg.Search.DefaultLimit)
	}
}

func TestEnsureHomeDir(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "nested", ".textvault")
	cfg := &Config{HomeDir: homeDir}
	if err := cfg.EnsureHomeDir(); err != nil {
		t.Fatalf("EnsureHomeDir() error = %v", err)
	}
	testutil.MustExist(t, homeDir)
	testutil.AssertMode(t, homeDir, 0o700)
}

func TestDefaultHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	t.Setenv("TEXTVAULT_HOME", "~/tv")
	if got := DefaultHome(); got != filepath.Join(home, "tv") {
		t.Errorf("DefaultHome() = %q, want %q", got, filepath.Join(home, "tv"))
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
		unixOnly bool
	}{
		{"empty string", "", "", false},
		{"just tilde", "~", home, false},
		{"tilde with slash and path", "~/foo", filepath.Join(home, "foo"), false},
		{"tilde with trailing slash only", "~/", home, false},
		{"tilde user notation not expanded", "~user", "~user", false},
		{"tilde with double slash", "~//foo", filepath.Join(home, "foo"), false},
		{"absolute path unchanged", "/var/log/test", "/var/log/test", true},
		{"relative path unchanged", "relative/path", "relative/path", false},
		{"tilde in middle not expanded", "/home/~user/foo", "/home/~user/foo", true},
		{"nested path after tilde", "~/foo/bar/baz", filepath.Join(home, "foo/bar/baz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.unixOnly && runtime.GOOS == "windows" {
				t.Skip("skipping Unix-specific path test on Windows")
			}
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateSecure(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ServerConfig
		wantError bool
	}{
		{"loopback no key", ServerConfig{BindAddr: "127.0.0.1"}, false},
		{"loopback 127.0.0.2 no key", ServerConfig{BindAddr: "127.0.0.2"}, false},
		{"ipv6 loopback no key", ServerConfig{BindAddr: "::1"}, false},
		{"localhost no key", ServerConfig{BindAddr: "localhost"}, false},
		{"empty addr no key", ServerConfig{BindAddr: ""}, false},
		{"non-loopback with key", ServerConfig{BindAddr: "0.0.0.0", APIKey: "secret"}, false},
		{"non-loopback no key", ServerConfig{BindAddr: "0.0.0.0"}, true},
		{"non-loopback ipv6 no key", ServerConfig{BindAddr: "::"}, true},
		{"hostname no key", ServerConfig{BindAddr: "example.com"}, true},
		{"non-loopback insecure override", ServerConfig{BindAddr: "0.0.0.0", AllowInsecure: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateSecure()
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateSecure() error = %v, wantError = %v", err, tt.wantError)
			}
		})
	}
}
