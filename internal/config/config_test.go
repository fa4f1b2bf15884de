package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.APIBaseURL != "/api" {
		t.Errorf("expected default APIBaseURL to be /api, got %s", cfg.APIBaseURL)
	}
	if cfg.Origin != "http://localhost:8000" {
		t.Errorf("expected default Origin to be http://localhost:8000, got %s", cfg.Origin)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("expected default ProxyMode no-proxy, got %s", cfg.ProxyMode)
	}
	if !cfg.Notifications {
		t.Error("expected notifications to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.ini")

	cfg := NewConfig()
	cfg.APIBaseURL = "https://drive.example.com/api"
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.corp"
	cfg.ProxyPort = 3128
	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "secret"
	cfg.RequestsPerSecond = 2.5
	cfg.Notifications = false

	require.NoError(t, SaveConfigFile(cfg, path))

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://drive.example.com/api", loaded.APIBaseURL)
	assert.Equal(t, "basic", loaded.ProxyMode)
	assert.Equal(t, "proxy.corp", loaded.ProxyHost)
	assert.Equal(t, 3128, loaded.ProxyPort)
	assert.Equal(t, "alice", loaded.ProxyUser)
	assert.Empty(t, loaded.ProxyPassword, "password must not be persisted")
	assert.Equal(t, 2.5, loaded.RequestsPerSecond)
	assert.False(t, loaded.Notifications)

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0077 != 0 {
		t.Errorf("config file should be private, got %04o", info.Mode().Perm())
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadConfigFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ini")
	require.NoError(t, os.WriteFile(path, []byte("[server\napi_url = x"), 0600))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(*testing.T, *Config)
	}{
		{
			name: "api url and origin",
			env:  map[string]string{"PDRIVE_API_URL": "http://files.local/v1", "PDRIVE_ORIGIN": "http://files.local"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "http://files.local/v1", c.APIBaseURL)
				assert.Equal(t, "http://files.local", c.Origin)
			},
		},
		{
			name: "blank values are ignored",
			env:  map[string]string{"PDRIVE_API_URL": "  "},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "/api", c.APIBaseURL)
			},
		},
		{
			name: "https proxy switches to system mode",
			env:  map[string]string{"HTTPS_PROXY": "http://proxy.corp:8080"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "proxy.corp", c.ProxyHost)
				assert.Equal(t, 8080, c.ProxyPort)
				assert.Equal(t, "system", c.ProxyMode)
			},
		},
		{
			name: "debug overrides log level",
			env:  map[string]string{"PDRIVE_LOG_LEVEL": "warn", "PDRIVE_DEBUG": "1"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "debug", c.LogLevel)
			},
		},
		{
			name: "numeric and bool fields",
			env:  map[string]string{"PDRIVE_RATE_LIMIT": "5", "PDRIVE_NOTIFICATIONS": "false", "PDRIVE_PROXY_PORT": "nope"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 5.0, c.RequestsPerSecond)
				assert.False(t, c.Notifications)
				assert.Equal(t, 0, c.ProxyPort)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.MergeEnv(mapLookup(tt.env))
			tt.check(t, cfg)
		})
	}
}

func TestEnvLookup_DotEnvBelowProcessEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("PDRIVE_API_URL=http://from-dotenv/api\nPDRIVE_ORIGIN=http://from-dotenv\n"), 0600))

	t.Setenv("PDRIVE_ORIGIN", "http://from-env")

	lookup, err := EnvLookup(dotenv, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	cfg := NewConfig()
	cfg.MergeEnv(lookup)
	assert.Equal(t, "http://from-dotenv/api", cfg.APIBaseURL)
	assert.Equal(t, "http://from-env", cfg.Origin)
}

func TestMergeWithFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.MergeEnv(mapLookup(map[string]string{"PDRIVE_API_URL": "http://env/api", "PDRIVE_PROXY_MODE": "system"}))
	cfg.MergeWithFlags(Flags{APIURL: "http://flag/api", ProxyPort: 9000})

	assert.Equal(t, "http://flag/api", cfg.APIBaseURL, "flags beat env")
	assert.Equal(t, "system", cfg.ProxyMode, "unset flags keep env values")
	assert.Equal(t, 9000, cfg.ProxyPort)
}

func TestResolveAPIURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		origin  string
		want    string
		wantErr bool
	}{
		{"relative default", "/api", "http://localhost:8000", "http://localhost:8000/api", false},
		{"trailing slash trimmed", "/api/", "http://localhost:8000", "http://localhost:8000/api", false},
		{"absolute kept", "https://drive.example.com/api", "http://ignored", "https://drive.example.com/api", false},
		{"empty", "", "http://localhost:8000", "", true},
		{"relative with bad origin", "/api", "localhost:8000", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIBaseURL: tt.base, Origin: tt.origin}
			got, err := cfg.ResolveAPIURL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL(t *testing.T) {
	cfg := NewConfig()

	got, err := cfg.ResolveURL("/files/3/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/files/3/report.pdf", got)

	got, err = cfg.ResolveURL("https://cdn.example.com/x.bin")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.bin", got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad proxy mode", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
		{"bad port", func(c *Config) { c.ProxyPort = 70000 }, ErrInvalidProxyPort},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, ErrInvalidRateLimit},
		{"missing api url", func(c *Config) { c.APIBaseURL = "" }, ErrMissingAPIURL},
		{"bad origin", func(c *Config) { c.Origin = "ftp://x" }, ErrInvalidOrigin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
