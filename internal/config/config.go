// Package config provides configuration management for pdrive.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/rescale/pdrive/internal/constants"
)

// Config is the resolved client configuration.
//
// Config file location: ~/.config/pdrive/config.ini
//
// INI format:
//
//	[server]
//	api_url = /api
//	origin = http://localhost:8000
//	requests_per_second = 20
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
//
//	[client]
//	notifications = true
//	log_level = info
type Config struct {
	// API settings
	APIBaseURL string // absolute, or a path resolved against Origin
	Origin     string // scheme://host[:port] of the storage server

	// Proxy settings
	ProxyMode     string // "no-proxy", "ntlm", "basic", "system"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string // never written to the config file
	NoProxy       string // Comma-separated list of hosts to bypass proxy

	// RequestsPerSecond caps API calls made by this client. 0 disables the limiter.
	RequestsPerSecond float64

	Notifications bool
	LogLevel      string
}

// Flags carries command-line overrides. Zero values mean "not set".
type Flags struct {
	APIURL    string
	Origin    string
	ProxyMode string
	ProxyHost string
	ProxyPort int
	NoProxy   string
	RateLimit float64
	LogLevel  string
}

// Validation errors
var (
	ErrMissingAPIURL    = errors.New("api_url is required")
	ErrInvalidOrigin    = errors.New("origin must be an absolute http(s) URL")
	ErrInvalidProxyMode = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrInvalidProxyPort = errors.New("proxy port must be between 0 and 65535")
	ErrInvalidRateLimit = errors.New("requests_per_second must not be negative")
)

// NewConfig returns a config holding the built-in defaults.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:        constants.DefaultAPIBaseURL,
		Origin:            constants.DefaultOrigin,
		ProxyMode:         "no-proxy",
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
		Notifications:     true,
		LogLevel:          "info",
	}
}

// LoadConfigFile loads configuration from an INI file on top of the defaults.
// A missing file yields the defaults and no error; a malformed one is an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.APIBaseURL = server.Key("api_url").MustString(cfg.APIBaseURL)
	cfg.Origin = server.Key("origin").MustString(cfg.Origin)
	cfg.RequestsPerSecond = server.Key("requests_per_second").MustFloat64(cfg.RequestsPerSecond)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()

	client := iniFile.Section("client")
	cfg.Notifications = client.Key("notifications").MustBool(cfg.Notifications)
	cfg.LogLevel = client.Key("log_level").MustString(cfg.LogLevel)

	return cfg, nil
}

// SaveConfigFile writes cfg to an INI file, creating parent directories.
// The proxy password is never persisted.
func SaveConfigFile(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	server, err := iniFile.NewSection("server")
	if err != nil {
		return fmt.Errorf("failed to create server section: %w", err)
	}
	server.Key("api_url").SetValue(cfg.APIBaseURL)
	server.Key("origin").SetValue(cfg.Origin)
	server.Key("requests_per_second").SetValue(strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64))

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(strconv.Itoa(cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)

	client, err := iniFile.NewSection("client")
	if err != nil {
		return fmt.Errorf("failed to create client section: %w", err)
	}
	client.Key("notifications").SetValue(strconv.FormatBool(cfg.Notifications))
	client.Key("log_level").SetValue(cfg.LogLevel)

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// LookupFunc looks up one environment variable.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a LookupFunc that consults the process environment first and
// then the given .env files in order. Missing .env files are skipped; a file that
// exists but cannot be parsed is an error.
func EnvLookup(dotenvPaths ...string) (LookupFunc, error) {
	merged := map[string]string{}
	for _, p := range dotenvPaths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		values, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		for k, v := range values {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := merged[key]
		return v, ok
	}, nil
}

// MergeEnv applies PDRIVE_* variables (and HTTPS_PROXY when no proxy host is
// configured) from lookup over the current values.
func (c *Config) MergeEnv(lookup LookupFunc) {
	get := func(name string) (string, bool) {
		v, ok := lookup(constants.EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("API_URL"); ok {
		c.APIBaseURL = v
	}
	if v, ok := get("ORIGIN"); ok {
		c.Origin = v
	}
	if v, ok := get("PROXY_MODE"); ok {
		c.ProxyMode = v
	}
	if v, ok := get("PROXY_HOST"); ok {
		c.ProxyHost = v
	}
	if v, ok := get("PROXY_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.ProxyPort = port
		}
	}
	if v, ok := get("PROXY_USER"); ok {
		c.ProxyUser = v
	}
	if v, ok := get("PROXY_PASSWORD"); ok {
		c.ProxyPassword = v
	}
	if v, ok := get("NO_PROXY"); ok {
		c.NoProxy = v
	}
	if v, ok := get("RATE_LIMIT"); ok {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = rps
		}
	}
	if v, ok := get("NOTIFICATIONS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Notifications = b
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if _, ok := get("DEBUG"); ok {
		c.LogLevel = "debug"
	}

	if envProxy, ok := lookup("HTTPS_PROXY"); ok && envProxy != "" && c.ProxyHost == "" {
		c.parseProxyURL(envProxy)
	}
}

// MergeWithFlags applies command-line overrides, the highest priority source.
func (c *Config) MergeWithFlags(f Flags) {
	if f.APIURL != "" {
		c.APIBaseURL = f.APIURL
	}
	if f.Origin != "" {
		c.Origin = f.Origin
	}
	if f.ProxyMode != "" {
		c.ProxyMode = f.ProxyMode
	}
	if f.ProxyHost != "" {
		c.ProxyHost = f.ProxyHost
	}
	if f.ProxyPort > 0 {
		c.ProxyPort = f.ProxyPort
	}
	if f.NoProxy != "" {
		c.NoProxy = f.NoProxy
	}
	if f.RateLimit > 0 {
		c.RequestsPerSecond = f.RateLimit
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
}

// parseProxyURL parses a proxy URL from environment variable
func (c *Config) parseProxyURL(proxyURL string) {
	if !strings.Contains(proxyURL, "://") {
		proxyURL = "http://" + proxyURL
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Hostname() == "" {
		return
	}
	c.ProxyHost = u.Hostname()
	if port, err := strconv.Atoi(u.Port()); err == nil {
		c.ProxyPort = port
	}
	if c.ProxyMode == "no-proxy" || c.ProxyMode == "" {
		c.ProxyMode = "system"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return ErrMissingAPIURL
	}
	if _, err := parseOrigin(c.Origin); err != nil {
		return err
	}
	if _, err := c.ResolveAPIURL(); err != nil {
		return err
	}
	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return fmt.Errorf("%w (got %q)", ErrInvalidProxyMode, c.ProxyMode)
	}
	if c.ProxyPort < 0 || c.ProxyPort > 65535 {
		return ErrInvalidProxyPort
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// ResolveAPIURL returns the absolute API base URL without a trailing slash.
// A relative base ("/api") is resolved against Origin.
func (c *Config) ResolveAPIURL() (string, error) {
	base := strings.TrimSpace(c.APIBaseURL)
	if base == "" {
		return "", ErrMissingAPIURL
	}
	ref, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid api_url %q: %w", base, err)
	}
	if !ref.IsAbs() {
		origin, err := parseOrigin(c.Origin)
		if err != nil {
			return "", err
		}
		ref = origin.ResolveReference(ref)
	}
	return strings.TrimRight(ref.String(), "/"), nil
}

// ResolveURL resolves a server-supplied URL (such as a file's download_url)
// against Origin. Absolute URLs are returned unchanged.
func (c *Config) ResolveURL(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return raw, nil
	}
	origin, err := parseOrigin(c.Origin)
	if err != nil {
		return "", err
	}
	return origin.ResolveReference(ref).String(), nil
}

func parseOrigin(origin string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w (got %q)", ErrInvalidOrigin, origin)
	}
	return u, nil
}
