// Package config loads hrsuite configuration: where the application under
// test lives, how the browser is driven, and where sessions are cached.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvCI            = "CI"
	EnvBaseURL       = "HRSUITE_BASE_URL"
	EnvCacheDir      = "HRSUITE_CACHE_DIR"
	EnvShareSessions = "HRSUITE_SHARE_SESSIONS"
	EnvHeadless      = "HRSUITE_HEADLESS"
	EnvCredentials   = "HRSUITE_CREDENTIALS"
)

// Config is the full suite configuration.
type Config struct {
	// BaseURL is the origin of the application under test
	BaseURL string `yaml:"base_url"`

	Viewport Viewport      `yaml:"viewport"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Browser  BrowserConfig `yaml:"browser"`
	Login    LoginConfig   `yaml:"login"`
	Session  SessionConfig `yaml:"session"`
	Fixtures FixtureConfig `yaml:"fixtures"`
	Logging  LoggingConfig `yaml:"logging"`

	// CI selects the CI timeout profile. Set from the CI environment variable.
	CI bool `yaml:"-"`
}

// Viewport is the browser window size.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Timeouts bound individual browser operations.
type Timeouts struct {
	// Command bounds a single action such as fill, click or wait
	Command time.Duration `yaml:"command"`

	// PageLoad bounds a navigation
	PageLoad time.Duration `yaml:"page_load"`
}

// TimeoutConfig holds the local and CI timeout profiles.
type TimeoutConfig struct {
	Local Timeouts `yaml:"local"`
	CI    Timeouts `yaml:"ci"`
}

// BrowserConfig controls the Playwright browser.
type BrowserConfig struct {
	Headless bool `yaml:"headless"`

	// Install downloads browsers and drivers before the first launch
	Install bool `yaml:"install"`
}

// LoginConfig describes the login page of the application.
type LoginConfig struct {
	Path string `yaml:"path"`

	// SuccessURL is a glob the page URL must match after a successful login
	SuccessURL string `yaml:"success_url"`
}

// SessionConfig controls the session cache.
type SessionConfig struct {
	// CacheDir holds persisted sessions when ShareAcrossRuns is set
	CacheDir string `yaml:"cache_dir"`

	// ShareAcrossRuns persists sessions so later runs can reuse them
	ShareAcrossRuns bool `yaml:"share_across_runs"`

	// ProbePath is the authenticated page requested to validate a session
	ProbePath string `yaml:"probe_path"`

	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// FixtureConfig points at test fixtures.
type FixtureConfig struct {
	Credentials string `yaml:"credentials"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Dir overrides the log directory; empty keeps ~/.hrsuite/logs
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseURL:  "https://opensource-demo.orangehrmlive.com",
		Viewport: Viewport{Width: 1366, Height: 800},
		Timeouts: TimeoutConfig{
			Local: Timeouts{Command: 6 * time.Second, PageLoad: 30 * time.Second},
			CI:    Timeouts{Command: 10 * time.Second, PageLoad: 60 * time.Second},
		},
		Browser: BrowserConfig{Headless: true, Install: true},
		Login: LoginConfig{
			Path:       "/web/index.php/auth/login",
			SuccessURL: "**/dashboard/**",
		},
		Session: SessionConfig{
			CacheDir:     ".hrsuite/sessions",
			ProbePath:    "/web/index.php/dashboard/index",
			ProbeTimeout: 10 * time.Second,
		},
		Fixtures: FixtureConfig{Credentials: "fixtures/credentials.json"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up through
// lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvCI); ok {
		c.CI = isTruthy(v)
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Session.CacheDir = v
	}
	if v, ok := lookup(EnvCredentials); ok && v != "" {
		c.Fixtures.Credentials = v
	}
	if v, ok := lookup(EnvShareSessions); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvShareSessions, v, err)
		}
		c.Session.ShareAcrossRuns = b
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// isTruthy follows the usual CI convention: any value except empty,
// "0" and "false" enables CI mode.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// Effective returns the timeout profile for the current environment.
func (c *Config) Effective() Timeouts {
	if c.CI {
		return c.Timeouts.CI
	}
	return c.Timeouts.Local
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %q", c.BaseURL)
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}

	for name, t := range map[string]Timeouts{"local": c.Timeouts.Local, "ci": c.Timeouts.CI} {
		if t.Command <= 0 || t.PageLoad <= 0 {
			return fmt.Errorf("timeouts.%s must be positive", name)
		}
	}

	if !strings.HasPrefix(c.Login.Path, "/") {
		return fmt.Errorf("login.path must start with '/', got %q", c.Login.Path)
	}
	if c.Login.SuccessURL == "" {
		return fmt.Errorf("login.success_url is required")
	}
	if !strings.HasPrefix(c.Session.ProbePath, "/") {
		return fmt.Errorf("session.probe_path must start with '/', got %q", c.Session.ProbePath)
	}
	if c.Session.ProbeTimeout < 0 {
		return fmt.Errorf("session.probe_timeout cannot be negative")
	}
	if c.Session.ShareAcrossRuns && c.Session.CacheDir == "" {
		return fmt.Errorf("session.cache_dir is required when share_across_runs is enabled")
	}
	return nil
}

// URL resolves path against BaseURL.
func (c *Config) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
