package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://opensource-demo.orangehrmlive.com", cfg.BaseURL)
	assert.Equal(t, Viewport{Width: 1366, Height: 800}, cfg.Viewport)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Session.ShareAcrossRuns)
	assert.Equal(t, ".hrsuite/sessions", cfg.Session.CacheDir)
	assert.Equal(t, "https://opensource-demo.orangehrmlive.com/web/index.php/auth/login", cfg.URL(cfg.Login.Path))
}

func TestEffective_Profiles(t *testing.T) {
	cfg := Default()
	assert.Equal(t, Timeouts{Command: 6 * time.Second, PageLoad: 30 * time.Second}, cfg.Effective())

	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{EnvCI: "true"})))
	assert.True(t, cfg.CI)
	assert.Equal(t, Timeouts{Command: 10 * time.Second, PageLoad: 60 * time.Second}, cfg.Effective())
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "empty environment keeps defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "CI=0 is not CI",
			env:  map[string]string{EnvCI: "0"},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.CI)
			},
		},
		{
			name: "CI=1 is CI",
			env:  map[string]string{EnvCI: "1"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.CI)
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				EnvBaseURL:       "http://localhost:8080",
				EnvCacheDir:      "/tmp/sessions",
				EnvShareSessions: "true",
				EnvHeadless:      "false",
				EnvCredentials:   "creds.json",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
				assert.Equal(t, "/tmp/sessions", cfg.Session.CacheDir)
				assert.True(t, cfg.Session.ShareAcrossRuns)
				assert.False(t, cfg.Browser.Headless)
				assert.Equal(t, "creds.json", cfg.Fixtures.Credentials)
			},
		},
		{
			name:    "bad share flag",
			env:     map[string]string{EnvShareSessions: "sometimes"},
			wantErr: true,
		},
		{
			name:    "bad headless flag",
			env:     map[string]string{EnvHeadless: "maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(envMap(tt.env))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"relative base url", func(c *Config) { c.BaseURL = "/web" }},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://example.com" }},
		{"zero viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"zero command timeout", func(c *Config) { c.Timeouts.Local.Command = 0 }},
		{"zero ci page load", func(c *Config) { c.Timeouts.CI.PageLoad = 0 }},
		{"login path without slash", func(c *Config) { c.Login.Path = "auth/login" }},
		{"empty success url", func(c *Config) { c.Login.SuccessURL = "" }},
		{"probe path without slash", func(c *Config) { c.Session.ProbePath = "dashboard" }},
		{"negative probe timeout", func(c *Config) { c.Session.ProbeTimeout = -time.Second }},
		{"sharing without cache dir", func(c *Config) {
			c.Session.ShareAcrossRuns = true
			c.Session.CacheDir = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	t.Setenv(EnvCI, "")
	t.Setenv(EnvBaseURL, "")

	path := filepath.Join(t.TempDir(), "hrsuite.yaml")
	yamlData := `
base_url: http://hrm.internal
viewport:
  width: 1920
timeouts:
  local:
    command: 8s
session:
  share_across_runs: true
  cache_dir: /var/cache/hrsuite
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://hrm.internal", cfg.BaseURL)
	assert.Equal(t, 1920, cfg.Viewport.Width)
	assert.Equal(t, 800, cfg.Viewport.Height, "unset fields keep their defaults")
	assert.Equal(t, 8*time.Second, cfg.Timeouts.Local.Command)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Local.PageLoad)
	assert.True(t, cfg.Session.ShareAcrossRuns)
	assert.Equal(t, "/var/cache/hrsuite", cfg.Session.CacheDir)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrsuite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://from-file\n"), 0600))
	t.Setenv(EnvBaseURL, "http://from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("viewport: [1, 2"), 0600))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("base_url: not-a-url\n"), 0600))
	t.Setenv(EnvBaseURL, "")
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid configuration")
}
