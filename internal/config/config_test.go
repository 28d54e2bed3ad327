package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.PrimaryTimeout())
	require.Equal(t, 30*time.Second, cfg.NavTimeout())
	require.Equal(t, time.Second, cfg.SettleDelay())
	require.Equal(t, 4, cfg.Extraction.BatchMaxParallel)
	require.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, "pages", cfg.Storage.Prefix)
	require.Empty(t, cfg.DB.DSN)

	opts := cfg.Options()
	require.True(t, opts.UseSecondaryFetch)
	require.True(t, opts.UseLLMFallback)
	require.False(t, opts.UseLLMValidation)
	require.True(t, opts.ApplyPIIFilter)
	require.True(t, opts.CheckRobots)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
extraction:
  use_llm_validation: true
  check_robots: false
storage:
  backend: local
  local_dir: /tmp/jobflow-pages
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Extraction.UseLLMValidation)
	require.False(t, cfg.Extraction.CheckRobots)
	require.Equal(t, "local", cfg.Storage.Backend)

	require.Equal(t, 15, cfg.HTTP.TimeoutSeconds, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("JOBFLOW_SERVER_PORT", "7070")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad http timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"bad batch parallel", func(c *Config) { c.Extraction.BatchMaxParallel = 0 }},
		{"headless disabled pool", func(c *Config) { c.Headless.MaxParallel = 0 }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = "gcs" }},
		{"local without dir", func(c *Config) { c.Storage.Backend = "local" }},
		{"pubsub without project", func(c *Config) { c.PubSub.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := base()
	cfg.Extraction.UseSecondaryFetch = false
	cfg.Headless.MaxParallel = 0
	require.NoError(t, cfg.Validate(), "headless pool unused when secondary fetch is off")
}
