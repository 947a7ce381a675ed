package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "*", cfg.Server.CORSOrigin)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBody)
	assert.Equal(t, "http://ollama-llm:11434", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/generate", cfg.Backend.Path)
	assert.Equal(t, "mistral", cfg.Backend.Model)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Otel.Endpoint)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolserver.yaml")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
backend:
  base_url: ${OLLAMA_HOST}
  model: llama3
  timeout: 45s
log:
  format: json
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "http://gpu-box:11434", cfg.Backend.BaseURL)
	assert.Equal(t, "llama3", cfg.Backend.Model)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  model: llama3\n"), 0o600))
	t.Setenv("TOOLSERVER_BACKEND_MODEL", "phi3")
	t.Setenv("TOOLSERVER_SERVER_PORT", "8088")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.Backend.Model)
	assert.Equal(t, 8088, cfg.Server.Port)
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("TOOLSERVER_BACKEND_MODEL", "phi3")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "")
	flags.Int("port", 8000, "")
	flags.Duration("timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--model", "gemma", "--port", "9000"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "gemma", cfg.Backend.Model)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeout, "unset flags keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	base, err := Load("", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"base url", func(c *Config) { c.Backend.BaseURL = " " }, "backend.base_url"},
		{"model", func(c *Config) { c.Backend.Model = "" }, "backend.model"},
		{"timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)

	buf.Reset()
	logger = NewLogger(LogConfig{Level: "debug"}, &buf)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
