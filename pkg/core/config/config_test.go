package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_ADDR", "DATA_DIR", "CACHE_DIR", "PROMPT_DIR", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "USE_LLM", "LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":9000"
data_dir: /srv/reports
use_llm: true
log:
  level: debug
  format: console
llm:
  active_provider: qwen
  agents:
    basic_indicators:
      provider: deepseek
      model: deepseek-chat
rate_limit:
  requests_per_minute: 120
  burst: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/srv/reports", cfg.DataDir)
	assert.Equal(t, ".cache/analysis", cfg.CacheDir)
	assert.True(t, cfg.UseLLM)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "qwen", cfg.LLM.ActiveProvider)
	assert.Equal(t, "deepseek", cfg.LLM.Agents["basic_indicators"].Provider)
	assert.Equal(t, 2.0, cfg.RateLimit.PerSecond())
	assert.Equal(t, 4, cfg.RateLimit.Burst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/tmp/data")
	t.Setenv("USE_LLM", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/reports")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "data_dir: ignored\nuse_llm: false\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data", cfg.DataDir)
	assert.True(t, cfg.UseLLM)
	assert.Equal(t, "postgres://localhost/reports", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "CONFIG_READ_ERROR")

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.ErrorContains(t, err, "CONFIG_PARSE_ERROR")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "log.format")

	_, err = Load(writeConfig(t, "use_llm: true\nllm:\n  active_provider: \"\"\n"))
	assert.ErrorContains(t, err, "active_provider")
}

func TestLoad_DefaultPathOptional(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}
