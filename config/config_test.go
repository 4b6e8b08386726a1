package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, 10, cfg.UI.DefaultPageSize)
	assert.Equal(t, []int{10, 20, 50, 100}, cfg.UI.PageSizes)
	assert.Equal(t, "gorm", cfg.APIServer.Store)
	assert.Equal(t, 100, cfg.APIServer.MaxPageSize)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
api:
  base_url: "http://issues.internal:8000/"
  timeout: 3s
ui:
  default_page_size: 20
  page_sizes: [20, 40]
  session_ttl: 5m
api_server:
  store: json
  data_dir: /var/lib/issues
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	// 末尾的斜杠会被去掉
	assert.Equal(t, "http://issues.internal:8000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, 20, cfg.UI.DefaultPageSize)
	assert.Equal(t, []int{20, 40}, cfg.UI.PageSizes)
	assert.Equal(t, 5*time.Minute, cfg.UI.SessionTTL.Duration)
	assert.Equal(t, "json", cfg.APIServer.Store)
	assert.Equal(t, "/var/lib/issues", cfg.APIServer.DataDir)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "http://localhost:9000"
timeout = "750ms"

[database]
type = "mysql"
dsn = "user:pass@tcp(127.0.0.1:3306)/issues"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.API.Timeout.Duration)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://from-file\n"), 0644))

	t.Setenv("ISSUES_API_URL", "http://from-env:8000")
	t.Setenv("ISSUES_API_TIMEOUT", "2s")
	t.Setenv("STORE_TYPE", "json")
	t.Setenv("MAX_PAGE_SIZE", "50")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, "json", cfg.APIServer.Store)
	assert.Equal(t, 50, cfg.APIServer.MaxPageSize)
}

func TestLoadOrDefaultReportsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))
	t.Setenv("ISSUES_API_URL", "http://from-env:9000")

	cfg, err := loadOrDefault(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, "http://from-env:9000", cfg.API.BaseURL)
	assert.Equal(t, Default().APIServer.Port, cfg.APIServer.Port)
}

func TestLoadOrDefaultValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://api:8000\n"), 0644))

	cfg, err := loadOrDefault(path)

	require.NoError(t, err)
	assert.Equal(t, "http://api:8000", cfg.API.BaseURL)
}
