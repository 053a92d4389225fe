package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("EVERCART_SYSTEM_WORKDIR", t.TempDir())
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.Equal(t, 24, cfg.Web.JwtExpire)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "evercart.yml")
	content := []byte("web:\n  port: 9000\ndatabase:\n  host: db.internal\n")
	assert.NoError(t, os.WriteFile(cfile, content, 0644))

	t.Setenv("EVERCART_SYSTEM_WORKDIR", dir)
	t.Setenv("EVERCART_DB_NAME", "evercart_test")

	cfg := LoadConfig(cfile)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	// env wins over the default
	assert.Equal(t, "evercart_test", cfg.Database.Name)

	// workdir data directory is prepared
	_, err := os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}
