package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "Lab analyses", cfg.Sheet)
	assert.Equal(t, "odm_csv", cfg.OutputDir)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "wbeodm.yaml", `
input: lab.xlsx
tag: mcgill_
header_row: 2
logging:
  level: debug
influx:
  url: http://localhost:8086
  org: lab
  bucket: file-bucket
`)
	t.Setenv("WBEODM_TAG", "env_")
	t.Setenv("WBEODM_INFLUX_BUCKET", "env-bucket")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lab.xlsx", cfg.Input)
	assert.Equal(t, "env_", cfg.Tag)
	assert.Equal(t, 2, cfg.HeaderRow)
	assert.Equal(t, "Lab analyses", cfg.Sheet)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, InfluxConfig{URL: "http://localhost:8086", Org: "lab", Bucket: "env-bucket"}, cfg.Influx)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "logging: [\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "level.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid logging level")

	_, err = Load(writeFile(t, "format.yaml", "logging:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid logging format")

	t.Setenv("WBEODM_HEADER_ROW", "two")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "WBEODM_DOTENV_TEST_LAB_ID"
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	require.NoError(t, LoadDotEnv(writeFile(t, ".env", key+"=frigon\n")))
	assert.Equal(t, "frigon", os.Getenv(key))
}
