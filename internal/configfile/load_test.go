package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Ports     []int         `mapstructure:"ports"`
	Nested    nested        `mapstructure:"nested"`
	Untouched string        `mapstructure:"untouched"`
}

type nested struct {
	Name string `mapstructure:"name"`
}

func TestLoad(t *testing.T) {
	t.Setenv("CONFIGFILE_TEST_PASSWORD", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: postgres://postgres:${CONFIGFILE_TEST_PASSWORD}@db:5432/postgres
timeout: 1m30s
ports: [8080, "2112"]
nested:
  name: ${CONFIGFILE_TEST_PASSWORD}
`), 0o600))

	cfg := testConfig{Untouched: "default"}
	found, err := Load("test", path, true, &cfg)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, "postgres://postgres:s3cret@db:5432/postgres", cfg.URL)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, []int{8080, 2112}, cfg.Ports)
	assert.Equal(t, "s3cret", cfg.Nested.Name)
	assert.Equal(t, "default", cfg.Untouched)
}

func TestLoad_DollarSignKept(t *testing.T) {
	t.Setenv("CONFIGFILE_TEST_USER", "app")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: postgres://${CONFIGFILE_TEST_USER}:pa$sw0rd@db:5432/news
nested:
  name: ${CONFIGFILE_TEST_UNSET | fallback}
`), 0o600))

	var cfg testConfig
	_, err := Load("test", path, true, &cfg)
	require.NoError(t, err)

	assert.Equal(t, "postgres://app:pa$sw0rd@db:5432/news", cfg.URL)
	assert.Equal(t, "fallback", cfg.Nested.Name)
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	found, err := Load("test", path, false, &testConfig{})
	require.NoError(t, err)
	assert.False(t, found)

	_, err = Load("test", path, true, &testConfig{})
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: [unterminated\n"), 0o600))

	_, err := Load("test", path, true, &testConfig{})
	assert.Error(t, err)
}
