package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string `json:"base_url" env:"CONFIGUTIL_TEST_BASE_URL"`
	Mode    string `json:"mode"`
	Timeout int    `json:"timeout_seconds" env:"CONFIGUTIL_TEST_TIMEOUT"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "membership.json5"), `{
		// comments are allowed
		base_url: "http://127.0.0.1:8000",
		mode: "strict",
	}`)
	writeFile(t, filepath.Join(dir, "membership.local.json5"), `{ mode: "demo" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "membership.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000", cfg.BaseUrl)
	require.Equal(t, "demo", cfg.Mode)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "membership.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "membership.json5"), `{ base_url: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "membership.json5"))
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "membership.json5"), `{ mode: "demo" }`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("membership.json5")
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.Mode)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("CONFIGUTIL_TEST_BASE_URL", "http://backend:9000")
	cfg := testConfig{BaseUrl: "http://127.0.0.1:8000", Timeout: 3}

	require.NoError(t, ParseEnv(&cfg))
	require.Equal(t, "http://backend:9000", cfg.BaseUrl)
	require.Equal(t, 3, cfg.Timeout)

	t.Setenv("CONFIGUTIL_TEST_TIMEOUT", "not-an-int")
	err := ParseEnv(&cfg)
	require.ErrorContains(t, err, "parse env:")
}
