package config

import (
	"membership-workflow/internal/registration"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "membership.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		base_url: "http://127.0.0.1:8000",
		mode: "demo",
		on_failure: "block",
		timeout_seconds: 30,
		journal: { file: "journal.db" },
	}`), 0644))

	t.Setenv("MEMBERSHIP_BASE_URL", "http://backend:8000")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://backend:8000", cfg.BaseUrl)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.Equal(t, "journal.db", cfg.Journal.File)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	require.Equal(t, registration.Policy{
		Verification: registration.VerifyBypass,
		Failure:      registration.FailBlock,
	}, policy)
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("MEMBERSHIP_MODE", "strict")

	cfg, err := Load(filepath.Join(t.TempDir(), "membership.json5"))
	require.NoError(t, err)
	require.Zero(t, cfg.Timeout())

	policy, err := cfg.Policy()
	require.NoError(t, err)
	require.Equal(t, registration.StrictPolicy(), policy)
}

func TestPolicyErrors(t *testing.T) {
	_, err := Config{Mode: "lenient"}.Policy()
	require.Error(t, err)
	_, err = Config{Verification: "maybe"}.Policy()
	require.Error(t, err)
	_, err = Config{OnFailure: "ignore"}.Policy()
	require.Error(t, err)
}
