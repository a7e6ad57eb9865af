package devenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module membership-workflow\n\ngo 1.22.2\n"), 0644)
	require.NoError(t, err)
	nested := filepath.Join(root, "cmd", "membership-cli")
	require.NoError(t, os.MkdirAll(nested, 0777))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	resolved, err := ResolvePath("<dev_state>/resty/dumps")
	require.NoError(t, err)

	expectedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(resolved)))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(expectedRoot, "dev", ".state"), actual)
	require.Equal(t, "dumps", filepath.Base(resolved))

	plain, err := ResolvePath("relative/dir")
	require.NoError(t, err)
	require.Equal(t, "relative/dir", plain)
}
