package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tsbuild/internal/foundation"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	}
}

func someString(s string) foundation.Option[string] { return foundation.Some(s) }

func someBool(b bool) foundation.Option[bool] { return foundation.Some(b) }

func readOutput(t *testing.T, h *harness, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(h.cfg.OutputPath, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}
