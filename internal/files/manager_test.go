package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivtcli/internal/config"
)

func newTestManager(t *testing.T) (*Manager, *config.Paths) {
	t.Helper()
	paths, err := config.NewPaths(t.TempDir(), config.PathsConfig{OutputDir: "out"})
	require.NoError(t, err)
	return NewManager(paths), paths
}

func TestManager_WriteFile(t *testing.T) {
	m, paths := newTestManager(t)

	written, err := m.WriteFile("reports/summary.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.OutputDir, "reports", "summary.json"), written)

	content, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(content))
	assert.True(t, m.FileExists("reports/summary.json"))

	entries, err := os.ReadDir(filepath.Dir(written))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestManager_WriteWith_ErrorKeepsTarget(t *testing.T) {
	m, _ := newTestManager(t)

	target, err := m.WriteFile("chart.png", []byte("old"))
	require.NoError(t, err)

	boom := errors.New("encode failed")
	_, err = m.WriteWith("chart.png", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManager_AbsolutePath(t *testing.T) {
	m, _ := newTestManager(t)
	abs := filepath.Join(t.TempDir(), "elsewhere.txt")

	written, err := m.WriteFile(abs, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, abs, written)
}

func TestManager_NilPaths(t *testing.T) {
	m := NewManager(nil)
	target := filepath.Join(t.TempDir(), "plain.txt")
	assert.Equal(t, target, m.Resolve(target))
}
