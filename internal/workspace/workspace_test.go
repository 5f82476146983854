package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_Ephemeral(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)
	require.NoError(t, mgr.Create())

	dir := mgr.Path()
	require.True(t, strings.HasPrefix(filepath.Base(dir), "manuscript-"))
	require.DirExists(t, dir)

	path, err := mgr.WriteFile("merged.md", []byte("body"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "merged.md"), path)

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, dir)
	require.Empty(t, mgr.Path())
}

func TestManager_EphemeralDirectoriesAreUnique(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	require.NotEqual(t, a.Path(), b.Path())
}

func TestManager_PersistentSurvivesCleanup(t *testing.T) {
	base := t.TempDir()
	mgr := NewPersistentManager(base, "work")
	require.NoError(t, mgr.Create())
	require.Equal(t, filepath.Join(base, "work"), mgr.Path())

	_, err := mgr.WriteFile("si/header.tex", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, mgr.Cleanup())
	data, err := os.ReadFile(filepath.Join(base, "work", "si", "header.tex"))
	require.NoError(t, err)
	require.Equal(t, "x", string(data))
}

func TestManager_WriteBeforeCreate(t *testing.T) {
	_, err := NewManager(t.TempDir()).WriteFile("x", nil)
	require.ErrorIs(t, err, ErrNotCreated)
}

func TestManager_CleanupWithoutCreate(t *testing.T) {
	require.NoError(t, NewManager(t.TempDir()).Cleanup())
}
