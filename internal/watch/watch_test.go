package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShouldIgnore(t *testing.T) {
	for _, p := range []string{".hidden.md", "draft.md~", "draft.md.swp", "#draft.md#", "Thumbs.db", "/m/.DS_Store"} {
		require.True(t, shouldIgnore(p), p)
	}
	for _, p := range []string{"01_maintext.md", "figures/flow.png"} {
		require.False(t, shouldIgnore(p), p)
	}
}

func TestWatcher_IsExcluded(t *testing.T) {
	w := &watcher{excluded: []string{"/m/garden"}}
	require.True(t, w.isExcluded("/m/garden"))
	require.True(t, w.isExcluded("/m/garden/g_intro.md"))
	require.False(t, w.isExcluded("/m/garden-notes.md"))
	require.False(t, w.isExcluded("/m/intro.md"))
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	req, trigger, stop := debouncer(30 * time.Millisecond)
	defer stop()

	for range 5 {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one rebuild")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRun_RebuildsOnChangeAndIgnoresExcluded(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "garden")
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "intro.md"), []byte("a"), 0o600))

	var builds atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Root:     root,
			Exclude:  []string{out},
			Debounce: 20 * time.Millisecond,
			Logger:   quietLogger(),
		}, func(context.Context) error {
			builds.Add(1)
			return errors.New("pandoc missing")
		})
	}()

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(out, "g_intro.md"), []byte("generated"), 0o600))
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(1), builds.Load(), "writes to the output directory must not rebuild")

	require.NoError(t, os.WriteFile(filepath.Join(root, "intro.md"), []byte("b"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
