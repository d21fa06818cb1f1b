package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, path, sampleCatalogInline)

	s, err := Open(path)
	require.NoError(t, err)

	reloaded := make(chan *Catalog, 4)
	unsubscribe := s.Subscribe(func(c *Catalog) { reloaded <- c })
	defer unsubscribe()

	w, err := NewWatcher(s, 20*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, path, "pictures:\n  - name: fresh\n    children:\n      - source: {art: \"+\"}\n")

	// A reload can observe the truncated file first; wait for the final one.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if names := c.Names(); len(names) == 1 && names[0] == "fresh" {
				return
			}
		case <-deadline:
			t.Fatalf("catalog was not reloaded; current = %v", s.Current().Names())
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	writeFile(t, path, sampleCatalogInline)

	s, err := Open(path)
	require.NoError(t, err)

	reloaded := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(*Catalog) { reloaded <- struct{}{} })
	defer unsubscribe()

	w, err := NewWatcher(s, 10*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")

	select {
	case <-reloaded:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, path, sampleCatalogInline)

	s, err := Open(path)
	require.NoError(t, err)

	w, err := NewWatcher(s, 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	cancel()

	w.Stop()
	w.Stop()
}
