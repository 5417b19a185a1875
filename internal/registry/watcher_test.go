package registry

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestWatcher(t *testing.T, dir string) (*Registry, *Watcher, *atomic.Int32) {
	t.Helper()

	log := testLogger()
	loader := NewLoader(log)
	systems, err := loader.LoadDir(dir)
	require.NoError(t, err)
	reg := New(systems)

	w, err := NewWatcher(dir, loader, reg, log)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.OnReload(func(*Registry) { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx) }()

	return reg, w, &reloads
}

func TestWatcherReloadsOnNewFile(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "wheatland.yaml", validDoc)

	reg, _, reloads := startTestWatcher(t, dir)
	require.Equal(t, 1, reg.Len())

	doc := `id: parkland
name: Parkland Regional Library
vendor: atriuum
catalogUrl: https://parkland.example.org
branches:
  - id: parkland-yorkton
    name: Yorkton Public Library
    code: YORK
adapters:
  - protocol: atriuum
    baseUrl: https://parkland.example.org
`
	writeDoc(t, dir, "parkland.yaml", doc)

	assert.Eventually(t, func() bool {
		return reg.Len() == 2
	}, 5*time.Second, 50*time.Millisecond, "new document picked up")

	_, ok := reg.System("parkland")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestWatcherKeepsPreviousOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "wheatland.yaml", validDoc)

	reg, _, reloads := startTestWatcher(t, dir)
	require.Equal(t, 1, reg.Len())
	loadedAt := reg.LoadedAt()

	// Break the only document; the reload fails and the old set stays.
	writeDoc(t, dir, "wheatland.yaml", "{{{{")

	time.Sleep(2 * reloadDebounce)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, loadedAt, reg.LoadedAt(), "failed reload must not install anything")
	assert.Equal(t, int32(0), reloads.Load(), "callback only fires on success")

	_, ok := reg.System("wheatland")
	assert.True(t, ok)
}

func TestWatcherIgnoresNonYAML(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "wheatland.yaml", validDoc)

	reg, _, reloads := startTestWatcher(t, dir)
	loadedAt := reg.LoadedAt()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))

	time.Sleep(2 * reloadDebounce)
	assert.Equal(t, loadedAt, reg.LoadedAt())
	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcherRemovedFileDropsSystem(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "wheatland.yaml", validDoc)
	writeDoc(t, dir, "parkland.yaml", `id: parkland
name: Parkland Regional Library
vendor: atriuum
catalogUrl: https://parkland.example.org
branches:
  - id: parkland-yorkton
    name: Yorkton Public Library
    code: YORK
adapters:
  - protocol: atriuum
    baseUrl: https://parkland.example.org
`)

	reg, _, _ := startTestWatcher(t, dir)
	require.Equal(t, 2, reg.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "parkland.yaml")))

	assert.Eventually(t, func() bool {
		return reg.Len() == 1
	}, 5*time.Second, 50*time.Millisecond)

	_, ok := reg.System("parkland")
	assert.False(t, ok)
}
