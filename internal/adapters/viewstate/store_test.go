package viewstate_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hexmap/internal/adapters/viewstate"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.ViewStateStore = (*viewstate.Store)(nil)
}

func TestStore_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := viewstate.NewStore(filepath.Join(tmpDir, "view_state.json"))
	require.NoError(t, err)

	got, err := store.Load("1-1")
	require.NoError(t, err)
	assert.Nil(t, got, "unknown map has no saved state")

	require.NoError(t, store.Save("1-1", []string{"1-1-3", "1-1", "1-1-3", "1-1-0"}))

	got, err = store.Load("1-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1-1", "1-1-0", "1-1-3"}, got)

	// Returned slices are copies.
	got[0] = "mutated"
	again, err := store.Load("1-1")
	require.NoError(t, err)
	assert.Equal(t, "1-1", again[0])
}

func TestStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "view_state.json")

	store, err := viewstate.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("1-1", []string{"1-1"}))
	require.NoError(t, store.Save("2-1", []string{"2-1", "2-1-4"}))

	reopened, err := viewstate.NewStore(path)
	require.NoError(t, err)

	got, err := reopened.Load("2-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2-1", "2-1-4"}, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.FilePerm), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file left behind: %s", e.Name())
	}
}

func TestStore_SaveEmptyRemovesMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view_state.json")
	store, err := viewstate.NewStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save("1-1", []string{"1-1"}))
	require.NoError(t, store.Save("1-1", nil))

	reopened, err := viewstate.NewStore(path)
	require.NoError(t, err)
	got, err := reopened.Load("1-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := viewstate.NewStore(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrViewStateReadFailed)
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view_state.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := viewstate.NewStore(path)
	require.NoError(t, err)
	got, err := store.Load("1-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ConcurrentSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view_state.json")
	store, err := viewstate.NewStore(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			key := domain.RootCoord(i+1, 1).String()
			assert.NoError(t, store.Save(key, []string{key}))
		})
	}
	wg.Wait()

	reopened, err := viewstate.NewStore(path)
	require.NoError(t, err)
	for i := range 8 {
		key := domain.RootCoord(i+1, 1).String()
		got, err := reopened.Load(key)
		require.NoError(t, err)
		assert.Equal(t, []string{key}, got)
	}
}
