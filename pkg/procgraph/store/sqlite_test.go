package store_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/randalmurphal/procgraph/pkg/procgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// First store instance
	store1, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)

	require.NoError(t, store1.Save("ndvi_pipeline", []byte("persistent")))
	require.NoError(t, store1.Close())

	// Second store instance (reopening the database)
	store2, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	data, err := store2.Load("ndvi_pipeline")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), data)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_DoubleClose(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save("proc", []byte("data"))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Load("proc")
		}()
	}
	wg.Wait()

	data, err := s.Load("proc")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}
