package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistry_RegisterAndGet tests basic registration and lookup.
func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New()
	r.Register("", Spec{ID: "add", Summary: "Addition of two numbers"})

	spec, ok := r.Get(DefaultNamespace, "add")
	require.True(t, ok)
	assert.Equal(t, "add", spec.ID)
	assert.Equal(t, "Addition of two numbers", spec.Summary)

	// Empty namespace and the default namespace are the same key.
	spec, ok = r.Get("", "add")
	require.True(t, ok)
	assert.Equal(t, "add", spec.ID)

	_, ok = r.Get("", "subtract")
	assert.False(t, ok)
}

// TestRegistry_NamespaceIsolation tests that the same id can live in
// different namespaces without collision.
func TestRegistry_NamespaceIsolation(t *testing.T) {
	r := New()
	r.Register("", Spec{ID: "ndvi", Summary: "standard"})
	r.Register("vito", Spec{ID: "ndvi", Summary: "vendor-specific"})

	spec, ok := r.Get("", "ndvi")
	require.True(t, ok)
	assert.Equal(t, "standard", spec.Summary)

	spec, ok = r.Get("vito", "ndvi")
	require.True(t, ok)
	assert.Equal(t, "vendor-specific", spec.Summary)

	assert.Equal(t, 2, r.Len())
}

// TestRegistry_RegisterOverwrites tests that re-registering an id
// replaces the stored spec.
func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := New()
	r.Register("", Spec{ID: "add", Summary: "old"})
	r.Register("", Spec{ID: "add", Summary: "new"})

	spec, _ := r.Get("", "add")
	assert.Equal(t, "new", spec.Summary)
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_RegisterAll tests bulk registration.
func TestRegistry_RegisterAll(t *testing.T) {
	r := New()
	r.RegisterAll("", []Spec{
		{ID: "add"},
		{ID: "subtract"},
		{ID: "multiply"},
	})

	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Has("", "subtract"))
	assert.ElementsMatch(t, []string{"add", "subtract", "multiply"}, r.IDs(""))
}

// TestRegistry_IDs tests per-namespace listing.
func TestRegistry_IDs(t *testing.T) {
	r := New()
	r.Register("", Spec{ID: "add"})
	r.Register("custom", Spec{ID: "my_process"})

	assert.ElementsMatch(t, []string{"add"}, r.IDs(""))
	assert.ElementsMatch(t, []string{"my_process"}, r.IDs("custom"))
	assert.Empty(t, r.IDs("other"))
}

// TestRegistry_Range tests snapshot iteration and early stop.
func TestRegistry_Range(t *testing.T) {
	r := New()
	r.RegisterAll("", []Spec{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	seen := make(map[string]bool)
	r.Range(func(namespace string, spec Spec) bool {
		assert.Equal(t, DefaultNamespace, namespace)
		seen[spec.ID] = true
		return true
	})
	assert.Len(t, seen, 3)

	count := 0
	r.Range(func(string, Spec) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

// TestRegistry_ConcurrentAccess tests that mixed readers and writers do
// not race.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("", Spec{ID: "add"})
		}()
		go func() {
			defer wg.Done()
			r.Has("", "add")
			r.IDs("")
			r.Range(func(string, Spec) bool { return true })
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
}
