package benchmarks

import (
	"fmt"
	"testing"

	"github.com/randalmurphal/procgraph/pkg/procgraph/store"
)

// definition is a representative stored process payload.
var definition = []byte(`{"id":"fahrenheit_to_celsius","parameters":[{"name":"f","schema":{"type":"number"}}],"process_graph":{"subtract1":{"process_id":"subtract","arguments":{"x":{"from_parameter":"f"},"y":32}},"divide1":{"process_id":"divide","arguments":{"x":{"from_node":"subtract1"},"y":1.8},"result":true}}}`)

// BenchmarkMemoryStore_Save measures in-memory writes.
func BenchmarkMemoryStore_Save(b *testing.B) {
	s := store.NewMemoryStore()
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Save(fmt.Sprintf("proc-%d", i%100), definition); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryStore_Load measures in-memory reads.
func BenchmarkMemoryStore_Load(b *testing.B) {
	s := store.NewMemoryStore()
	defer s.Close()
	if err := s.Save("proc", definition); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Load("proc"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSQLiteStore_Save measures SQLite upserts.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Save(fmt.Sprintf("proc-%d", i%100), definition); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSQLiteStore_Load measures SQLite reads.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	if err := s.Save("proc", definition); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Load("proc"); err != nil {
			b.Fatal(err)
		}
	}
}
