package benchmarks

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/botevent/pkg/botevent/failure"
)

func failureRecord(i int) failure.Record {
	return failure.Record{
		EventID:    fmt.Sprintf("event-%d", i),
		EventKey:   "botevent.contact_message",
		ListenerID: fmt.Sprintf("listener-%d", i%10),
		Error:      "listener failed: downstream unavailable",
	}
}

func createSQLiteStore(b *testing.B) *failure.SQLiteStore {
	b.Helper()
	store, err := failure.NewSQLiteStore(filepath.Join(b.TempDir(), "failures.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = store.Close() })
	return store
}

// BenchmarkMemoryStore_Save measures in-memory failure recording.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := failure.NewMemoryStore(1000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, failureRecord(i))
	}
}

// BenchmarkSQLiteStore_Save measures SQLite failure recording.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store := createSQLiteStore(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, failureRecord(i))
	}
}

// BenchmarkSQLiteStore_List measures reading the newest failures of one listener.
func BenchmarkSQLiteStore_List(b *testing.B) {
	store := createSQLiteStore(b)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_ = store.Save(ctx, failureRecord(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.List(ctx, "listener-3", 20)
	}
}
