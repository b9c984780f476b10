package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	entries []Entry
	err     error
	calls   int
}

func (f *fakeStore) GetCatalog(ctx context.Context) ([]Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func TestCacheReloadAndTTL(t *testing.T) {
	store := &fakeStore{entries: testSnapshot().Entries}
	cache := NewCache(store, DefaultAliases(), time.Hour)

	index, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if index.Size() != 5 {
		t.Errorf("index size = %d, want 5", index.Size())
	}

	// Повторный вызов в пределах TTL не ходит в хранилище
	if _, err := cache.Current(context.Background()); err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if store.calls != 1 {
		t.Errorf("store called %d times, want 1", store.calls)
	}
}

func TestCacheServesLastGoodOnFailure(t *testing.T) {
	store := &fakeStore{entries: testSnapshot().Entries}
	cache := NewCache(store, DefaultAliases(), 0) // TTL 0: каждый вызов пытается перезагрузить

	first, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}

	store.err = errors.New("rate limited")
	second, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() must degrade to last good snapshot, got error: %v", err)
	}
	if second != first {
		t.Error("expected the last good index to be served on store failure")
	}
}

func TestCacheFailsWithoutAnySnapshot(t *testing.T) {
	store := &fakeStore{err: errors.New("unavailable")}
	cache := NewCache(store, DefaultAliases(), time.Hour)

	if _, err := cache.Current(context.Background()); err == nil {
		t.Fatal("Current() without any good snapshot must return error")
	}
}

func TestCacheAtomicSwap(t *testing.T) {
	store := &fakeStore{entries: testSnapshot().Entries}
	cache := NewCache(store, DefaultAliases(), time.Hour)

	oldIndex, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}

	store.entries = []Entry{{ID: "new-1", Name: "New Item", Price: 5, Stock: 1}}
	if err := cache.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	newIndex, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}

	// Старая ссылка остается целостной, новая видит только новый снимок
	if oldIndex.Size() != 5 {
		t.Errorf("old index mutated: size = %d", oldIndex.Size())
	}
	if newIndex.Size() != 1 {
		t.Errorf("new index size = %d, want 1", newIndex.Size())
	}
	if _, ok := newIndex.Snapshot().EntryByID("it-1"); ok {
		t.Error("new snapshot leaked an entry from the old snapshot")
	}
}
