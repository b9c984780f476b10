package customer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRegistry() *Snapshot {
	return &Snapshot{
		Profiles: []*Profile{
			NewProfile("c-1", "Mr. Somchai"),
			NewProfile("c-2", "Mrs. Malee"),
			NewProfile("c-3", "Khun Anan"),
		},
	}
}

func TestResolveExactAndTypo(t *testing.T) {
	resolver := NewResolver(DefaultAcceptThreshold)
	registry := testRegistry()

	tests := []struct {
		phrase string
		wantID string
	}{
		{"Mr. Somchai", "c-1"},
		{"Somchai", "c-1"}, // Без титула: профиль с титулом все равно находится
		{"somchay", "c-1"}, // Опечатка транскрипции
		{"Malee", "c-2"},
	}

	for _, tt := range tests {
		got := resolver.Resolve(tt.phrase, registry)
		if got == nil {
			t.Errorf("Resolve(%q) = nil, want %s", tt.phrase, tt.wantID)
			continue
		}
		if got.ID != tt.wantID {
			t.Errorf("Resolve(%q) = %s, want %s", tt.phrase, got.ID, tt.wantID)
		}
	}
}

func TestResolveBelowThresholdReturnsNil(t *testing.T) {
	resolver := NewResolver(DefaultAcceptThreshold)

	if got := resolver.Resolve("completely unrelated", testRegistry()); got != nil {
		t.Errorf("Resolve below threshold = %v, want nil", got)
	}
	if got := resolver.Resolve("", testRegistry()); got != nil {
		t.Errorf("Resolve(\"\") = %v, want nil", got)
	}
}

func TestUnspecifiedSentinel(t *testing.T) {
	sentinel := Unspecified()
	if !sentinel.IsUnspecified() {
		t.Error("Unspecified().IsUnspecified() = false")
	}

	var nilProfile *Profile
	if !nilProfile.IsUnspecified() {
		t.Error("nil profile must count as unspecified")
	}

	if NewProfile("c-1", "Mr. Somchai").IsUnspecified() {
		t.Error("real profile reported as unspecified")
	}
}

func TestLearnHistory(t *testing.T) {
	registry := testRegistry()
	orders := []OrderRecord{
		{CustomerID: "c-1", Paid: true, Items: []OrderItem{{ItemID: "it-1", Quantity: 2}}},
		{CustomerID: "c-1", Paid: true, Items: []OrderItem{{ItemID: "it-1", Quantity: 4}}},
		{CustomerID: "c-1", Paid: true, Items: []OrderItem{{ItemID: "wt-1", Quantity: 1}}},
		{CustomerID: "c-2", Paid: false, Items: []OrderItem{{ItemID: "it-1", Quantity: 1}}},
		{CustomerID: "ghost", Paid: true, Items: []OrderItem{{ItemID: "it-1", Quantity: 9}}},
	}

	LearnHistory(registry, orders)

	somchai := registry.Profiles[0]
	if !somchai.HasOrdered("it-1") {
		t.Fatal("somchai history missing it-1")
	}
	if qty, ok := somchai.SuggestedQuantity("it-1"); !ok || qty != 3 {
		t.Errorf("SuggestedQuantity(it-1) = %d, %v, want 3, true", qty, ok)
	}
	if !somchai.ReliablePayer {
		t.Error("somchai with 3/3 paid orders must be a reliable payer")
	}

	malee := registry.Profiles[1]
	if malee.ReliablePayer {
		t.Error("malee with a single unpaid order must not be a reliable payer")
	}
	if _, ok := malee.SuggestedQuantity("wt-1"); ok {
		t.Error("SuggestedQuantity for never-ordered item must be false")
	}
}

type fakeCustomerStore struct {
	profiles []*Profile
	orders   []OrderRecord
	err      error
}

func (f *fakeCustomerStore) GetCustomers(ctx context.Context) ([]*Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

func (f *fakeCustomerStore) GetOrderHistory(ctx context.Context, limit int) ([]OrderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func TestCustomerCacheServesLastGood(t *testing.T) {
	store := &fakeCustomerStore{
		profiles: testRegistry().Profiles,
		orders:   []OrderRecord{{CustomerID: "c-1", Paid: true, Items: []OrderItem{{ItemID: "it-1", Quantity: 2}}}},
	}
	cache := NewCache(store, time.Hour)

	snapshot, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if len(snapshot.Profiles) != 3 {
		t.Errorf("snapshot profiles = %d, want 3", len(snapshot.Profiles))
	}
	if !snapshot.Profiles[0].HasOrdered("it-1") {
		t.Error("history not learned into the snapshot")
	}

	store.err = errors.New("transient")
	if err := cache.Reload(context.Background()); err == nil {
		t.Fatal("Reload() with failing store must return error")
	}

	again, err := cache.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() must serve last good snapshot, got: %v", err)
	}
	if again != snapshot {
		t.Error("expected the same last good snapshot")
	}
}
