package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"orderserver/catalog"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestCatalog(t *testing.T, db *DB) {
	t.Helper()
	entries := []catalog.Entry{
		{ID: "it-1", Name: "Ice Tube", Unit: "bag", Price: 60, Stock: 10},
		{ID: "ck-1", Name: "Coke Can", Unit: "can", Price: 15, Stock: 48},
	}
	if err := db.ReplaceCatalog(context.Background(), entries); err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}
}

func TestCatalogRoundtrip(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)

	entries, err := db.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].Name != "Ice Tube" || entries[1].Price != 60 || entries[1].Stock != 10 {
		t.Errorf("unexpected entry: %+v", entries[1])
	}
}

func TestUpdateStock(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)
	ctx := context.Background()

	if err := db.UpdateStock(ctx, "it-1", 75); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}

	entries, err := db.GetCatalog(ctx)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 75 {
			t.Errorf("Stock = %d, want 75", e.Stock)
		}
	}

	if err := db.UpdateStock(ctx, "missing", 5); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("UpdateStock on missing item = %v, want ErrItemNotFound", err)
	}
	if err := db.UpdateStock(ctx, "it-1", -1); err == nil {
		t.Error("negative stock must be rejected")
	}
}

func TestCustomerProfiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertCustomer(ctx, "c-1", "Mr. Somchai", "081-000-0000", "12 Market Rd"); err != nil {
		t.Fatalf("UpsertCustomer: %v", err)
	}
	// Повторная запись обновляет, а не дублирует
	if err := db.UpsertCustomer(ctx, "c-1", "Mr. Somchai", "081-111-1111", "12 Market Rd"); err != nil {
		t.Fatalf("UpsertCustomer update: %v", err)
	}

	profiles, err := db.GetCustomers(ctx)
	if err != nil {
		t.Fatalf("GetCustomers: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	if profiles[0].NormalizedName != "mr somchai" {
		t.Errorf("NormalizedName = %q", profiles[0].NormalizedName)
	}
	if profiles[0].Phone != "081-111-1111" {
		t.Errorf("Phone = %q, want updated value", profiles[0].Phone)
	}
}

func TestAppendOrderUpdatesStock(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)
	ctx := context.Background()

	id, err := db.AppendOrder(ctx, &Order{
		CustomerID: "c-1",
		Total:      120,
		Payment:    "paid",
		Auto:       true,
		Items:      []OrderLine{{ItemID: "it-1", Quantity: 2, Price: 60}},
	})
	if err != nil {
		t.Fatalf("AppendOrder: %v", err)
	}
	if id == 0 {
		t.Fatal("order id must be assigned")
	}

	entries, _ := db.GetCatalog(ctx)
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 8 {
			t.Errorf("stock = %d, want 8 after deduction", e.Stock)
		}
	}
}

func TestAppendOrderStockExhaustedRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)
	ctx := context.Background()

	_, err := db.AppendOrder(ctx, &Order{
		CustomerID: "c-1",
		Payment:    "unknown",
		Items: []OrderLine{
			{ItemID: "ck-1", Quantity: 5, Price: 15},
			{ItemID: "it-1", Quantity: 50, Price: 60},
		},
	})
	if !errors.Is(err, ErrStockExhausted) {
		t.Fatalf("err = %v, want stock exhausted", err)
	}

	// Весь заказ откатился, включая первую позицию
	entries, _ := db.GetCatalog(ctx)
	for _, e := range entries {
		if e.ID == "ck-1" && e.Stock != 48 {
			t.Errorf("ck-1 stock = %d, rollback must restore 48", e.Stock)
		}
	}
	if records, _ := db.GetOrderHistory(ctx, 10); len(records) != 0 {
		t.Errorf("got %d history records, want none after rollback", len(records))
	}
}

func TestReverseOrder(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)
	ctx := context.Background()

	id, err := db.AppendOrder(ctx, &Order{
		CustomerID: "c-1",
		Payment:    "paid",
		Items:      []OrderLine{{ItemID: "it-1", Quantity: 4, Price: 60}},
	})
	if err != nil {
		t.Fatalf("AppendOrder: %v", err)
	}

	if err := db.ReverseOrder(ctx, id); err != nil {
		t.Fatalf("ReverseOrder: %v", err)
	}

	entries, _ := db.GetCatalog(ctx)
	for _, e := range entries {
		if e.ID == "it-1" && e.Stock != 10 {
			t.Errorf("stock = %d, reversal must restore 10", e.Stock)
		}
	}

	if err := db.ReverseOrder(ctx, id); !errors.Is(err, ErrAlreadyReversed) {
		t.Errorf("second reversal err = %v, want already reversed", err)
	}
	if err := db.ReverseOrder(ctx, 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order err = %v, want not found", err)
	}

	order, err := db.GetOrder(ctx, id)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if !order.Reversed {
		t.Error("order must be marked reversed")
	}
}

func TestOrderHistorySkipsReversed(t *testing.T) {
	db := newTestDB(t)
	seedTestCatalog(t, db)
	ctx := context.Background()

	first, _ := db.AppendOrder(ctx, &Order{
		CustomerID: "c-1", Payment: "paid",
		Items: []OrderLine{{ItemID: "it-1", Quantity: 2, Price: 60}},
	})
	db.AppendOrder(ctx, &Order{
		CustomerID: "c-2", Payment: "unpaid",
		Items: []OrderLine{{ItemID: "ck-1", Quantity: 3, Price: 15}},
	})
	if err := db.ReverseOrder(ctx, first); err != nil {
		t.Fatalf("ReverseOrder: %v", err)
	}

	records, err := db.GetOrderHistory(ctx, 10)
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.CustomerID != "c-2" || rec.Paid {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(rec.Items) != 1 || rec.Items[0].ItemID != "ck-1" || rec.Items[0].Quantity != 3 {
		t.Errorf("unexpected items: %+v", rec.Items)
	}
}

func TestEnsureDemoDataIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.EnsureDemoData(ctx); err != nil {
		t.Fatalf("EnsureDemoData: %v", err)
	}
	entries, _ := db.GetCatalog(ctx)
	if len(entries) == 0 {
		t.Fatal("seed must populate the catalog")
	}
	stockBefore := entries[0].Stock

	// Повторный запуск не трогает существующие данные
	if err := db.EnsureDemoData(ctx); err != nil {
		t.Fatalf("EnsureDemoData second run: %v", err)
	}
	entries, _ = db.GetCatalog(ctx)
	if entries[0].Stock != stockBefore {
		t.Error("second seed run must not change data")
	}

	profiles, _ := db.GetCustomers(ctx)
	if len(profiles) == 0 {
		t.Fatal("seed must populate customers")
	}
	records, _ := db.GetOrderHistory(ctx, 50)
	if len(records) == 0 {
		t.Fatal("seed must populate order history")
	}
}
