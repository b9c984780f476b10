package store

import (
	"context"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"

	"orderserver/catalog"
)

// EnsureDemoData инициализирует базу демо-данными, чтобы интерпретатор
// сразу имел каталог и пару клиентов. Выполняется только если каталог
// еще пуст.
func (db *DB) EnsureDemoData(ctx context.Context) error {
	var itemCount int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items`).Scan(&itemCount); err != nil {
		return fmt.Errorf("failed to count catalog items: %w", err)
	}
	if itemCount > 0 {
		// Уже есть реальные данные, оставляем как есть
		return nil
	}

	demoCatalog := []catalog.Entry{
		{ID: "it-1", Name: "Ice Tube", Unit: "bag", Price: 60, Cost: 35, Stock: 40, Category: "ice"},
		{ID: "it-2", Name: "Ice Crushed", Unit: "bag", Price: 45, Cost: 25, Stock: 30, Category: "ice"},
		{ID: "ck-1", Name: "Coke Can", Unit: "can", Price: 15, Cost: 10, Stock: 120, Category: "beverage"},
		{ID: "ck-2", Name: "Coke Bottle", Unit: "bottle", Price: 25, Cost: 17, Stock: 60, Category: "beverage"},
		{ID: "dw-1", Name: "Drinking Water", Unit: "bottle", Price: 10, Cost: 6, Stock: 200, Category: "beverage"},
		{ID: "soda-1", Name: "Soda Water", Unit: "bottle", Price: 12, Cost: 8, Stock: 80, Category: "beverage"},
		{ID: "rs-1", Name: "Rice Sack", Unit: "sack", Price: 250, Cost: 200, Stock: 15, Category: "grocery"},
		{ID: "sg-1", Name: "Sugar Bag", Unit: "kg", Price: 28, Cost: 22, Stock: 50, Category: "grocery"},
		{ID: "eg-1", Name: "Egg Tray", Unit: "tray", Price: 95, Cost: 78, Stock: 25, Category: "grocery"},
		{ID: "go-1", Name: "Gas Oil", Unit: "liter", Price: 32, Cost: 28, Stock: 300, Category: "fuel"},
	}
	if err := db.ReplaceCatalog(ctx, demoCatalog); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	// Имена фиксированные, чтобы резолвер имел что находить; контакты
	// генерируются
	gofakeit.Seed(0)
	demoCustomers := []struct {
		id   string
		name string
	}{
		{"c-1", "Mr. Somchai"},
		{"c-2", "Khun Malee"},
		{"c-3", "Mrs. Pranee"},
		{"c-4", "Khun Anan"},
		{"c-5", "Mr. Wichai"},
	}
	for _, c := range demoCustomers {
		if err := db.UpsertCustomer(ctx, c.id, c.name, gofakeit.Phone(), gofakeit.Address().Address); err != nil {
			return fmt.Errorf("failed to seed customer %s: %w", c.id, err)
		}
	}

	// Небольшая история, чтобы подстановка количеств работала из коробки
	demoOrders := []*Order{
		{CustomerID: "c-1", Total: 180, Payment: "paid", Auto: true,
			Items: []OrderLine{{ItemID: "it-1", Quantity: 3, Price: 60}}},
		{CustomerID: "c-1", Total: 180, Payment: "paid", Auto: true,
			Items: []OrderLine{{ItemID: "it-1", Quantity: 3, Price: 60}}},
		{CustomerID: "c-1", Total: 205, Payment: "paid", Auto: false,
			Items: []OrderLine{{ItemID: "it-1", Quantity: 3, Price: 60}, {ItemID: "ck-2", Quantity: 1, Price: 25}}},
		{CustomerID: "c-2", Total: 150, Payment: "unpaid", Auto: false,
			Items: []OrderLine{{ItemID: "ck-1", Quantity: 10, Price: 15}}},
	}
	for _, order := range demoOrders {
		if _, err := db.AppendOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to seed order history: %w", err)
		}
	}

	log.Printf("[OrderDB] Seeded demo data: %d items, %d customers, %d orders",
		len(demoCatalog), len(demoCustomers), len(demoOrders))
	return nil
}
