package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"orderserver/catalog"
	"orderserver/customer"
)

// Ошибки уровня хранилища
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("catalog item not found")
	ErrAlreadyReversed = errors.New("order already reversed")
	ErrStockExhausted  = errors.New("stock exhausted")
)

// OrderLine одна позиция сохраненного заказа
type OrderLine struct {
	ItemID   string  `json:"item_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order сохраненный заказ
type Order struct {
	ID         int64       `json:"id"`
	CustomerID string      `json:"customer_id"`
	Total      float64     `json:"total"`
	Payment    string      `json:"payment"`
	Auto       bool        `json:"auto"`
	Reversed   bool        `json:"reversed"`
	Utterance  string      `json:"utterance,omitempty"`
	Items      []OrderLine `json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
}

// GetCatalog возвращает все позиции каталога
func (db *DB) GetCatalog(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, unit, price, cost, stock, category FROM catalog_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Unit, &e.Price, &e.Cost, &e.Stock, &e.Category); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceCatalog атомарно заменяет каталог новым набором позиций
func (db *DB) ReplaceCatalog(ctx context.Context, entries []catalog.Entry) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
		for _, e := range entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO catalog_items (id, name, unit, price, cost, stock, category)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.Name, e.Unit, e.Price, e.Cost, e.Stock, e.Category)
			if err != nil {
				return fmt.Errorf("failed to insert catalog entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// UpdateStock выставляет остаток одной позиции каталога
func (db *DB) UpdateStock(ctx context.Context, itemID string, newQty int) error {
	if newQty < 0 {
		return fmt.Errorf("stock must not be negative, got %d", newQty)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE catalog_items SET stock = ? WHERE id = ?`, newQty, itemID)
	if err != nil {
		return fmt.Errorf("failed to update stock for %s: %w", itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stock update for %s: %w", itemID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return nil
}

// GetCustomers возвращает всех клиентов в виде профилей
func (db *DB) GetCustomers(ctx context.Context) ([]*customer.Profile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, phone, address FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var profiles []*customer.Profile
	for rows.Next() {
		var id, name, phone, address string
		if err := rows.Scan(&id, &name, &phone, &address); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		profile := customer.NewProfile(id, name)
		profile.Phone = phone
		profile.Address = address
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// UpsertCustomer добавляет или обновляет клиента
func (db *DB) UpsertCustomer(ctx context.Context, id, name, phone, address string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO customers (id, name, phone, address) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone, address = excluded.address`,
		id, name, phone, address)
	if err != nil {
		return fmt.Errorf("failed to upsert customer %s: %w", id, err)
	}
	return nil
}

// GetOrderHistory возвращает последние заказы для обучения профилей.
// Отмененные заказы историю не учат.
func (db *DB) GetOrderHistory(ctx context.Context, limit int) ([]customer.OrderRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, customer_id, payment FROM orders WHERE reversed = 0 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var records []customer.OrderRecord
	for rows.Next() {
		var id int64
		var customerID, payment string
		if err := rows.Scan(&id, &customerID, &payment); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		ids = append(ids, id)
		records = append(records, customer.OrderRecord{
			CustomerID: customerID,
			Paid:       payment == "paid",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		items, err := db.orderItems(ctx, id)
		if err != nil {
			return nil, err
		}
		records[i].Items = items
	}
	return records, nil
}

// orderItems возвращает позиции одного заказа
func (db *DB) orderItems(ctx context.Context, orderID int64) ([]customer.OrderItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT item_id, quantity FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []customer.OrderItem
	for rows.Next() {
		var item customer.OrderItem
		if err := rows.Scan(&item.ItemID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AppendOrder сохраняет заказ и списывает остатки в одной транзакции.
// Списание с защитой от ухода в минус: нехватка остатка откатывает
// весь заказ.
func (db *DB) AppendOrder(ctx context.Context, order *Order) (int64, error) {
	var orderID int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO orders (customer_id, total, payment, auto_approved, utterance)
			 VALUES (?, ?, ?, ?, ?)`,
			order.CustomerID, order.Total, order.Payment, boolToInt(order.Auto), order.Utterance)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		orderID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order id: %w", err)
		}

		for _, line := range order.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, item_id, quantity, price) VALUES (?, ?, ?, ?)`,
				orderID, line.ItemID, line.Quantity, line.Price); err != nil {
				return fmt.Errorf("failed to insert order item %s: %w", line.ItemID, err)
			}

			res, err := tx.ExecContext(ctx,
				`UPDATE catalog_items SET stock = stock - ? WHERE id = ? AND stock >= ?`,
				line.Quantity, line.ItemID, line.Quantity)
			if err != nil {
				return fmt.Errorf("failed to update stock for %s: %w", line.ItemID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to check stock update: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: item %s, requested %d", ErrStockExhausted, line.ItemID, line.Quantity)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// ReverseOrder отменяет заказ и возвращает остатки.
// Идемпотентность на уровне контракта: повторная отмена дает ошибку.
func (db *DB) ReverseOrder(ctx context.Context, orderID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var reversed int
		err := tx.QueryRowContext(ctx,
			`SELECT reversed FROM orders WHERE id = ?`, orderID).Scan(&reversed)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
		}
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		if reversed != 0 {
			return fmt.Errorf("%w: id %d", ErrAlreadyReversed, orderID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET reversed = 1 WHERE id = ?`, orderID); err != nil {
			return fmt.Errorf("failed to mark order reversed: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT item_id, quantity FROM order_items WHERE order_id = ?`, orderID)
		if err != nil {
			return fmt.Errorf("failed to query order items: %w", err)
		}
		type restore struct {
			itemID string
			qty    int
		}
		var restores []restore
		for rows.Next() {
			var r restore
			if err := rows.Scan(&r.itemID, &r.qty); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan order item: %w", err)
			}
			restores = append(restores, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, r := range restores {
			if _, err := tx.ExecContext(ctx,
				`UPDATE catalog_items SET stock = stock + ? WHERE id = ?`, r.qty, r.itemID); err != nil {
				return fmt.Errorf("failed to restore stock for %s: %w", r.itemID, err)
			}
		}
		return nil
	})
}

// GetOrder возвращает сохраненный заказ с позициями
func (db *DB) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	order := &Order{ID: orderID}
	var auto, reversed int
	err := db.conn.QueryRowContext(ctx,
		`SELECT customer_id, total, payment, auto_approved, reversed, utterance, created_at
		 FROM orders WHERE id = ?`, orderID).
		Scan(&order.CustomerID, &order.Total, &order.Payment, &auto, &reversed, &order.Utterance, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	order.Auto = auto != 0
	order.Reversed = reversed != 0

	rows, err := db.conn.QueryContext(ctx,
		`SELECT item_id, quantity, price FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ItemID, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, line)
	}
	return order, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
