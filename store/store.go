package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB обертка для работы с базой заказов: каталог, клиенты, история
type DB struct {
	conn             *sql.DB
	tableCreateMutex sync.Mutex // Мьютекс для создания таблиц (защита от race condition)
}

// NewDB создает подключение к базе заказов
func NewDB(dbPath string) (*DB, error) {
	config := DBConfig{}

	// Для in-memory SQLite требуется ровно одно соединение, иначе каждое
	// новое соединение получает пустую БД без таблиц
	if isInMemoryDB(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	return NewDBWithConfig(dbPath, config)
}

// isInMemoryDB определяет, что путь относится к in-memory SQLite
func isInMemoryDB(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	if strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory") {
		return true
	}
	return false
}

// NewDBWithConfig создает подключение к базе заказов с конфигурацией
func NewDBWithConfig(dbPath string, config DBConfig) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open order database: %w", err)
	}

	// SQLite плохо справляется с большим количеством одновременных
	// соединений, поэтому пул ограничен
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		conn.SetMaxOpenConns(10)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(3)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping order database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL позволяет множественным читателям работать одновременно
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Printf("[OrderDB] Warning: Failed to enable WAL mode: %v", err)
	}

	db := &DB{conn: conn}

	if err := db.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize order schema: %w", err)
	}

	return db, nil
}

// Close закрывает подключение к базе заказов
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping проверяет подключение к базе данных
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// GetDB возвращает указатель на sql.DB для прямого доступа
func (db *DB) GetDB() *sql.DB {
	return db.conn
}

// InitSchema создает таблицы базы заказов, если их еще нет
func (db *DB) InitSchema() error {
	db.tableCreateMutex.Lock()
	defer db.tableCreateMutex.Unlock()

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS catalog_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			unit TEXT DEFAULT '',
			price REAL NOT NULL,
			cost REAL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			category TEXT DEFAULT '',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT DEFAULT '',
			address TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id TEXT NOT NULL,
			total REAL NOT NULL DEFAULT 0,
			payment TEXT NOT NULL DEFAULT 'unknown',
			auto_approved INTEGER NOT NULL DEFAULT 0,
			reversed INTEGER NOT NULL DEFAULT 0,
			utterance TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	}

	for _, schema := range schemas {
		if _, err := db.conn.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("[OrderDB] Schema initialized")
	return nil
}

// withTx выполняет fn в транзакции с откатом при ошибке
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[OrderDB] Rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
