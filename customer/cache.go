package customer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Store контракт коллаборатора-хранилища клиентов и истории заказов
type Store interface {
	GetCustomers(ctx context.Context) ([]*Profile, error)
	GetOrderHistory(ctx context.Context, limit int) ([]OrderRecord, error)
}

// HistoryLimit сколько последних заказов прогонять через обучение
const HistoryLimit = 500

// Cache кэш снимков реестра клиентов с TTL. Как и кэш каталога:
// построение нового снимка вне блокировки, атомарная замена ссылки,
// последний удачный снимок при отказе хранилища.
type Cache struct {
	store Store
	ttl   time.Duration

	mu       sync.RWMutex
	snapshot *Snapshot
	loadedAt time.Time

	reloadMu sync.Mutex
}

// NewCache создает кэш реестра клиентов
func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Current возвращает актуальный снимок реестра, перезагружая его при
// истекшем TTL. При отказе хранилища отдается последний удачный снимок.
func (c *Cache) Current(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snapshot := c.snapshot
	fresh := snapshot != nil && time.Since(c.loadedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return snapshot, nil
	}

	if err := c.Reload(ctx); err != nil {
		if snapshot != nil {
			log.Printf("[CustomerCache] Reload failed, serving last good snapshot: %v", err)
			return snapshot, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, nil
}

// Reload принудительно перезагружает реестр и переобучает историю
func (c *Cache) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	profiles, err := c.store.GetCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch customers: %w", err)
	}

	snapshot := &Snapshot{Profiles: profiles}

	// История не критична: без нее профили просто без статистики
	orders, err := c.store.GetOrderHistory(ctx, HistoryLimit)
	if err != nil {
		log.Printf("[CustomerCache] Order history unavailable, profiles without stats: %v", err)
	} else {
		LearnHistory(snapshot, orders)
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.loadedAt = time.Now()
	c.mu.Unlock()

	log.Printf("[CustomerCache] Snapshot replaced: %d profiles", len(profiles))
	return nil
}
