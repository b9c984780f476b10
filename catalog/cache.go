package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Store контракт коллаборатора-хранилища каталога. Реализация может
// падать с транзиентными ошибками - кэш продолжает отдавать последний
// удачный снимок.
type Store interface {
	GetCatalog(ctx context.Context) ([]Entry, error)
}

// Cache кэш снимков каталога с TTL. Перезагрузка выполняется как
// построение нового индекса вне блокировки и атомарная замена ссылки,
// поэтому уже идущее сопоставление видит либо целиком старый, либо
// целиком новый снимок, но никогда их смесь.
type Cache struct {
	store   Store
	aliases AliasTable
	ttl     time.Duration

	mu       sync.RWMutex
	index    *Index
	loadedAt time.Time

	reloadMu sync.Mutex // Сериализует перезагрузки между собой
}

// NewCache создает кэш каталога поверх хранилища
func NewCache(store Store, aliases AliasTable, ttl time.Duration) *Cache {
	return &Cache{store: store, aliases: aliases, ttl: ttl}
}

// Current возвращает актуальный индекс, перезагружая каталог при
// истекшем TTL. При ошибке хранилища возвращается последний удачный
// индекс с предупреждением в лог; ошибка наружу уходит только если
// удачного снимка еще не было.
func (c *Cache) Current(ctx context.Context) (*Index, error) {
	c.mu.RLock()
	index := c.index
	fresh := index != nil && time.Since(c.loadedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return index, nil
	}

	if err := c.Reload(ctx); err != nil {
		if index != nil {
			log.Printf("[CatalogCache] Reload failed, serving last good snapshot: %v", err)
			return index, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index, nil
}

// Reload принудительно перезагружает каталог из хранилища.
// Идемпотентна: при гонке перезагрузок побеждает последняя запись.
func (c *Cache) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	entries, err := c.store.GetCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	snapshot := &Snapshot{Entries: entries, LoadedAt: time.Now()}
	// Индекс строится полностью до публикации
	index := BuildIndex(snapshot, c.aliases)

	c.mu.Lock()
	c.index = index
	c.loadedAt = time.Now()
	c.mu.Unlock()

	log.Printf("[CatalogCache] Snapshot replaced: %d entries", len(entries))
	return nil
}

// LoadedAt возвращает время последней удачной загрузки
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
