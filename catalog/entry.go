package catalog

import "time"

// Entry одна позиция каталога: продаваемый/складируемый товар
type Entry struct {
	ID       string  `json:"id"`        // Стабильный идентификатор
	Name     string  `json:"name"`      // Каноническое название
	Unit     string  `json:"unit"`      // Единица измерения (bag, bottle, ...)
	Price    float64 `json:"price"`     // Цена за единицу
	Cost     float64 `json:"cost"`      // Себестоимость за единицу
	Stock    int     `json:"stock"`     // Остаток на складе
	Category string  `json:"category"`  // Категория товара
}

// Snapshot неизменяемый снимок каталога. Обновляется только целиком:
// построение нового снимка и атомарная замена ссылки, никогда не
// мутация полей на месте.
type Snapshot struct {
	Entries  []Entry
	LoadedAt time.Time
}

// EntryByID ищет позицию в снимке по идентификатору
func (s *Snapshot) EntryByID(id string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
