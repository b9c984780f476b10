package catalog

import (
	"log"
	"time"

	"orderserver/normalization"
)

// IndexedEntry позиция каталога с построенным множеством поисковых
// ключевых слов
type IndexedEntry struct {
	Entry    Entry
	Keywords map[string]bool
}

// Index поисковый индекс по снимку каталога. После построения только
// читается; перестроение создает новый Index целиком. Частично
// построенный индекс никогда не публикуется.
type Index struct {
	entries  []IndexedEntry
	snapshot *Snapshot
	builtAt  time.Time
}

// BuildIndex строит индекс ключевых слов по снимку каталога.
// Для каждой позиции: полное нормализованное название, токены длины >= 2
// и их основы, категория, единица измерения, идентификатор и варианты
// написания из таблицы алиасов, чей ключ входит в название подстрокой.
func BuildIndex(snapshot *Snapshot, aliases AliasTable) *Index {
	started := time.Now()
	entries := make([]IndexedEntry, 0, len(snapshot.Entries))

	for _, entry := range snapshot.Entries {
		keywords := make(map[string]bool)

		normalizedName := normalization.Normalize(entry.Name)
		for _, kw := range normalization.ExtractKeywords(entry.Name) {
			keywords[kw] = true
		}
		if c := normalization.Normalize(entry.Category); c != "" {
			keywords[c] = true
		}
		if u := normalization.Normalize(entry.Unit); u != "" {
			keywords[u] = true
		}
		if id := normalization.Normalize(entry.ID); id != "" {
			keywords[id] = true
		}
		for _, variant := range aliases.VariantsFor(normalizedName) {
			if v := normalization.Normalize(variant); v != "" {
				keywords[v] = true
			}
		}

		entries = append(entries, IndexedEntry{Entry: entry, Keywords: keywords})
	}

	log.Printf("[CatalogIndex] Built index for %d entries in %v", len(entries), time.Since(started))

	return &Index{
		entries:  entries,
		snapshot: snapshot,
		builtAt:  time.Now(),
	}
}

// Entries возвращает проиндексированные позиции
func (idx *Index) Entries() []IndexedEntry {
	return idx.entries
}

// Snapshot возвращает снимок каталога, по которому построен индекс
func (idx *Index) Snapshot() *Snapshot {
	return idx.snapshot
}

// Size возвращает количество позиций в индексе
func (idx *Index) Size() int {
	return len(idx.entries)
}

// HasKeyword проверяет, известно ли индексу ключевое слово.
// Используется сегментатором для защиты от разбора "<товар> orders ..."
func (idx *Index) HasKeyword(keyword string) bool {
	kw := normalization.Normalize(keyword)
	if kw == "" {
		return false
	}
	for i := range idx.entries {
		if idx.entries[i].Keywords[kw] {
			return true
		}
	}
	return false
}
