package catalog

import (
	"sort"
	"strings"

	"orderserver/normalization"
)

// MatcherConfig настраиваемые параметры скоринга. Это параметры политики,
// а не константы алгоритма: калибруются отдельно от кода сопоставления.
type MatcherConfig struct {
	KeywordScore       float64 // Очки за каждое пересечение ключевых слов
	ContainmentScore   float64 // Бонус за вхождение названия/подсказки друг в друга
	ExactPriceScore    float64 // Бонус за точное совпадение цены
	NearPriceScore     float64 // Бонус за цену в пределах допуска
	PriceTolerance     float64 // Допуск цены для NearPriceScore (доля от цены)
	StockScore         float64 // Бонус, если остатка хватает на запрошенное количество
	HighStockBonus     float64 // Малый бонус за большой остаток (tie-breaker)
	VeryHighStockBonus float64 // Малый бонус за очень большой остаток (tie-breaker)
	HighStockLevel     int     // Порог "большого" остатка
	VeryHighStockLevel int     // Порог "очень большого" остатка
	AmbiguityMargin    float64 // Разрыв между топ-1 и топ-2, меньше которого матч неоднозначен
	MinScore           float64 // Минимальный балл: ниже - "не найдено", не "слабый матч"
	MaxCandidates      int     // Сколько кандидатов отдавать при неоднозначности
}

// DefaultMatcherConfig параметры скоринга по умолчанию
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		KeywordScore:       15,
		ContainmentScore:   20,
		ExactPriceScore:    100,
		NearPriceScore:     40,
		PriceTolerance:     0.15,
		StockScore:         10,
		HighStockBonus:     2,
		VeryHighStockBonus: 3,
		HighStockLevel:     20,
		VeryHighStockLevel: 100,
		AmbiguityMargin:    25,
		MinScore:           30,
		MaxCandidates:      5,
	}
}

// Hint извлеченная из фразы подсказка для поиска по каталогу
type Hint struct {
	Keyword  string   // Остаточный текст названия товара
	Keywords []string // Ключевые слова подсказки
	Price    float64  // Явно названная цена, 0 если нет
	Quantity int      // Явно названное количество, 0 если нет
}

// MatchFactors разбивка балла по факторам
type MatchFactors struct {
	KeywordOverlap int     `json:"keyword_overlap"` // Число пересекшихся ключевых слов
	Containment    bool    `json:"containment"`     // Вхождение названия/подсказки
	PriceExact     bool    `json:"price_exact"`     // Точное совпадение цены
	PriceNear      bool    `json:"price_near"`      // Цена в пределах допуска
	PriceDelta     float64 `json:"price_delta"`     // Абсолютная разница цен
	StockCovers    bool    `json:"stock_covers"`    // Остатка хватает на количество
}

// Match один кандидат каталога с баллом и разбивкой
type Match struct {
	Entry   Entry        `json:"entry"`
	Score   float64      `json:"score"`
	Factors MatchFactors `json:"factors"`
}

// MatchResult результат поиска по каталогу для одной подсказки
type MatchResult struct {
	Matches   []Match // Кандидаты по убыванию балла, ниже MinScore отфильтрованы
	Ambiguous bool    // Топ-кандидаты в пределах AmbiguityMargin друг от друга
}

// Best возвращает лучший матч, если он есть и однозначен
func (r *MatchResult) Best() (Match, bool) {
	if r.Ambiguous || len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// Matcher сопоставляет подсказки с позициями индекса каталога
type Matcher struct {
	config MatcherConfig
}

// NewMatcher создает матчер с указанной конфигурацией
func NewMatcher(config MatcherConfig) *Matcher {
	return &Matcher{config: config}
}

// Match скорит каждую позицию индекса против подсказки и возвращает
// кандидатов по убыванию балла. Кандидаты ниже MinScore не возвращаются.
// Если разрыв между первым и вторым кандидатом меньше AmbiguityMargin,
// результат помечается неоднозначным и отдаются все близкие кандидаты.
func (m *Matcher) Match(hint Hint, index *Index) *MatchResult {
	scored := make([]Match, 0, 4)

	for _, indexed := range index.Entries() {
		match := m.score(hint, indexed)
		if match.Score >= m.config.MinScore {
			scored = append(scored, match)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := &MatchResult{Matches: scored}
	if len(scored) >= 2 && scored[0].Score-scored[1].Score < m.config.AmbiguityMargin {
		result.Ambiguous = true
		// Отдаем только кандидатов в пределах разрыва от лидера
		cut := len(scored)
		for i := 1; i < len(scored); i++ {
			if scored[0].Score-scored[i].Score >= m.config.AmbiguityMargin {
				cut = i
				break
			}
		}
		if cut > m.config.MaxCandidates {
			cut = m.config.MaxCandidates
		}
		result.Matches = scored[:cut]
	}

	return result
}

// score вычисляет балл одной позиции против подсказки
func (m *Matcher) score(hint Hint, indexed IndexedEntry) Match {
	factors := MatchFactors{}
	score := 0.0

	// Пересечение ключевых слов
	for _, kw := range hint.Keywords {
		if indexed.Keywords[kw] {
			factors.KeywordOverlap++
		}
	}
	score += float64(factors.KeywordOverlap) * m.config.KeywordScore

	// Вхождение названия в подсказку или подсказки в название.
	// Сравнение повторяется со склеенными пробелами: транскрипция
	// часто склеивает слова ("icetube" против "ice tube").
	normalizedName := normalization.Normalize(indexed.Entry.Name)
	normalizedHint := normalization.Normalize(hint.Keyword)
	squashedName := strings.ReplaceAll(normalizedName, " ", "")
	squashedHint := strings.ReplaceAll(normalizedHint, " ", "")
	if normalizedHint != "" &&
		(strings.Contains(normalizedName, normalizedHint) || strings.Contains(normalizedHint, normalizedName) ||
			strings.Contains(squashedName, squashedHint) || strings.Contains(squashedHint, squashedName)) {
		factors.Containment = true
		score += m.config.ContainmentScore
	}

	// Ценовой сигнал: точное совпадение и допуск взаимоисключающие
	if hint.Price > 0 {
		factors.PriceDelta = hint.Price - indexed.Entry.Price
		if factors.PriceDelta < 0 {
			factors.PriceDelta = -factors.PriceDelta
		}
		switch {
		case indexed.Entry.Price == hint.Price:
			factors.PriceExact = true
			score += m.config.ExactPriceScore
		case indexed.Entry.Price > 0 && factors.PriceDelta <= indexed.Entry.Price*m.config.PriceTolerance:
			factors.PriceNear = true
			score += m.config.NearPriceScore
		}
	}

	// Наличие на складе
	if hint.Quantity > 0 && indexed.Entry.Stock >= hint.Quantity {
		factors.StockCovers = true
		score += m.config.StockScore
	}

	// Плоские бонусы за большой остаток: только tie-breaker, заведомо
	// меньше любого ценового или ключевого сигнала
	if indexed.Entry.Stock >= m.config.VeryHighStockLevel {
		score += m.config.VeryHighStockBonus
	} else if indexed.Entry.Stock >= m.config.HighStockLevel {
		score += m.config.HighStockBonus
	}

	return Match{Entry: indexed.Entry, Score: score, Factors: factors}
}
