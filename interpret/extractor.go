package interpret

import (
	"strconv"
	"strings"

	"orderserver/catalog"
	"orderserver/normalization"
)

// ExtractorConfig параметры извлечения сущностей из фразы товаров
type ExtractorConfig struct {
	CurrencyWords []string // Слова-маркеры цены после числа
	QuantityWords []string // Слова-маркеры количества перед числом
	MaxQuantity   int      // Максимально допустимое количество на позицию
}

// DefaultExtractorConfig параметры по умолчанию. Пороги правила B
// отражают то, что розничная цена за единицу обычно больше заказываемого
// количества - это эвристический tie-break, а не гарантия.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		CurrencyWords: []string{"baht", "bath", "thb", "usd", "dollar", "dollars"},
		QuantityWords: []string{"quantity", "qty", "x", "pcs"},
		MaxQuantity:   100,
	}
}

// Пороги правила B: n1 > priceFloor и n2 <= qtyCeiling дают
// цена=n1/количество=n2; иначе n2 > swapFactor*n1 меняет роли местами
const (
	ruleBPriceFloor = 10
	ruleBQtyCeiling = 100
	ruleBSwapFactor = 3
)

// ItemHint подсказка-кандидат, извлеченная из фразы товаров до
// разрешения по каталогу
type ItemHint struct {
	catalog.Hint
	Confidence Confidence // Происхождение: явная цена high, соседние числа medium/low
	Raw        string     // Исходный фрагмент для сообщений и предупреждений
}

// Extractor разделяет числовые токены фразы на цену и количество
type Extractor struct {
	config   ExtractorConfig
	currency map[string]bool
	quantity map[string]bool
}

// NewExtractor создает экстрактор с указанной конфигурацией
func NewExtractor(config ExtractorConfig) *Extractor {
	currency := make(map[string]bool, len(config.CurrencyWords))
	for _, w := range config.CurrencyWords {
		currency[w] = true
	}
	quantity := make(map[string]bool, len(config.QuantityWords))
	for _, w := range config.QuantityWords {
		quantity[w] = true
	}
	return &Extractor{config: config, currency: currency, quantity: quantity}
}

// segment сырые части одной позиции перед интерпретацией чисел
type segment struct {
	nameTokens []string
	numbers    []float64 // Голые числа по порядку
	priceByCur float64   // Число с валютным словом (правило A)
	explicitQty int      // Число с маркером количества
}

// ExtractHints разбивает фразу товаров на подсказки. Накопленные
// именные токены закрываются в отдельную подсказку, как только за
// числовой группой снова начинается название.
func (e *Extractor) ExtractHints(itemPhrase string) []ItemHint {
	tokens := normalization.Tokenize(itemPhrase)
	if len(tokens) == 0 {
		return nil
	}

	var segments []segment
	current := segment{}
	numbersSeen := false

	flush := func() {
		if len(current.nameTokens) > 0 {
			segments = append(segments, current)
		}
		current = segment{}
		numbersSeen = false
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if token == "and" || token == "plus" {
			flush()
			continue
		}

		if value, ok := parseNumber(token); ok {
			// Число с валютным словом сразу после - явная цена
			if i+1 < len(tokens) && e.currency[tokens[i+1]] {
				current.priceByCur = value
				i++
			} else {
				current.numbers = append(current.numbers, value)
			}
			numbersSeen = true
			continue
		}

		if e.quantity[token] {
			// Маркер количества: следующее число - явное количество
			if i+1 < len(tokens) {
				if qty, ok := parseNumber(tokens[i+1]); ok {
					current.explicitQty = int(qty)
					i++
					numbersSeen = true
				}
			}
			continue
		}

		if e.currency[token] {
			continue
		}

		// Именной токен после числовой группы открывает новую позицию
		if numbersSeen {
			flush()
		}
		current.nameTokens = append(current.nameTokens, token)
	}
	flush()

	hints := make([]ItemHint, 0, len(segments))
	for _, seg := range segments {
		hints = append(hints, e.interpretSegment(seg))
	}
	return hints
}

// interpretSegment превращает сырую часть в подсказку, разводя числа
// на цену и количество по величинным эвристикам
func (e *Extractor) interpretSegment(seg segment) ItemHint {
	name := strings.Join(seg.nameTokens, " ")
	hint := ItemHint{
		Hint: catalog.Hint{
			Keyword:  name,
			Keywords: normalization.ExtractKeywords(name),
		},
		Raw:        name,
		Confidence: ConfidenceLow,
	}

	if seg.explicitQty > 0 {
		hint.Quantity = nonNegative(seg.explicitQty)
	}

	switch {
	case seg.priceByCur > 0:
		// Правило A: явная цена с валютным словом
		hint.Price = seg.priceByCur
		hint.Confidence = ConfidenceHigh
		if hint.Quantity == 0 && len(seg.numbers) > 0 {
			hint.Quantity = nonNegative(int(seg.numbers[0]))
		}

	case hint.Quantity > 0 && len(seg.numbers) > 0:
		// Явное количество, остаточное число считаем ценой
		hint.Price = seg.numbers[0]
		hint.Confidence = ConfidenceMedium

	case hint.Quantity > 0:
		hint.Confidence = ConfidenceMedium

	case len(seg.numbers) >= 2:
		// Правило B: тройка "название n1 n2"
		n1, n2 := seg.numbers[0], seg.numbers[1]
		switch {
		case n1 > ruleBPriceFloor && n2 <= ruleBQtyCeiling:
			hint.Price = n1
			hint.Quantity = nonNegative(int(n2))
			hint.Confidence = ConfidenceMedium
		case n2 > ruleBSwapFactor*n1:
			hint.Price = n2
			hint.Quantity = nonNegative(int(n1))
			hint.Confidence = ConfidenceLow
		default:
			hint.Quantity = nonNegative(int(n1))
			hint.Confidence = ConfidenceLow
		}

	case len(seg.numbers) == 1:
		// Одно голое число: малое - количество, большое - цена
		n := seg.numbers[0]
		if n > 0 && int(n) <= e.config.MaxQuantity && n == float64(int(n)) {
			hint.Quantity = int(n)
			hint.Confidence = ConfidenceMedium
		} else {
			hint.Price = n
			hint.Confidence = ConfidenceLow
		}
	}

	return hint
}

func nonNegative(qty int) int {
	if qty < 0 {
		return 0
	}
	return qty
}

func parseNumber(token string) (float64, bool) {
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
