package interpret

import (
	"fmt"
	"regexp"
	"strings"

	"orderserver/customer"
	"orderserver/normalization"
)

// Pattern структурный шаблон, распознавший высказывание
type Pattern int

const (
	PatternNone      Pattern = iota
	PatternDelivery          // Явная доставочная клауза + клиент и товары
	PatternHonorific         // Титул + имя + глагол заказа
	PatternGeneric           // Произвольный токен + глагол заказа
	PatternVerbOnly          // Глагол заказа без клиента
)

// String возвращает строковое представление шаблона
func (p Pattern) String() string {
	switch p {
	case PatternDelivery:
		return "delivery"
	case PatternHonorific:
		return "honorific"
	case PatternGeneric:
		return "generic"
	case PatternVerbOnly:
		return "verb_only"
	default:
		return "none"
	}
}

// Segmentation разбиение высказывания на структурные части
type Segmentation struct {
	CustomerPhrase string
	ItemPhrase     string
	DeliveryPerson string
	Pattern        Pattern
	Confidence     Confidence
}

// SegmenterConfig словари сегментатора. Вынесены в конфигурацию:
// лексика заказов расширяется без правок алгоритма.
type SegmenterConfig struct {
	OrderVerbs    []string // Глаголы заказа
	Honorifics    []string // Титулы перед именем клиента
	DeliveryVerbs []string // Глаголы доставки
	DeliveryPreps []string // Предлоги доставочной клаузы
}

// DefaultSegmenterConfig словари по умолчанию
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		OrderVerbs:    []string{"orders", "order", "buys", "buy", "takes", "take", "wants", "want", "gets", "get"},
		Honorifics:    customer.Honorifics,
		DeliveryVerbs: []string{"ship", "ships", "send", "sends", "deliver", "delivers"},
		DeliveryPreps: []string{"by", "to", "with", "via"},
	}
}

// Segmenter применяет упорядоченный набор структурных шаблонов к
// нормализованному высказыванию: от самого специфичного к самому
// общему, каждый следующий разрешительнее предыдущего.
type Segmenter struct {
	config      SegmenterConfig
	deliveryRe  *regexp.Regexp
	honorificRe *regexp.Regexp
	genericRe   *regexp.Regexp
	verbOnlyRe  *regexp.Regexp
}

// NewSegmenter компилирует шаблоны по словарям конфигурации
func NewSegmenter(config SegmenterConfig) *Segmenter {
	verbs := alternation(config.OrderVerbs)
	honorifics := alternation(config.Honorifics)
	deliveryVerbs := alternation(config.DeliveryVerbs)
	preps := alternation(config.DeliveryPreps)

	namePattern := fmt.Sprintf(`((?:%s\.?\s+)?\p{L}+)`, honorifics)

	return &Segmenter{
		config: config,
		deliveryRe: regexp.MustCompile(
			fmt.Sprintf(`\b%s(?:\s+it)?\s+%s\s+%s\b`, deliveryVerbs, preps, namePattern)),
		honorificRe: regexp.MustCompile(
			fmt.Sprintf(`^(%s\.?\s*\p{L}+)\s+%s\s+(.+)$`, honorifics, verbs)),
		genericRe: regexp.MustCompile(
			fmt.Sprintf(`^(\p{L}+)\s+%s\s+(.+)$`, verbs)),
		verbOnlyRe: regexp.MustCompile(
			fmt.Sprintf(`^%s\s+(.+)$`, verbs)),
	}
}

// Segment разбивает высказывание на фразу клиента, фразу товаров и
// доставочную клаузу. Возвращает nil, если ни один шаблон не подошел -
// вызывающий код обязан трактовать это как ParseFailure, а не молча
// брать весь текст как товары.
//
// isProductKeyword защищает общий шаблон от разбора
// "<товар> orders <товар>": артефакт транскрипции, подставивший название
// товара на место имени клиента.
func (s *Segmenter) Segment(text string, isProductKeyword func(string) bool) *Segmentation {
	normalized := normalization.Normalize(text)
	if normalized == "" {
		return nil
	}

	// Сначала вырезаем доставочную клаузу, затем ищем структуру
	// клиент+товары в остатке
	if loc := s.deliveryRe.FindStringSubmatchIndex(normalized); loc != nil {
		person := normalized[loc[2]:loc[3]]
		remainder := strings.TrimSpace(normalized[:loc[0]] + " " + normalized[loc[1]:])
		remainder = strings.Join(strings.Fields(remainder), " ")

		inner := s.segmentCore(remainder, isProductKeyword)
		if inner == nil {
			return nil
		}
		inner.DeliveryPerson = person
		inner.Pattern = PatternDelivery
		inner.Confidence = ConfidenceHigh
		return inner
	}

	return s.segmentCore(normalized, isProductKeyword)
}

// segmentCore применяет шаблоны клиент+товары в порядке приоритета
func (s *Segmenter) segmentCore(normalized string, isProductKeyword func(string) bool) *Segmentation {
	if m := s.honorificRe.FindStringSubmatch(normalized); m != nil {
		return &Segmentation{
			CustomerPhrase: m[1],
			ItemPhrase:     m[2],
			Pattern:        PatternHonorific,
			Confidence:     ConfidenceHigh,
		}
	}

	if m := s.genericRe.FindStringSubmatch(normalized); m != nil {
		seg := &Segmentation{
			CustomerPhrase: m[1],
			ItemPhrase:     m[2],
			Pattern:        PatternGeneric,
			Confidence:     ConfidenceMedium,
		}
		// Ведущий токен оказался товаром: это не клиент, а часть фразы
		// товаров, и доверие к разбору низкое
		if isProductKeyword != nil && isProductKeyword(m[1]) {
			seg.CustomerPhrase = ""
			seg.ItemPhrase = m[1] + " " + m[2]
			seg.Confidence = ConfidenceLow
		}
		return seg
	}

	if m := s.verbOnlyRe.FindStringSubmatch(normalized); m != nil {
		return &Segmentation{
			ItemPhrase: m[1],
			Pattern:    PatternVerbOnly,
			Confidence: ConfidenceMedium,
		}
	}

	return nil
}

func alternation(words []string) string {
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	return "(?:" + strings.Join(escaped, "|") + ")"
}
