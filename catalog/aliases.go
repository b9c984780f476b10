package catalog

import "strings"

// AliasTable таблица доменных вариантов написания. Ключ - нормализованный
// фрагмент названия товара, значения - известные альтернативные написания
// и фонетические искажения из голосовой транскрипции.
type AliasTable map[string][]string

// DefaultAliases варианты написания, накопленные на реальных заказах
// небольшой розницы. Таблица фиксированная: пополняется кодом, не данными.
func DefaultAliases() AliasTable {
	return AliasTable{
		"ice":        {"ise", "ices", "icy"},
		"coke":       {"cola", "coca", "coak"},
		"water":      {"wator", "watter", "drinking water"},
		"rice":       {"rise", "ricee"},
		"soda":       {"sodda", "sparkling"},
		"beer":       {"bier", "beers"},
		"egg":        {"eggs", "eg"},
		"sugar":      {"suger", "shugar"},
		"oil":        {"oyl", "cooking oil"},
		"noodle":     {"noodles", "nudel", "mama"},
		"milk":       {"melk", "milks"},
		"fish sauce": {"fishsauce", "fis sauce"},
	}
}

// VariantsFor возвращает ключи таблицы, являющиеся подстрокой
// нормализованного названия, вместе со всеми их вариантами
func (a AliasTable) VariantsFor(normalizedName string) []string {
	if normalizedName == "" {
		return nil
	}

	var variants []string
	for key, alts := range a {
		if !strings.Contains(normalizedName, key) {
			continue
		}
		variants = append(variants, key)
		variants = append(variants, alts...)
	}
	return variants
}
