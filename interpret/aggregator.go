package interpret

// Пороги итоговой уверенности по доле разрешенных позиций
const (
	highMatchRate   = 0.8
	mediumMatchRate = 0.5
)

// Пороги влияния уверенности восходящей транскрипции. Оценка транскрипции
// может только понизить итоговый уровень, никогда не повысить.
const (
	upstreamHighFloor   = 0.8
	upstreamMediumFloor = 0.5
)

// AggregateConfidence сводит качество матчей всех позиций в один
// итоговый уровень. Правило слабого звена: неразрешенная позиция
// безусловно дает low, независимо от остальных.
func AggregateConfidence(items []LineItem, upstreamConfidence float64) Confidence {
	if len(items) == 0 {
		return ConfidenceLow
	}

	resolved := 0
	for _, item := range items {
		if item.Quality == QualityNone {
			return ConfidenceLow
		}
		if item.Quality.Resolved() {
			resolved++
		}
	}

	rate := float64(resolved) / float64(len(items))
	tier := ConfidenceLow
	switch {
	case rate >= highMatchRate:
		tier = ConfidenceHigh
	case rate >= mediumMatchRate:
		tier = ConfidenceMedium
	}

	return tier.Min(upstreamCap(upstreamConfidence))
}

// upstreamCap переводит оценку транскрипции в потолок уровня.
// Нулевое значение означает "оценки нет" и ничего не ограничивает.
func upstreamCap(upstream float64) Confidence {
	switch {
	case upstream <= 0 || upstream >= upstreamHighFloor:
		return ConfidenceHigh
	case upstream >= upstreamMediumFloor:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
