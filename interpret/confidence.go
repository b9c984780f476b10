package interpret

import "encoding/json"

// Confidence уровень доверия к интерпретации. Закрытое перечисление:
// ветвления по уровню обязаны покрывать все три значения.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String возвращает строковое представление уровня
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "low"
	}
}

// MarshalJSON сериализует уровень как строку для API
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Min возвращает меньший из двух уровней. Правило слабого звена:
// итоговая уверенность не выше самого слабого компонента.
func (c Confidence) Min(other Confidence) Confidence {
	if other < c {
		return other
	}
	return c
}

// MatchQuality качество разрешения позиции заказа
type MatchQuality int

const (
	QualityNone  MatchQuality = iota // Позиция не разрешена
	QualityFuzzy                     // Разрешена нечетко (в т.ч. через ассистента)
	QualityHigh                      // Однозначный матч каталога
	QualityExact                     // Точный матч: цена или история клиента
)

// String возвращает строковое представление качества
func (q MatchQuality) String() string {
	switch q {
	case QualityExact:
		return "exact"
	case QualityHigh:
		return "high"
	case QualityFuzzy:
		return "fuzzy"
	case QualityNone:
		return "none"
	default:
		return "none"
	}
}

// MarshalJSON сериализует качество как строку
func (q MatchQuality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// Resolved считается ли позиция разрешенной через каталог или историю
// на уровне exact/high (участвует в match rate)
func (q MatchQuality) Resolved() bool {
	return q == QualityExact || q == QualityHigh
}

// PaymentStatus статус оплаты заказа
type PaymentStatus int

const (
	PaymentUnknown PaymentStatus = iota
	PaymentPaid
	PaymentUnpaid
	PaymentCredit
)

// String возвращает строковое представление статуса
func (p PaymentStatus) String() string {
	switch p {
	case PaymentPaid:
		return "paid"
	case PaymentUnpaid:
		return "unpaid"
	case PaymentCredit:
		return "credit"
	case PaymentUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// MarshalJSON сериализует статус как строку
func (p PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
