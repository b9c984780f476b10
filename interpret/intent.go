package interpret

import (
	"orderserver/catalog"
	"orderserver/customer"
)

// LineItem разрешенная позиция заказа
type LineItem struct {
	Entry        catalog.Entry `json:"entry"`
	Quantity     int           `json:"quantity"`
	Quality      MatchQuality  `json:"quality"`
	Score        float64       `json:"score"`
	HintText     string        `json:"hint_text"`               // Исходный фрагмент фразы
	SuggestedQty bool          `json:"suggested_qty,omitempty"` // Количество подставлено из истории
}

// OrderIntent финальный структурированный интент заказа. Создается на
// каждое входящее высказывание и после передачи исполнителю не хранится.
type OrderIntent struct {
	Customer          *customer.Profile `json:"-"`
	CustomerID        string            `json:"customer_id"`
	CustomerName      string            `json:"customer_name"` // Отображаемое имя, может быть скорректировано
	Items             []LineItem        `json:"items"`
	Payment           PaymentStatus     `json:"payment"`
	PaymentConfidence Confidence        `json:"payment_confidence"`
	DeliveryPerson    string            `json:"delivery_person,omitempty"`
	Confidence        Confidence        `json:"confidence"`
	Total             float64           `json:"total"`
	Warnings          []string          `json:"warnings,omitempty"`
	InsufficientStock bool              `json:"insufficient_stock,omitempty"`
	OverQuantityLimit bool              `json:"over_quantity_limit,omitempty"` // Запрошено больше допустимого максимума
}

// AddWarning добавляет предупреждение без дубликатов. Каждая понижающая
// поправка обязана оставить след здесь - ревьюер должен видеть, что
// выведено эвристикой, а что сказано явно.
func (o *OrderIntent) AddWarning(warning string) {
	for _, w := range o.Warnings {
		if w == warning {
			return
		}
	}
	o.Warnings = append(o.Warnings, warning)
}

// ComputeTotal пересчитывает денежный итог по позициям
func (o *OrderIntent) ComputeTotal() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Entry.Price * float64(item.Quantity)
	}
	o.Total = total
	return total
}

// HasUnresolvedItems проверяет наличие неразрешенных позиций
func (o *OrderIntent) HasUnresolvedItems() bool {
	for _, item := range o.Items {
		if item.Quality == QualityNone {
			return true
		}
	}
	return false
}

// StockShortages возвращает позиции, чье количество превышает остаток
func (o *OrderIntent) StockShortages() []LineItem {
	var short []LineItem
	for _, item := range o.Items {
		if item.Quantity > item.Entry.Stock {
			short = append(short, item)
		}
	}
	return short
}
