package customer

import "log"

// OrderRecord один исторический заказ в форме, нужной для обучения
// профилей. Хранилище конвертирует свое представление в эту структуру.
type OrderRecord struct {
	CustomerID string
	Paid       bool
	Items      []OrderItem
}

// OrderItem позиция исторического заказа
type OrderItem struct {
	ItemID   string
	Quantity int
}

// Порог флага надежного плательщика: минимум заказов и доля оплаченных
const (
	reliableMinOrders = 3
	reliablePaidRatio = 0.8
)

// LearnHistory прогоняет исторические заказы через профили снимка:
// частота и среднее количество по позициям, флаг надежного плательщика.
// Мутирует только переданный снимок до его публикации.
func LearnHistory(snapshot *Snapshot, orders []OrderRecord) {
	byID := make(map[string]*Profile, len(snapshot.Profiles))
	for _, p := range snapshot.Profiles {
		if p.History == nil {
			p.History = make(map[string]ItemStats)
		}
		byID[p.ID] = p
	}

	totalOrders := make(map[string]int)
	paidOrders := make(map[string]int)

	for _, order := range orders {
		profile, ok := byID[order.CustomerID]
		if !ok {
			continue
		}

		totalOrders[order.CustomerID]++
		if order.Paid {
			paidOrders[order.CustomerID]++
		}

		for _, item := range order.Items {
			if item.ItemID == "" || item.Quantity <= 0 {
				continue
			}
			stats := profile.History[item.ItemID]
			stats.Count++
			stats.TotalQty += item.Quantity
			profile.History[item.ItemID] = stats
		}
	}

	for id, total := range totalOrders {
		if total < reliableMinOrders {
			continue
		}
		if float64(paidOrders[id])/float64(total) >= reliablePaidRatio {
			byID[id].ReliablePayer = true
		}
	}

	log.Printf("[CustomerHistory] Learned %d orders into %d profiles", len(orders), len(snapshot.Profiles))
}
