package automation

import "sync"

// Stats инжектируемый трекер статистики автоматизации. Конструируемая
// зависимость, а не глобальное состояние: тесты и параллельные профили
// получают каждый свой экземпляр.
type Stats struct {
	mu       sync.Mutex
	auto     int
	held     int
	reversed int
}

// NewStats создает пустой трекер
func NewStats() *Stats {
	return &Stats{}
}

// RecordAuto фиксирует авто-исполненный заказ
func (s *Stats) RecordAuto() {
	s.mu.Lock()
	s.auto++
	s.mu.Unlock()
}

// RecordHeld фиксирует заказ, отправленный на ручную проверку
func (s *Stats) RecordHeld() {
	s.mu.Lock()
	s.held++
	s.mu.Unlock()
}

// RecordReversal фиксирует отмену ранее авто-исполненного заказа.
// Точность пересчитывается при каждом чтении.
func (s *Stats) RecordReversal() {
	s.mu.Lock()
	if s.reversed < s.auto {
		s.reversed++
	}
	s.mu.Unlock()
}

// StatsSnapshot моментальный срез статистики
type StatsSnapshot struct {
	Auto     int     `json:"auto"`
	Held     int     `json:"held"`
	Reversed int     `json:"reversed"`
	Accuracy float64 `json:"accuracy"`
}

// Snapshot возвращает срез с пересчитанной точностью: доля
// авто-исполненных заказов, не отмененных впоследствии
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	accuracy := 1.0
	if s.auto > 0 {
		accuracy = float64(s.auto-s.reversed) / float64(s.auto)
	}
	return StatsSnapshot{
		Auto:     s.auto,
		Held:     s.held,
		Reversed: s.reversed,
		Accuracy: accuracy,
	}
}
