package automation

import (
	"fmt"
	"log"

	"orderserver/interpret"
)

// Verdict решение движка автоматизации по одному интенту
type Verdict struct {
	Auto   bool    `json:"auto"`   // Исполнять без ручной проверки
	Reason string  `json:"reason"` // Человекочитаемая причина
	Policy string  `json:"policy"` // Имя примененного профиля
	Total  float64 `json:"total"`  // Оцененный денежный итог
}

// Engine движок принятия решения об автоматизации: одна функция
// решения, а не многошаговый процесс. Шлюзы проверяются в фиксированном
// порядке, первый отказ выигрывает.
type Engine struct {
	policy Policy
	stats  *Stats
}

// NewEngine создает движок с профилем и трекером статистики
func NewEngine(policy Policy, stats *Stats) *Engine {
	if stats == nil {
		stats = NewStats()
	}
	return &Engine{policy: policy, stats: stats}
}

// Policy возвращает активный профиль
func (e *Engine) Policy() Policy {
	return e.policy
}

// Stats возвращает трекер статистики
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Decide проверяет интент по шлюзам профиля. Порядок шлюзов
// фиксированный: уровень уверенности, денежный потолок, известный
// клиент, точность матчей, достаточность остатков. Нехватка остатка
// блокирует автоматизацию безусловно, независимо от профиля.
func (e *Engine) Decide(intent *interpret.OrderIntent, total float64) Verdict {
	verdict := Verdict{Policy: e.policy.Name, Total: total}

	if reason, ok := e.evaluateGates(intent, total); !ok {
		verdict.Reason = reason
		e.stats.RecordHeld()
		log.Printf("[Automation] Hold under policy %s: %s", e.policy.Name, reason)
		return verdict
	}

	verdict.Auto = true
	verdict.Reason = fmt.Sprintf("approved under policy %q", e.policy.Name)
	e.stats.RecordAuto()
	log.Printf("[Automation] Auto-approved under policy %s (total %.2f)", e.policy.Name, total)
	return verdict
}

// evaluateGates прогоняет шлюзы по порядку; первый отказ дает причину
func (e *Engine) evaluateGates(intent *interpret.OrderIntent, total float64) (string, bool) {
	// Шлюз 1: уровень уверенности в разрешенном множестве профиля
	if !e.policy.AllowsTier(intent.Confidence) {
		return fmt.Sprintf("confidence %q not allowed by policy %q", intent.Confidence, e.policy.Name), false
	}

	// Шлюз 2: денежный потолок
	if e.policy.MonetaryCap > 0 && total > e.policy.MonetaryCap {
		return fmt.Sprintf("total %.2f exceeds policy cap %.2f", total, e.policy.MonetaryCap), false
	}

	// Шлюз 3: известный клиент
	if e.policy.RequireKnownCustomer && intent.Customer.IsUnspecified() {
		return "policy requires a known customer", false
	}

	// Шлюз 4: только точные матчи
	if e.policy.RequireExactMatch {
		for _, item := range intent.Items {
			if item.Quality != interpret.QualityExact {
				return fmt.Sprintf("item %q resolved via fuzzy matching", item.Entry.Name), false
			}
		}
	}

	// Шлюз 5: валидность количеств и достаточность остатков,
	// безусловный
	if intent.OverQuantityLimit {
		return "quantity exceeds allowed maximum, manual review required", false
	}
	for _, item := range intent.Items {
		if item.Quantity > item.Entry.Stock {
			return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
				item.Entry.Name, item.Quantity, item.Entry.Stock), false
		}
	}

	return "", true
}
