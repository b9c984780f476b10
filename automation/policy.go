package automation

import (
	"fmt"

	"orderserver/interpret"
)

// Policy именованный профиль автоматизации: какие уровни уверенности,
// суммы и качества матчей могут миновать ручную проверку. Выбор
// активного профиля - внешняя конфигурация, ядро его не вычисляет.
type Policy struct {
	Name                   string                 `json:"name"`
	AllowedTiers           []interpret.Confidence `json:"allowed_tiers"`
	MonetaryCap            float64                `json:"monetary_cap"`
	RequireKnownCustomer   bool                   `json:"require_known_customer"`
	RequireExactMatch      bool                   `json:"require_exact_match"`
	AllowNewCustomerCreate bool                   `json:"allow_new_customer_create"`
}

// AllowsTier проверяет, разрешен ли уровень уверенности профилем
func (p Policy) AllowsTier(tier interpret.Confidence) bool {
	for _, allowed := range p.AllowedTiers {
		if allowed == tier {
			return true
		}
	}
	return false
}

// Предопределенные профили автоматизации
var (
	// Conservative автоматизирует только высокую уверенность, малые
	// суммы, известных клиентов и точные матчи
	Conservative = Policy{
		Name:                 "conservative",
		AllowedTiers:         []interpret.Confidence{interpret.ConfidenceHigh},
		MonetaryCap:          500,
		RequireKnownCustomer: true,
		RequireExactMatch:    true,
	}

	// Balanced рабочий профиль по умолчанию
	Balanced = Policy{
		Name:                   "balanced",
		AllowedTiers:           []interpret.Confidence{interpret.ConfidenceHigh, interpret.ConfidenceMedium},
		MonetaryCap:            2000,
		RequireKnownCustomer:   false,
		RequireExactMatch:      false,
		AllowNewCustomerCreate: true,
	}

	// Aggressive автоматизирует почти все, кроме нехватки остатков
	Aggressive = Policy{
		Name:                   "aggressive",
		AllowedTiers:           []interpret.Confidence{interpret.ConfidenceHigh, interpret.ConfidenceMedium, interpret.ConfidenceLow},
		MonetaryCap:            10000,
		RequireKnownCustomer:   false,
		RequireExactMatch:      false,
		AllowNewCustomerCreate: true,
	}
)

// PolicyByName возвращает профиль по имени
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "conservative":
		return Conservative, nil
	case "balanced", "":
		return Balanced, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return Policy{}, fmt.Errorf("unknown automation policy: %s", name)
	}
}
