package customer

import "orderserver/normalization"

// UnspecifiedID идентификатор клиента-заглушки для заказов без клиента
const UnspecifiedID = "unspecified"

// ItemStats накопленная история покупок одной позиции
type ItemStats struct {
	Count    int `json:"count"`     // Сколько раз позиция встречалась в заказах
	TotalQty int `json:"total_qty"` // Суммарное заказанное количество
}

// AverageQuantity среднее количество на заказ, минимум 1
func (s ItemStats) AverageQuantity() int {
	if s.Count == 0 {
		return 1
	}
	avg := s.TotalQty / s.Count
	if avg < 1 {
		avg = 1
	}
	return avg
}

// Profile клиент с выученной историей заказов. Во время интерпретации
// только читается; обновляется при перезагрузке реестра.
type Profile struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`            // Каноническое имя
	NormalizedName string               `json:"normalized_name"` // Имя для сравнения
	Phone          string               `json:"phone,omitempty"`
	Address        string               `json:"address,omitempty"`
	ReliablePayer  bool                 `json:"reliable_payer"` // Стабильно оплачивает заказы
	History        map[string]ItemStats `json:"history,omitempty"` // item ID -> статистика
}

// NewProfile создает профиль с нормализованным именем
func NewProfile(id, name string) *Profile {
	return &Profile{
		ID:             id,
		Name:           name,
		NormalizedName: normalization.NormalizeStrict(name),
		History:        make(map[string]ItemStats),
	}
}

// Unspecified возвращает клиента-заглушку. Резолвер никогда не
// выдумывает имя: если никто не прошел порог, заказ явно без клиента.
func Unspecified() *Profile {
	return &Profile{ID: UnspecifiedID, Name: "unspecified"}
}

// IsUnspecified проверяет, является ли профиль заглушкой
func (p *Profile) IsUnspecified() bool {
	return p == nil || p.ID == UnspecifiedID
}

// SuggestedQuantity возвращает историческое среднее количество позиции,
// если клиент ее уже заказывал
func (p *Profile) SuggestedQuantity(itemID string) (int, bool) {
	if p == nil || p.History == nil {
		return 0, false
	}
	stats, ok := p.History[itemID]
	if !ok || stats.Count == 0 {
		return 0, false
	}
	return stats.AverageQuantity(), true
}

// HasOrdered проверяет, встречалась ли позиция в истории клиента
func (p *Profile) HasOrdered(itemID string) bool {
	if p == nil || p.History == nil {
		return false
	}
	stats, ok := p.History[itemID]
	return ok && stats.Count > 0
}

// Snapshot неизменяемый снимок реестра клиентов
type Snapshot struct {
	Profiles []*Profile
}
