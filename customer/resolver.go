package customer

import (
	"log"

	"orderserver/normalization"
)

// DefaultAcceptThreshold порог схожести, ниже которого кандидат
// отвергается. Параметр политики: на реальных транскрипциях 0.7
// отсекает чужие имена, пропуская опечатки в одну-две буквы.
const DefaultAcceptThreshold = 0.7

// Resolver сопоставляет свободную фразу клиента с известными профилями
type Resolver struct {
	threshold float64
}

// NewResolver создает резолвер с порогом принятия
func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultAcceptThreshold
	}
	return &Resolver{threshold: threshold}
}

// Resolve ищет профиль с лучшей схожестью нормализованных имен.
// Возвращает nil, если никто не прошел порог - вызывающий код обязан
// подставить заглушку Unspecified, а не выдумывать имя.
func (r *Resolver) Resolve(phrase string, snapshot *Snapshot) *Profile {
	if snapshot == nil || phrase == "" {
		return nil
	}

	normalized := normalization.NormalizeStrict(phrase)
	if normalized == "" {
		return nil
	}

	// Титул не несет различительной силы: сравниваем все комбинации
	// фразы и имени с титулом и без
	queries := []string{normalized}
	if bare := stripHonorific(normalized); bare != normalized {
		queries = append(queries, bare)
	}

	var best *Profile
	bestScore := 0.0

	for _, profile := range snapshot.Profiles {
		names := []string{profile.NormalizedName}
		if bare := stripHonorific(profile.NormalizedName); bare != profile.NormalizedName {
			names = append(names, bare)
		}
		score := 0.0
		for _, q := range queries {
			for _, n := range names {
				if s := normalization.Similarity(q, n); s > score {
					score = s
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = profile
		}
	}

	if best == nil || bestScore < r.threshold {
		return nil
	}

	log.Printf("[CustomerResolver] Resolved %q -> %s (score %.2f)", phrase, best.Name, bestScore)
	return best
}

// Honorifics титулы, распознаваемые в начале имени. Обслуживает и
// сегментатор, и слой коррекции.
var Honorifics = []string{"mr", "mrs", "ms", "miss", "khun", "pi"}

// stripHonorific убирает ведущий титул из нормализованного имени
func stripHonorific(name string) string {
	for _, h := range Honorifics {
		prefix := h + " "
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return name[len(prefix):]
		}
	}
	return name
}
