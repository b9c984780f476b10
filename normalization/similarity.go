package normalization

// Веса комбинированной метрики схожести. Редактируемые параметры политики:
// редакционное расстояние ловит опечатки, общая подстрока - обрезанные
// транскрипцией имена.
const (
	EditDistanceWeight = 0.6
	SubstringWeight    = 0.4
)

// LevenshteinDistance вычисляет редакционное расстояние между строками
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

// LongestCommonSubstring возвращает длину самой длинной общей подстроки
func LongestCommonSubstring(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	best := 0

	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return best
}

// Similarity вычисляет комбинированную схожесть двух строк в диапазоне [0,1].
// Строки нормализуются перед сравнением. Для пустых входов возвращает 0,
// а не ошибку - вызывающий код трактует это как "не совпало".
func Similarity(s1, s2 string) float64 {
	a := Normalize(s1)
	b := Normalize(s2)
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}

	editSim := 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
	substrSim := float64(LongestCommonSubstring(a, b)) / float64(maxLen)

	return EditDistanceWeight*editSim + SubstringWeight*substrSim
}

func minInt(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
