package normalization

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// MinKeywordLen минимальная длина токена, попадающего в ключевые слова
const MinKeywordLen = 2

// stemCache кэш стемминга: словарь домена узкий, повторы постоянны
var stemCache = struct {
	sync.RWMutex
	m map[string]string
}{m: make(map[string]string)}

// StemToken возвращает основу латинского токена по алгоритму Snowball.
// Нелатинские токены возвращаются как есть - стеммер их не поддерживает.
func StemToken(token string) string {
	if token == "" || !isASCIIWord(token) {
		return token
	}

	stemCache.RLock()
	if stemmed, ok := stemCache.m[token]; ok {
		stemCache.RUnlock()
		return stemmed
	}
	stemCache.RUnlock()

	stemmed, err := snowball.Stem(token, "english", false)
	if err != nil || stemmed == "" {
		stemmed = token
	}

	stemCache.Lock()
	stemCache.m[token] = stemmed
	stemCache.Unlock()

	return stemmed
}

// ExtractKeywords извлекает множество ключевых слов из текста: полная
// нормализованная строка, токены длины >= MinKeywordLen и их основы.
// Порядок детерминированный: сначала полная строка, затем токены.
func ExtractKeywords(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	seen := make(map[string]bool)
	keywords := make([]string, 0, 8)
	add := func(kw string) {
		if kw != "" && !seen[kw] {
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}

	add(normalized)
	for _, token := range strings.Fields(normalized) {
		if len([]rune(token)) < MinKeywordLen {
			continue
		}
		add(token)
		add(StemToken(token))
	}

	return keywords
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
