package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize канонизирует произвольный текст заказа: NFC-нормализация,
// нижний регистр, удаление символов вне букв/цифр домена, схлопывание
// пробелов. Чистая функция без побочных эффектов.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Приводим к композиционной форме, иначе диакритика из транскрипции
	// ломает посимвольное сравнение
	text = norm.NFC.String(text)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			// Пунктуация работает как разделитель токенов
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// NormalizeStrict как Normalize, но дополнительно отбрасывает точки.
// Используется для сравнения имен клиентов ("mr. somchai" == "mr somchai").
func NormalizeStrict(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(Normalize(text), ".", ""))
}

// Tokenize разбивает нормализованный текст на токены
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}
