package interpret

import (
	"strings"

	"orderserver/normalization"
)

// DefaultPaidPositionCutoff позиционный порог для неоднозначного
// платежного глагола: вхождение в последних 40% текста трактуется как
// "уже оплачено". Эвристика исходного поведения с неясной надежностью,
// поэтому вынесена в переопределяемый параметр, а не зашита в код.
const DefaultPaidPositionCutoff = 0.6

// Словари платежной лексики. Явные формулировки дают high, голый
// глагол решается по позиции с medium - medium обязан дойти до
// вызывающего, это осознанный tie-break, а не скрытая догадка.
var (
	paidPhrases = []string{
		"already paid", "paid already", "paid in full", "has paid",
		"payment received", "paid cash", "paid by transfer",
	}
	unpaidPhrases = []string{
		"not yet paid", "not paid", "hasn t paid", "on credit",
		"owes", "owing", "unpaid", "pay later", "will pay later",
	}
	creditPhrases = []string{
		"on credit", "credit", "owes", "owing", "put it on the tab", "tab",
	}
	ambiguousPaymentVerbs = []string{"paid", "pays", "pay"}
)

// PaymentDetection результат распознавания статуса оплаты
type PaymentDetection struct {
	Status     PaymentStatus
	Confidence Confidence
}

// DetectPayment распознает статус оплаты в высказывании. Независим от
// выбора структурного шаблона сегментатора.
func DetectPayment(text string, positionCutoff float64) PaymentDetection {
	normalized := normalization.Normalize(text)
	if normalized == "" {
		return PaymentDetection{Status: PaymentUnknown, Confidence: ConfidenceLow}
	}
	if positionCutoff <= 0 || positionCutoff >= 1 {
		positionCutoff = DefaultPaidPositionCutoff
	}

	for _, phrase := range unpaidPhrases {
		if strings.Contains(normalized, phrase) {
			return PaymentDetection{Status: PaymentUnpaid, Confidence: ConfidenceHigh}
		}
	}
	for _, phrase := range paidPhrases {
		if strings.Contains(normalized, phrase) {
			return PaymentDetection{Status: PaymentPaid, Confidence: ConfidenceHigh}
		}
	}

	// Голый платежный глагол без квалификатора: решаем по позиции
	for _, verb := range ambiguousPaymentVerbs {
		idx := indexOfWord(normalized, verb)
		if idx < 0 {
			continue
		}
		if float64(idx) >= float64(len(normalized))*positionCutoff {
			return PaymentDetection{Status: PaymentPaid, Confidence: ConfidenceMedium}
		}
		return PaymentDetection{Status: PaymentUnpaid, Confidence: ConfidenceMedium}
	}

	return PaymentDetection{Status: PaymentUnknown, Confidence: ConfidenceLow}
}

// HasCreditKeywords проверяет лексику кредита в сыром высказывании.
// Используется слоем коррекции для повышения статуса до credit.
func HasCreditKeywords(text string) bool {
	normalized := normalization.Normalize(text)
	for _, phrase := range creditPhrases {
		if phrase == "" {
			continue
		}
		if len(strings.Fields(phrase)) > 1 {
			if strings.Contains(normalized, phrase) {
				return true
			}
			continue
		}
		if indexOfWord(normalized, phrase) >= 0 {
			return true
		}
	}
	return false
}

// indexOfWord возвращает байтовый индекс токена как целого слова
func indexOfWord(text, word string) int {
	offset := 0
	for _, token := range strings.Fields(text) {
		idx := strings.Index(text[offset:], token)
		pos := offset + idx
		offset = pos + len(token)
		if token == word {
			return pos
		}
	}
	return -1
}
