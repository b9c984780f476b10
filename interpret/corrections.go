package interpret

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Предупреждения слоя коррекции. Каждая поправка обязана оставить след
// на интенте - молчаливых исправлений не бывает.
const (
	warnQuantityDefaulted = "quantity defaulted to 1 for %q"
	warnHonorificAdded    = "honorific prefix added to customer name"
	warnPaymentToCredit   = "payment upgraded to credit by keyword re-check"
)

// Corrector детерминированные, обратимые поправки интента перед
// финализацией. Применяется только под явным флагом умной коррекции.
// Идемпотентен: повторное применение ничего не меняет.
type Corrector struct {
	enabled          bool
	defaultHonorific string
	honorifics       []string
	titleCaser       cases.Caser
}

// NewCorrector создает слой коррекции
func NewCorrector(enabled bool, defaultHonorific string, honorifics []string) *Corrector {
	if defaultHonorific == "" {
		defaultHonorific = "khun"
	}
	return &Corrector{
		enabled:          enabled,
		defaultHonorific: defaultHonorific,
		honorifics:       honorifics,
		titleCaser:       cases.Title(language.Und),
	}
}

// Apply накладывает поправки на интент. rawText нужен для повторной
// проверки кредитной лексики в исходном высказывании.
func (c *Corrector) Apply(intent *OrderIntent, rawText string) {
	if !c.enabled || intent == nil {
		return
	}

	// Титул для голого имени клиента; заглушку не трогаем
	if !intent.Customer.IsUnspecified() && intent.CustomerName != "" && !c.hasHonorific(intent.CustomerName) {
		intent.CustomerName = c.titleCaser.String(c.defaultHonorific) + " " + intent.CustomerName
		intent.AddWarning(warnHonorificAdded)
	}

	// Нулевое/отсутствующее количество заменяем единицей
	for i := range intent.Items {
		if intent.Items[i].Quantity <= 0 {
			intent.Items[i].Quantity = 1
			intent.AddWarning(fmt.Sprintf(warnQuantityDefaulted, intent.Items[i].Entry.Name))
		}
	}

	// Кредитная лексика в сыром тексте может повысить статус оплаты
	// даже после сегментации
	if intent.Payment != PaymentCredit && HasCreditKeywords(rawText) {
		intent.Payment = PaymentCredit
		intent.AddWarning(warnPaymentToCredit)
	}

	intent.ComputeTotal()
}

// hasHonorific проверяет, начинается ли имя с известного титула
func (c *Corrector) hasHonorific(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, h := range c.honorifics {
		if strings.HasPrefix(lower, h+" ") || strings.HasPrefix(lower, h+". ") {
			return true
		}
	}
	return false
}
