package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"orderserver/catalog"
	"orderserver/customer"
)

// AssistClient контракт опционального провайдера дополнений. Нужен
// только для помощи в неоднозначных случаях; детерминированный путь
// полностью работоспособен без него.
type AssistClient interface {
	Complete(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Config параметры интерпретатора
type Config struct {
	CustomerThreshold  float64       // Порог резолвера клиентов
	PaidPositionCutoff float64       // Позиционный порог платежного глагола
	MaxQuantity        int           // Максимум количества на позицию
	SmartCorrection    bool          // Включить слой коррекции
	DefaultHonorific   string        // Титул для голых имен
	AssistTimeout      time.Duration // Таймаут обращения к ассистенту
}

// DefaultConfig параметры интерпретатора по умолчанию
func DefaultConfig() Config {
	return Config{
		CustomerThreshold:  customer.DefaultAcceptThreshold,
		PaidPositionCutoff: DefaultPaidPositionCutoff,
		MaxQuantity:        100,
		SmartCorrection:    true,
		DefaultHonorific:   "khun",
		AssistTimeout:      10 * time.Second,
	}
}

// Interpreter конвейер интерпретации заказа: сегментация, извлечение
// сущностей, разрешение по каталогу и клиентам, агрегация уверенности,
// коррекция. Все вычислительные стадии синхронны; точки ожидания -
// только обращения к кэшам коллабораторов и ассистенту.
type Interpreter struct {
	catalog   *catalog.Cache
	customers *customer.Cache
	matcher   *catalog.Matcher
	segmenter *Segmenter
	extractor *Extractor
	resolver  *customer.Resolver
	corrector *Corrector
	assist    AssistClient
	config    Config
}

// NewInterpreter собирает конвейер. assist может быть nil - тогда
// неоднозначности всегда уходят пользователю.
func NewInterpreter(
	catalogCache *catalog.Cache,
	customerCache *customer.Cache,
	matcher *catalog.Matcher,
	assist AssistClient,
	config Config,
) *Interpreter {
	segmenterConfig := DefaultSegmenterConfig()
	return &Interpreter{
		catalog:   catalogCache,
		customers: customerCache,
		matcher:   matcher,
		segmenter: NewSegmenter(segmenterConfig),
		extractor: NewExtractor(DefaultExtractorConfig()),
		resolver:  customer.NewResolver(config.CustomerThreshold),
		corrector: NewCorrector(config.SmartCorrection, config.DefaultHonorific, segmenterConfig.Honorifics),
		assist:    assist,
		config:    config,
	}
}

// Interpret прогоняет одно высказывание через весь конвейер.
// upstreamConfidence - опциональная оценка транскрипции в (0,1];
// ноль означает "оценки нет".
func (it *Interpreter) Interpret(ctx context.Context, text string, upstreamConfidence float64) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return FailureOutcome(ErrParseFailure), nil
	}

	index, err := it.catalog.Current(ctx)
	if err != nil {
		// Каталога не было ни разу - интерпретировать не по чему
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	segmentation := it.segmenter.Segment(text, index.HasKeyword)
	if segmentation == nil {
		log.Printf("[Interpreter] Parse failure for utterance %q", text)
		return FailureOutcome(ErrParseFailure), nil
	}

	hints := it.extractor.ExtractHints(segmentation.ItemPhrase)
	if len(hints) == 0 {
		return FailureOutcome(ErrParseFailure), nil
	}

	intent := &OrderIntent{}

	// Реестр клиентов: отказ хранилища деградирует до заглушки
	profile := it.resolveCustomer(ctx, segmentation, intent)
	intent.Customer = profile
	intent.CustomerID = profile.ID
	if profile.IsUnspecified() {
		intent.CustomerName = ""
	} else {
		intent.CustomerName = profile.Name
	}
	intent.DeliveryPerson = segmentation.DeliveryPerson

	detection := DetectPayment(text, it.config.PaidPositionCutoff)
	intent.Payment = detection.Status
	intent.PaymentConfidence = detection.Confidence

	// Разрешение позиций: неоднозначность обязана всплыть, не решаться
	// угадыванием
	var ambiguous []Candidate
	for _, hint := range hints {
		item, candidate := it.resolveHint(ctx, hint, index, profile)
		if candidate != nil {
			ambiguous = append(ambiguous, *candidate)
			continue
		}
		intent.Items = append(intent.Items, item)
	}

	if len(ambiguous) > 0 {
		log.Printf("[Interpreter] Disambiguation required for %d hint(s)", len(ambiguous))
		return DisambiguationOutcome(ambiguous), nil
	}

	it.applyQuantityRules(intent, profile)

	intent.Confidence = AggregateConfidence(intent.Items, upstreamConfidence)
	switch {
	case upstreamConfidence > 1 || upstreamConfidence < 0:
		intent.AddWarning("upstream transcription score out of range, ignored")
	case upstreamConfidence > 0 && upstreamConfidence < upstreamHighFloor:
		intent.AddWarning("confidence capped by upstream transcription score")
	}
	if segmentation.Confidence < ConfidenceHigh {
		intent.AddWarning(fmt.Sprintf("utterance parsed by permissive pattern %q", segmentation.Pattern))
	}

	it.corrector.Apply(intent, text)
	intent.ComputeTotal()

	for _, short := range intent.StockShortages() {
		intent.InsufficientStock = true
		intent.AddWarning(fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
			short.Entry.Name, short.Quantity, short.Entry.Stock))
	}

	return SuccessOutcome(intent), nil
}

// resolveCustomer ищет профиль клиента; любые отказы деградируют до
// заглушки с предупреждением, разбор не блокируется
func (it *Interpreter) resolveCustomer(ctx context.Context, seg *Segmentation, intent *OrderIntent) *customer.Profile {
	if seg.CustomerPhrase == "" {
		intent.AddWarning("customer not specified in utterance")
		return customer.Unspecified()
	}

	registry, err := it.customers.Current(ctx)
	if err != nil {
		log.Printf("[Interpreter] Customer registry unavailable, degrading: %v", err)
		intent.AddWarning("customer registry unavailable, customer left unspecified")
		return customer.Unspecified()
	}

	profile := it.resolver.Resolve(seg.CustomerPhrase, registry)
	if profile == nil {
		intent.AddWarning(fmt.Sprintf("customer %q not found, left unspecified", seg.CustomerPhrase))
		return customer.Unspecified()
	}
	return profile
}

// resolveHint разрешает одну подсказку по индексу каталога. Возвращает
// либо позицию, либо кандидата на дизамбигуацию.
func (it *Interpreter) resolveHint(ctx context.Context, hint ItemHint, index *catalog.Index, profile *customer.Profile) (LineItem, *Candidate) {
	result := it.matcher.Match(hint.Hint, index)

	if len(result.Matches) == 0 {
		// UnknownItem: ниже минимального балла - "не найдено", не
		// "слабый матч". Дизамбигуация обязательна до финализации.
		return LineItem{}, &Candidate{HintText: hint.Raw, Reason: ReasonUnknownItem, Err: ErrUnknownItem}
	}

	if result.Ambiguous {
		if picked, ok := it.assistPick(ctx, hint, result.Matches); ok {
			item := it.buildLineItem(hint, picked, profile)
			item.Quality = QualityFuzzy
			return item, nil
		}
		return LineItem{}, &Candidate{HintText: hint.Raw, Matches: result.Matches, Reason: ReasonAmbiguousMatch, Err: ErrAmbiguousMatch}
	}

	best, _ := result.Best()
	return it.buildLineItem(hint, best, profile), nil
}

// buildLineItem собирает позицию и назначает качество матча.
// Историческая покупка той же позиции повышает качество до exact.
func (it *Interpreter) buildLineItem(hint ItemHint, match catalog.Match, profile *customer.Profile) LineItem {
	item := LineItem{
		Entry:    match.Entry,
		Quantity: hint.Quantity,
		Score:    match.Score,
		HintText: hint.Raw,
		Quality:  QualityHigh,
	}
	if match.Factors.PriceExact {
		item.Quality = QualityExact
	}
	if profile.HasOrdered(match.Entry.ID) {
		item.Quality = QualityExact
	}
	if hint.Confidence == ConfidenceLow && item.Quality == QualityHigh {
		item.Quality = QualityFuzzy
	}
	return item
}

// applyQuantityRules подставляет исторические количества и помечает
// выход за допустимый максимум. Запрошенное количество никогда не
// переписывается: проверка остатков и шлюзы автоматизации обязаны
// видеть то, что клиент попросил на самом деле.
func (it *Interpreter) applyQuantityRules(intent *OrderIntent, profile *customer.Profile) {
	for i := range intent.Items {
		item := &intent.Items[i]

		if item.Quantity == 0 {
			if qty, ok := profile.SuggestedQuantity(item.Entry.ID); ok {
				item.Quantity = qty
				item.SuggestedQty = true
				intent.AddWarning(fmt.Sprintf("quantity for %q suggested from order history: %d",
					item.Entry.Name, qty))
			}
		}

		if it.config.MaxQuantity > 0 && item.Quantity > it.config.MaxQuantity {
			intent.OverQuantityLimit = true
			intent.AddWarning(fmt.Sprintf("quantity %d for %q exceeds allowed maximum %d, manual review required",
				item.Quantity, item.Entry.Name, it.config.MaxQuantity))
		}
	}
}

// assistPick спрашивает ассистента, какой из близких кандидатов имелся
// в виду. Любая ошибка или таймаут деградирует к эвристическому пути:
// неоднозначность уходит пользователю.
func (it *Interpreter) assistPick(ctx context.Context, hint ItemHint, matches []catalog.Match) (catalog.Match, bool) {
	if it.assist == nil {
		return catalog.Match{}, false
	}

	assistCtx, cancel := context.WithTimeout(ctx, it.config.AssistTimeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "A retail order mentions %q", hint.Raw)
	if hint.Price > 0 {
		fmt.Fprintf(&b, " at price %.2f", hint.Price)
	}
	b.WriteString(". Which catalog item is meant? Answer as JSON {\"id\": \"...\"} using one of:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- id %s: %s, price %.2f\n", m.Entry.ID, m.Entry.Name, m.Entry.Price)
	}

	reply, err := it.assist.Complete(assistCtx, b.String(), true)
	if err != nil {
		log.Printf("[Interpreter] Assist unavailable, falling back to heuristics: %v", err)
		return catalog.Match{}, false
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		log.Printf("[Interpreter] Assist reply not parseable: %v", err)
		return catalog.Match{}, false
	}

	for _, m := range matches {
		if m.Entry.ID == parsed.ID {
			log.Printf("[Interpreter] Assist disambiguated %q -> %s", hint.Raw, m.Entry.Name)
			return m, true
		}
	}
	return catalog.Match{}, false
}
