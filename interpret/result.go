package interpret

import (
	"errors"

	"orderserver/catalog"
)

// Таксономия ошибок интерпретации. ParseFailure, AmbiguousMatch и
// InsufficientStock всегда уходят вызывающему как структурный результат;
// CustomerNotFound и ProviderUnavailable поглощаются внутри с понижением
// уверенности и предупреждением.
var (
	ErrParseFailure        = errors.New("parse failure: no segmentation pattern matched")
	ErrAmbiguousMatch      = errors.New("ambiguous match: multiple catalog candidates within margin")
	ErrUnknownItem         = errors.New("unknown item: no candidate cleared the minimum score")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// OutcomeKind вид результата интерпретации
type OutcomeKind int

const (
	OutcomeSuccess        OutcomeKind = iota // Интент собран и финализирован
	OutcomeDisambiguation                    // Требуется выбор пользователя
	OutcomeFailure                           // Разбор не удался
)

// String возвращает строковое представление вида результата
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDisambiguation:
		return "disambiguation"
	case OutcomeFailure:
		return "failure"
	default:
		return "failure"
	}
}

// Причины дизамбигуации в том виде, в каком их видит потребитель API
const (
	ReasonUnknownItem    = "unknown_item"
	ReasonAmbiguousMatch = "ambiguous_match"
)

// Candidate неоднозначная подсказка с кандидатами каталога для выбора.
// Пустой список кандидатов означает UnknownItem: ничего не прошло
// минимальный балл. Reason различает виды дизамбигуации явно, не
// заставляя потребителя судить по пустоте списка.
type Candidate struct {
	HintText string          `json:"hint_text"`
	Matches  []catalog.Match `json:"matches"`
	Reason   string          `json:"reason"`
	Err      error           `json:"-"`
}

// Outcome размеченный результат интерпретации. Ровно одно из полей
// по виду результата: Intent для Success, Candidates для Disambiguation,
// Err для Failure.
type Outcome struct {
	Kind       OutcomeKind
	Intent     *OrderIntent
	Candidates []Candidate
	Err        error
}

// FailureOutcome создает результат-отказ
func FailureOutcome(err error) *Outcome {
	return &Outcome{Kind: OutcomeFailure, Err: err}
}

// DisambiguationOutcome создает результат, требующий выбора пользователя
func DisambiguationOutcome(candidates []Candidate) *Outcome {
	return &Outcome{Kind: OutcomeDisambiguation, Candidates: candidates}
}

// SuccessOutcome создает успешный результат
func SuccessOutcome(intent *OrderIntent) *Outcome {
	return &Outcome{Kind: OutcomeSuccess, Intent: intent}
}
