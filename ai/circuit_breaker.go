package ai

import (
	"sync"
	"time"
)

// BreakerState состояние Circuit Breaker клиента ассистента
type BreakerState int

const (
	StateClosed   BreakerState = iota // Нормальная работа
	StateOpen                         // Запросы блокируются
	StateHalfOpen                     // Пробуем восстановить соединение
)

// CircuitBreaker защита от каскадных сбоев провайдера дополнений
type CircuitBreaker struct {
	mu               sync.Mutex
	state            BreakerState
	failureCount     int           // Счетчик неудачных запросов подряд
	successCount     int           // Счетчик успехов в half-open состоянии
	failureThreshold int           // Порог ошибок для открытия
	successThreshold int           // Порог успехов для закрытия
	timeout          time.Duration // Ожидание перед переходом в half-open
	lastFailureTime  time.Time
}

// NewCircuitBreaker создает breaker с порогами по умолчанию
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 2,
		timeout:          30 * time.Second,
	}
}

// CanProceed проверяет, можно ли выполнить запрос. В открытом состоянии
// по истечении таймаута переводит breaker в half-open.
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess записывает успешный запрос
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

// RecordFailure записывает неудачный запрос
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		// Ошибка в half-open возвращает breaker в open
		cb.state = StateOpen
		cb.failureCount = cb.failureThreshold
		cb.successCount = 0
	}
}

// GetState возвращает текущее состояние для логирования
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
