package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL эндпоинт OpenAI-совместимого провайдера по умолчанию
const DefaultBaseURL = "https://api.openai.com/v1"

// Client клиент провайдера дополнений для помощи в неоднозначных
// случаях. Встроенные rate limiter и circuit breaker: отказ провайдера
// не должен каскадировать в конвейер интерпретации.
type Client struct {
	apiKey         string
	model          string
	baseURL        string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *CircuitBreaker
}

// NewClient создает клиента с базовым URL по умолчанию
func NewClient(apiKey, model string) *Client {
	return NewClientWithBaseURL(apiKey, model, DefaultBaseURL)
}

// NewClientWithBaseURL создает клиента с кастомным базовым URL
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxConnsPerHost:     5,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		circuitBreaker: NewCircuitBreaker(),
	}
}

// Структуры chat completions запроса и ответа
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete выполняет одно дополнение. jsonMode просит провайдера
// отвечать строго валидным JSON.
func (c *Client) Complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("assist API key is not set")
	}

	if !c.circuitBreaker.CanProceed() {
		return "", fmt.Errorf("circuit breaker is open (state: %s), assist calls are temporarily blocked",
			c.circuitBreaker.GetState())
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	if jsonMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.circuitBreaker.RecordFailure()
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.circuitBreaker.RecordFailure()
	} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.circuitBreaker.RecordSuccess()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assist API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		log.Printf("[AssistClient] Failed to decode response: %v, body: %s", err, string(body))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("assist API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("assist API returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}
