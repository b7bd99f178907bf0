package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"supportagent/internal/domain"
	"supportagent/internal/port"
)

// DefaultGroqBaseURL is the OpenAI-compatible Groq endpoint.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient talks to any chat completions endpoint in the OpenAI wire
// format (Groq, OpenAI, Ollama, vLLM).
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

var _ port.LLM = (*OpenAIClient)(nil)

type Option func(*OpenAIClient)

func WithTemperature(t float64) Option {
	return func(c *OpenAIClient) { c.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(c *OpenAIClient) { c.maxTokens = n }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *OpenAIClient) { c.client = hc }
}

func NewOpenAIClient(apiKey, baseURL, model string, opts ...Option) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	c := &OpenAIClient{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: 1024,
		// Timeouts come from the caller's context.
		client: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Chat(ctx context.Context, system string, turns []domain.Turn) (string, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, t := range turns {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}

	jsonData, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat api error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("chat api returned error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from chat api")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
