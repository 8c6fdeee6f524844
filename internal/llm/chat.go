package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kingrea/prospector/internal/faults"
)

const defaultTimeout = 30 * time.Second

// ChatConfig describes one chat-completions endpoint.
type ChatConfig struct {
	Service string // label used in error reporting ("research", "writer")
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ChatClient calls a chat-completions endpoint over HTTP.
type ChatClient struct {
	service    string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewChatClient validates the config and builds a client.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("llm: %s API key is not set", cfg.Service)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("llm: %s base URL is required", cfg.Service)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("llm: %s model is required", cfg.Service)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	service := cfg.Service
	if service == "" {
		service = "llm"
	}
	return &ChatClient{
		service:    service,
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Complete sends the request and returns the first choice's content.
// Non-2xx statuses and empty payloads surface as ServiceErrors.
func (c *ChatClient) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := c.buildPayload(req)
	if err != nil {
		return "", faults.Service(c.service, "encode request", 0, err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", faults.Service(c.service, "build request", 0, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", faults.Service(c.service, "call", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", faults.Service(c.service, "call", resp.StatusCode, errors.New(strings.TrimSpace(string(body))))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", faults.Service(c.service, "decode response", 0, err)
	}
	if len(decoded.Choices) == 0 {
		return "", faults.Service(c.service, "decode response", 0, errors.New("response carries no choices"))
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", faults.Service(c.service, "decode response", 0, errors.New("response content is empty"))
	}
	return content, nil
}

func (c *ChatClient) buildPayload(req Request) ([]byte, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	messages := make([]message, 0, 2)
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	messages = append(messages, message{Role: "user", Content: req.Prompt})

	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	return json.Marshal(body)
}
