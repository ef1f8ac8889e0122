package ai

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
)

// FallbackReply is returned when the provider answers without any choices
const FallbackReply = "[The character seems lost for words.]"

// Completer sends a prompt to a language model and returns the reply text
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, model string, temperature float64, maxTokens int) (string, error)
}

// GatewayConfig holds the provider connection settings
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

// Gateway talks to an OpenAI-compatible chat completions endpoint (Groq by
// default). It makes exactly one request per call and never retries.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGateway creates a gateway; it fails when no API key is configured
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends messages to the model and returns the first choice's text,
// trimmed. A response with no choices yields FallbackReply.
func (g *Gateway) Complete(ctx context.Context, messages []ChatMessage, model string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", &GatewayError{Kind: KindUnexpected, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Kind: KindUnexpected, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &GatewayError{Kind: KindConnection, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Kind: KindConnection, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp, respBody)
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &GatewayError{Kind: KindUnexpected, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Choices) == 0 {
		return FallbackReply, nil
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func statusError(resp *http.Response, body []byte) *GatewayError {
	gwErr := &GatewayError{
		StatusCode: resp.StatusCode,
		Message:    providerMessage(body),
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		gwErr.Kind = KindRateLimited
		gwErr.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
	case http.StatusUnauthorized:
		gwErr.Kind = KindAuthentication
	default:
		gwErr.Kind = KindAPI
	}

	if gwErr.Message == "" {
		gwErr.Err = errors.New(http.StatusText(resp.StatusCode))
	}

	return gwErr
}

// providerMessage extracts error.message from an error body, falling back to
// the raw body text
func providerMessage(body []byte) string {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
