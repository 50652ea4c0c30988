package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/snapdish/snapdish-backend/internal/types"
)

// Message represents a message in the chat request. Content is either a
// plain string or a list of content parts (text plus image).
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multi-part message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a base64 data URL
type ImageURL struct {
	URL string `json:"url"`
}

// ChatRequest is the wire format of the AI endpoint
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// AIClient sends chat-completion requests to the configured endpoint and
// returns the inner message content. Both the vision and recipe services
// share one client, one retry policy and one connectivity check.
type AIClient struct {
	apiKey       string
	apiURL       string
	model        string
	client       *http.Client
	retry        RetryPolicy
	connectivity ConnectivityChecker
}

// NewAIClient creates a client for the given endpoint
func NewAIClient(apiURL, apiKey, model string, retry RetryPolicy, connectivity ConnectivityChecker) *AIClient {
	return &AIClient{
		apiKey:       apiKey,
		apiURL:       apiURL,
		model:        model,
		client:       &http.Client{Timeout: 60 * time.Second},
		retry:        retry,
		connectivity: connectivity,
	}
}

// Chat sends one request and returns choices[0].message.content.
// Transient network failures are retried per the policy; auth and client
// errors are not.
func (c *AIClient) Chat(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	if c.connectivity != nil && c.connectivity.Status(ctx) == StatusOffline {
		return "", &types.NetworkError{Kind: types.NetworkNoConnection, Message: "AI endpoint unreachable"}
	}

	var content string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		result, attemptErr := c.attempt(ctx, messages, maxTokens, temperature)
		if attemptErr != nil {
			return attemptErr
		}
		content = result
		return nil
	})
	return content, err
}

func (c *AIClient) attempt(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.NetworkError{Kind: types.NetworkServerError, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "malformed API response",
			Err:     err,
		}
	}
	if len(result.Choices) == 0 {
		return "", &types.ProcessingError{
			Kind:    types.ProcessingServiceFailure,
			Message: "no choices in API response",
		}
	}

	return result.Choices[0].Message.Content, nil
}

// classifyTransportError maps a transport failure onto the error
// taxonomy. Only timeouts are transient enough to retry.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &types.NetworkError{Kind: types.NetworkTimeout, Message: "request timed out", Err: err}
	}
	return &types.NetworkError{Kind: types.NetworkNoConnection, Message: "connection failed", Err: err}
}

func classifyStatus(status int, body []byte) error {
	msg := fmt.Sprintf("API request failed with status %d: %s", status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests:
		return &types.NetworkError{Kind: types.NetworkRateLimited, Message: msg}
	case status >= 500:
		return &types.NetworkError{Kind: types.NetworkServerError, Message: msg}
	default:
		// 4xx: auth failure or a bad request; retrying cannot help
		return &types.NetworkError{Kind: types.NetworkAuthFailure, Message: msg}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
