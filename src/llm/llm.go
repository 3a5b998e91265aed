// Package llm extracts text from images through an OpenRouter vision model.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	noTextMarker   = "NO_TEXT_FOUND"
	maxRetries     = 3
	initialDelay   = 1 * time.Second
	requestTimeout = 45 * time.Second
)

var (
	ErrNoText       = errors.New("no text detected in image")
	ErrMissingKey   = errors.New("API key is required")
	ErrMissingModel = errors.New("model is required")
)

const ocrPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
	"- No formatting\n" +
	"- No XML/HTML tags\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"- Preserve line breaks accurately from the visual layout.\n" +
	"If no text found, return '" + noTextMarker + "'"

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	Quantizations  []string `json:"quantizations,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (type: %s, code: %v)", e.Message, e.Type, e.Code)
}

type Client struct {
	APIKey    string
	Model     string
	Providers []string

	BaseURL    string
	HTTPClient *http.Client
	// RetryDelay is the base backoff; attempt n waits RetryDelay*1.5*n.
	RetryDelay time.Duration
}

func NewClient(apiKey, model string, providers []string) *Client {
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		Providers:  providers,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: requestTimeout},
		RetryDelay: initialDelay,
	}
}

// Validate reports missing credentials without touching the network.
func (c *Client) Validate() error {
	if c.APIKey == "" {
		return ErrMissingKey
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	return nil
}

// providerPreferences pins the request to the configured providers.
func (c *Client) providerPreferences() *ProviderPreferences {
	if len(c.Providers) == 0 {
		// No providers specified, use default OpenRouter routing
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          c.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// QueryVision sends a PNG image to the vision model and returns the text it
// reads. A reply of NO_TEXT_FOUND yields ErrNoText.
func (c *Client) QueryVision(ctx context.Context, png []byte) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	request := ChatRequest{
		Model: c.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: ocrPrompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    c.providerPreferences(),
	}

	// Retry logic with linear-ish backoff
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.RetryDelay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := c.do(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("LLM: attempt %d/%d failed: %v", attempt+1, maxRetries, err)
			lastErr = err
			continue
		}

		if len(response.Choices) == 0 {
			lastErr = errors.New("no choices in API response")
			continue
		}

		text := cleanExtractedText(response.Choices[0].Message.Content)
		if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == noTextMarker {
			return "", ErrNoText
		}
		return text, nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.BaseURL
	if url == "" {
		url = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("X-Title", "screen-snip")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if response.Error != nil {
		return nil, response.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

// cleanExtractedText strips a trailing </image> artifact some models emit.
func cleanExtractedText(text string) string {
	return strings.TrimSuffix(text, "</image>")
}
