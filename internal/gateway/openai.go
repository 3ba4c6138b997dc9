package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sethvargo/go-retry"
)

// ClientOptions configures the OpenAI-compatible client.
type ClientOptions struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
	// MaxRetries bounds retry attempts per call beyond the first.
	MaxRetries uint64
	Logger     *slog.Logger
}

// Client talks to an OpenAI-compatible chat completions and embeddings API.
// It implements both Generator and Embedder.
type Client struct {
	opts   ClientOptions
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a client for an OpenAI-compatible endpoint.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.chat(ctx, prompt, 0.7)
	if err != nil {
		return "", &GenerationError{Op: "generate", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// GenerateStructured implements Generator. The model is instructed to emit
// bare JSON; the response is fence-stripped, parsed, and validated against
// schema. A response that fails validation gets one re-ask with a stricter
// format instruction before the call fails.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *jsonschema.Schema) (map[string]any, error) {
	doc, err := c.structuredOnce(ctx, prompt, schema)
	if err == nil {
		return doc, nil
	}

	c.logger.Debug("structured response failed validation, re-asking with strict instruction", "error", err)
	strict := prompt + "\n\nIMPORTANT: respond with a single raw JSON object only. " +
		"No markdown fences, no commentary, no fields beyond those requested."
	doc, err = c.structuredOnce(ctx, strict, schema)
	if err != nil {
		return nil, &GenerationError{Op: "generate_structured", Err: err}
	}
	return doc, nil
}

func (c *Client) structuredOnce(ctx context.Context, prompt string, schema *jsonschema.Schema) (map[string]any, error) {
	text, err := c.chat(ctx, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	text = stripFences(text)

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parsing structured response: %w", err)
	}
	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return nil, fmt.Errorf("structured response failed schema validation: %s", formatSchemaError(err))
		}
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("structured response is not a JSON object")
	}
	return doc, nil
}

// Embed implements Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model: c.opts.EmbeddingModel,
		Input: []string{text},
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, &GenerationError{Op: "embed", Err: err}
	}
	if resp.Error != nil {
		return nil, &GenerationError{Op: "embed", Err: fmt.Errorf("api error: %s", resp.Error.Message)}
	}
	if len(resp.Data) == 0 {
		return nil, &GenerationError{Op: "embed", Err: fmt.Errorf("no embedding returned")}
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) chat(ctx context.Context, prompt string, temperature float64) (string, error) {
	reqBody := chatRequest{
		Model:       c.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// post sends a JSON request with retry on transient failures. Server-side
// errors and timeouts are retryable; 4xx responses are not.
func (c *Client) post(ctx context.Context, path string, reqBody, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	backoff := retry.WithMaxRetries(c.opts.MaxRetries, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimRight(c.opts.BaseURL, "/")+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Debug("retryable upstream status", "status", resp.StatusCode, "path", path)
			return retry.RetryableError(fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
		return nil
	})
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
