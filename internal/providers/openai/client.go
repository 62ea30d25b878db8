package openai

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

	"recipehub/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

const defaultTimeout = 60 * time.Second

// Options controls how the OpenAI client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin facade over the chat-completions, images, files and batches
// endpoints. It deliberately performs no retries; callers record failures on
// the owning job row and move on.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, e.Message)
}

// ErrEmptyCompletion means the provider answered 200 with no usable content.
var ErrEmptyCompletion = errors.New("openai: empty completion")

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  client,
	}, nil
}

// ChatRequest describes one strict-JSON chat completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatBody is the wire form of a chat completion request. It is exported so
// the batch submitter can serialize the identical body as one JSONL line.
type ChatBody struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

// BuildChatBody translates a ChatRequest into its wire form with forced JSON
// response mode.
func BuildChatBody(req ChatRequest) ChatBody {
	return ChatBody{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    req.Temperature,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *domain.TokenUsage `json:"usage"`
}

// ChatJSON performs a chat completion in forced-JSON mode and returns the raw
// completion text plus token usage counters when the provider reports them.
func (c *Client) ChatJSON(ctx context.Context, req ChatRequest) (string, *domain.TokenUsage, error) {
	var out chatResponse
	if err := c.postJSON(ctx, "/chat/completions", BuildChatBody(req), &out); err != nil {
		return "", nil, err
	}
	if len(out.Choices) == 0 {
		return "", out.Usage, ErrEmptyCompletion
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", out.Usage, ErrEmptyCompletion
	}
	return content, out.Usage, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(httpReq, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("openai request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		message = wrapped.Error.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
