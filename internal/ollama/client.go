package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a local Ollama server. All upstream failures surface
// as *APIError so the HTTP layer can map them to 502 uniformly.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx answer from the Ollama server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ollama: status %d: %s", e.StatusCode, e.Message)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// CompletionResponse covers both /api/generate and /api/chat answers;
// generate fills Response, chat fills Message.
type CompletionResponse struct {
	Model           string  `json:"model"`
	Response        string  `json:"response,omitempty"`
	Message         Message `json:"message,omitempty"`
	Done            bool    `json:"done"`
	TotalDuration   int64   `json:"total_duration,omitempty"`
	PromptEvalCount int     `json:"prompt_eval_count,omitempty"`
	EvalCount       int     `json:"eval_count,omitempty"`
}

// StreamChunk is one decoded line of a streaming response. The final
// chunk has Done set and carries the token counts.
type StreamChunk struct {
	Content      string
	Done         bool
	InputTokens  int
	OutputTokens int
	Error        error
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*CompletionResponse, error) {
	req.Stream = false
	var out CompletionResponse
	if err := c.postJSON(ctx, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*CompletionResponse, error) {
	req.Stream = false
	var out CompletionResponse
	if err := c.postJSON(ctx, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error) {
	req.Stream = true
	return c.stream(ctx, "/api/generate", req, func(r *CompletionResponse) string {
		return r.Response
	})
}

func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	req.Stream = true
	return c.stream(ctx, "/api/chat", req, func(r *CompletionResponse) string {
		return r.Message.Content
	})
}

// stream issues the request and decodes the line-delimited JSON body
// into chunks. The channel closes after the Done chunk or an error.
func (c *Client) stream(ctx context.Context, path string, payload any, content func(*CompletionResponse) string) (<-chan StreamChunk, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	ch := make(chan StreamChunk, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		dec := json.NewDecoder(resp.Body)
		for {
			var chunk CompletionResponse
			if err := dec.Decode(&chunk); err != nil {
				if err == io.EOF {
					ch <- StreamChunk{Done: true}
				} else {
					ch <- StreamChunk{Error: err, Done: true}
				}
				return
			}
			if chunk.Done {
				ch <- StreamChunk{
					Done:         true,
					InputTokens:  chunk.PromptEvalCount,
					OutputTokens: chunk.EvalCount,
				}
				return
			}
			ch <- StreamChunk{Content: content(&chunk)}
		}
	}()
	return ch, nil
}

func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

type listModelsResp struct {
	Models []ModelInfo `json:"models"`
}

func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out listModelsResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama decode: %w", err)
	}
	return out.Models, nil
}

// ShowModel returns the raw model metadata document; its shape varies by
// model family so it passes through undecoded.
func (c *Client) ShowModel(ctx context.Context, name string) (json.RawMessage, error) {
	resp, err := c.post(ctx, "/api/show", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// PullModel downloads a model, discarding the progress stream. It blocks
// until the pull completes, so it belongs on a worker, not a handler.
func (c *Client) PullModel(ctx context.Context, name string) error {
	resp, err := c.post(ctx, "/api/pull", map[string]any{"name": name, "stream": true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var progress struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := dec.Decode(&progress); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("ollama pull: %w", err)
		}
		if progress.Error != "" {
			return &APIError{StatusCode: http.StatusBadGateway, Message: progress.Error}
		}
		if progress.Status == "success" {
			return nil
		}
	}
}

func (c *Client) DeleteModel(ctx context.Context, name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})
	httpReq, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/api/delete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama delete: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ollama encode: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama decode: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(msg, &apiErr) == nil && apiErr.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}
