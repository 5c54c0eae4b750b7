package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("non-streaming call should set stream=false")
		}
		json.NewEncoder(w).Encode(CompletionResponse{
			Model:           req.Model,
			Response:        "hello back",
			Done:            true,
			PromptEvalCount: 7,
			EvalCount:       3,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "hello"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Response != "hello back" || resp.PromptEvalCount != 7 || resp.EvalCount != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(CompletionResponse{Message: Message{Role: "assistant", Content: "one "}})
		enc.Encode(CompletionResponse{Message: Message{Role: "assistant", Content: "two"}})
		enc.Encode(CompletionResponse{Done: true, PromptEvalCount: 4, EvalCount: 2})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	ch, err := c.ChatStream(context.Background(), ChatRequest{
		Model:    "llama3",
		Messages: []Message{{Role: "user", Content: "count"}},
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var content string
	var final StreamChunk
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		if chunk.Done {
			final = chunk
			break
		}
		content += chunk.Content
	}

	if content != "one two" {
		t.Errorf("streamed content = %q, want %q", content, "one two")
	}
	if final.InputTokens != 4 || final.OutputTokens != 2 {
		t.Errorf("final chunk tokens = %d/%d, want 4/2", final.InputTokens, final.OutputTokens)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s, want /api/tags", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b","size":12345},{"name":"mistral","size":99}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3:8b" {
		t.Errorf("unexpected models: %+v", models)
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'nope' not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "nope", Prompt: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "model 'nope' not found" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestPullModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(map[string]string{"status": "pulling manifest"})
		enc.Encode(map[string]string{"status": "downloading"})
		enc.Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	if err := c.PullModel(context.Background(), "llama3"); err != nil {
		t.Fatalf("PullModel: %v", err)
	}
}

func TestPullModelErrorLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(map[string]string{"status": "pulling manifest"})
		enc.Encode(map[string]string{"error": "manifest unknown"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	err := c.PullModel(context.Background(), "ghost")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.Message != "manifest unknown" {
		t.Errorf("message = %q", apiErr.Message)
	}
}
