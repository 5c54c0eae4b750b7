package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/usage"
	"github.com/MichaelPatrick99/OLLAMA-API/pkg/tokenizer"
)

// LLMHandler proxies inference requests to the local Ollama server. It
// fills the request's usage metadata with the model and token counts so
// the mediator records them.
type LLMHandler struct {
	client       *ollama.Client
	defaultModel string
}

func NewLLMHandler(client *ollama.Client, defaultModel string) *LLMHandler {
	return &LLMHandler{client: client, defaultModel: defaultModel}
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt" validate:"required"`
	System      string  `json:"system"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `json:"max_tokens" validate:"min=0"`
	TopP        float64 `json:"top_p" validate:"min=0,max=1"`
}

func (h *LLMHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeValid(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	meta, _ := usage.MetaFrom(r.Context())
	if meta != nil {
		meta.Model = req.Model
	}

	oReq := ollama.GenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Options: options(req.Temperature, req.MaxTokens, req.TopP),
	}

	if req.Stream {
		ch, err := h.client.GenerateStream(r.Context(), oReq)
		if err != nil {
			WriteError(w, err)
			return
		}
		h.streamResponse(w, ch, meta)
		return
	}

	resp, err := h.client.Generate(r.Context(), oReq)
	if err != nil {
		WriteError(w, err)
		return
	}
	if meta != nil {
		meta.PromptTokens = resp.PromptEvalCount
		if meta.PromptTokens == 0 {
			meta.PromptTokens = tokenizer.Estimate(req.Prompt)
		}
		meta.CompletionTokens = resp.EvalCount
	}
	WriteJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []ollama.Message `json:"messages" validate:"required,min=1,dive"`
	Stream      bool             `json:"stream"`
	Temperature float64          `json:"temperature" validate:"min=0,max=2"`
	MaxTokens   int              `json:"max_tokens" validate:"min=0"`
	TopP        float64          `json:"top_p" validate:"min=0,max=1"`
}

func (h *LLMHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeValid(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	meta, _ := usage.MetaFrom(r.Context())
	if meta != nil {
		meta.Model = req.Model
	}

	oReq := ollama.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  options(req.Temperature, req.MaxTokens, req.TopP),
	}

	if req.Stream {
		ch, err := h.client.ChatStream(r.Context(), oReq)
		if err != nil {
			WriteError(w, err)
			return
		}
		h.streamResponse(w, ch, meta)
		return
	}

	resp, err := h.client.Chat(r.Context(), oReq)
	if err != nil {
		WriteError(w, err)
		return
	}
	if meta != nil {
		meta.PromptTokens = resp.PromptEvalCount
		if meta.PromptTokens == 0 {
			contents := make([]string, len(req.Messages))
			for i, m := range req.Messages {
				contents[i] = m.Content
			}
			meta.PromptTokens = tokenizer.EstimateMessages(contents...)
		}
		meta.CompletionTokens = resp.EvalCount
	}
	WriteJSON(w, http.StatusOK, resp)
}

func options(temperature float64, maxTokens int, topP float64) *ollama.Options {
	if temperature == 0 && maxTokens == 0 && topP == 0 {
		return nil
	}
	return &ollama.Options{
		Temperature: temperature,
		NumPredict:  maxTokens,
		TopP:        topP,
	}
}

type streamEvent struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

// streamResponse relays chunks as server-sent events; the final chunk's
// token counts land in the usage metadata.
func (h *LLMHandler) streamResponse(w http.ResponseWriter, ch <-chan ollama.StreamChunk, meta *usage.Meta) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for chunk := range ch {
		ev := streamEvent{Content: chunk.Content, Done: chunk.Done}
		if chunk.Error != nil {
			ev.Error = chunk.Error.Error()
			if meta != nil {
				meta.StreamFailed = true
			}
		}

		data, _ := json.Marshal(ev)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()

		if chunk.Done {
			if meta != nil && chunk.Error == nil {
				meta.PromptTokens = chunk.InputTokens
				meta.CompletionTokens = chunk.OutputTokens
			}
			return
		}
	}
}
