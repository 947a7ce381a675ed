// Package llmtool provides the ask_llm tool: it forwards a prompt to a streaming text-generation
// backend and answers with the aggregated text as a single content item.
package llmtool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skosovsky/toolserver"
	"github.com/skosovsky/toolserver/ollama"
)

// Name is the registered tool name.
const Name = "ask_llm"

// In-band texts produced by the tool.
const (
	NoPromptText     = "❌ No prompt provided."
	NoResponseText   = "[⚠️ No response from model]"
	ResponsePrefix   = "🧠 LLM response: "
	CallFailedFormat = "❌ LLM call failed: %v"
)

// DefaultTimeout bounds the whole backend stream.
const DefaultTimeout = 120 * time.Second

// Generator is the backend the tool talks to. *ollama.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, ollama.StreamStats, error)
}

// Options configures the tool.
type Options struct {
	Model   string
	Timeout time.Duration
}

// Args are the tool arguments.
type Args struct {
	Prompt string `json:"prompt" description:"Prompt for the language model"`
}

// New builds the ask_llm tool over gen.
func New(gen Generator, opts Options) (toolserver.Tool, error) {
	if gen == nil {
		return nil, errors.New("llmtool: generator must not be nil")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = ollama.DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &handler{gen: gen, model: model}
	return toolserver.NewTool(
		Name,
		fmt.Sprintf("Ask the local LLM (Ollama - %s)", model),
		h.ask,
		toolserver.WithTimeout(timeout),
		toolserver.WithTags("llm"),
	)
}

type handler struct {
	gen   Generator
	model string
}

func (h *handler) ask(ctx context.Context, args Args) ([]toolserver.ContentItem, error) {
	prompt := strings.TrimSpace(args.Prompt)
	if prompt == "" {
		return []toolserver.ContentItem{toolserver.FailureContent(toolserver.ErrEmptyPrompt, NoPromptText)}, nil
	}
	text, _, err := h.gen.Generate(ctx, ollama.GenerateRequest{Model: h.model, Prompt: prompt})
	if err != nil {
		return []toolserver.ContentItem{toolserver.FailureContent(err, fmt.Sprintf(CallFailedFormat, err))}, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoResponseText
	}
	return []toolserver.ContentItem{toolserver.TextContent(ResponsePrefix + text)}, nil
}
