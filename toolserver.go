package toolserver

import (
	"context"
	"maps"
	"time"
)

// ContentTypeText is the only content type produced by tools.
const ContentTypeText = "text"

// Tool is the contract for a callable tool exposed by the server.
//
// Execute returns the content items of the call. Tool-level failures (bad prompt, unreachable backend)
// are reported in-band as content with IsError set, never as an error. A non-nil error means the
// response envelope itself cannot be built (e.g. argument of the wrong type); the transport reports it
// with success=false.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema of the arguments as a map.
	Parameters() map[string]any
	Execute(ctx context.Context, args Arguments) ([]ContentItem, error)
}

// ToolMetadata is implemented by tools created with NewTool. The dispatcher uses Timeout() to bound
// the whole call when it is set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
}

// Arguments is the argument bag of one call. It is owned by the caller and never mutated by the dispatcher.
type Arguments map[string]any

// Clone returns a shallow copy of a.
func (a Arguments) Clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	return maps.Clone(a)
}

// ContentItem is a single unit of tool output. IsError marks in-band failures for hooks and metrics and
// Cause optionally names the failure for errors.Is; neither is part of the wire format.
type ContentItem struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsError bool   `json:"-"`
	Cause   error  `json:"-"`
}

// TextContent returns a text item.
func TextContent(text string) ContentItem {
	return ContentItem{Type: ContentTypeText, Text: text}
}

// ErrorContent returns a text item flagged as an in-band failure.
func ErrorContent(text string) ContentItem {
	return ContentItem{Type: ContentTypeText, Text: text, IsError: true}
}

// FailureContent is ErrorContent with the failure cause attached.
func FailureContent(cause error, text string) ContentItem {
	return ContentItem{Type: ContentTypeText, Text: text, IsError: true, Cause: cause}
}

// ToolDescriptor is the listing form of a tool.
type ToolDescriptor struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"inputSchema" yaml:"inputSchema"`
}

// Descriptor returns the descriptor of t.
func Descriptor(t Tool) ToolDescriptor {
	return ToolDescriptor{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.Parameters(),
	}
}

// ToolCall is a single execution request.
type ToolCall struct {
	ID       string
	ToolName string
	Args     Arguments
}

// ExecutionSummary is passed to the after-execution hook (WithOnAfterExecute) when a call finishes.
// Error is set only for envelope failures; Failed is also true when any content item is an in-band failure.
type ExecutionSummary struct {
	CallID   string
	ToolName string
	Content  []ContentItem
	Error    error
	Failed   bool
}

// hasFailure reports whether any item is an in-band failure.
func hasFailure(items []ContentItem) bool {
	for _, it := range items {
		if it.IsError {
			return true
		}
	}
	return false
}
