package toolserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubTool is a minimal Tool for package tests.
type stubTool struct {
	name string
	desc string
	fn   func(ctx context.Context, args Arguments) ([]ContentItem, error)
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return s.desc }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }

func (s *stubTool) Execute(ctx context.Context, args Arguments) ([]ContentItem, error) {
	if s.fn == nil {
		return []ContentItem{TextContent(s.name)}, nil
	}
	return s.fn(ctx, args)
}

func TestContentItem_JSON(t *testing.T) {
	data, err := json.Marshal([]ContentItem{TextContent("ok"), FailureContent(ErrBackendTimeout, "❌ bad")})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"ok"},{"type":"text","text":"❌ bad"}]`, string(data))
}

func TestContentItem_Constructors(t *testing.T) {
	ok := TextContent("a")
	assert.Equal(t, ContentTypeText, ok.Type)
	assert.False(t, ok.IsError)
	bad := ErrorContent("b")
	assert.Equal(t, ContentTypeText, bad.Type)
	assert.True(t, bad.IsError)
	failure := FailureContent(ErrEmptyPrompt, "c")
	assert.True(t, failure.IsError)
	assert.ErrorIs(t, failure.Cause, ErrEmptyPrompt)
	assert.True(t, hasFailure([]ContentItem{ok, bad}))
	assert.False(t, hasFailure([]ContentItem{ok}))
	assert.False(t, hasFailure(nil))
}

func TestArguments_Clone(t *testing.T) {
	var nilArgs Arguments
	assert.NotNil(t, nilArgs.Clone())
	assert.Empty(t, nilArgs.Clone())

	a := Arguments{"prompt": "hi"}
	c := a.Clone()
	c["prompt"] = "changed"
	assert.Equal(t, "hi", a["prompt"])
}

func TestDescriptor(t *testing.T) {
	d := Descriptor(&stubTool{name: "echo", desc: "Echo"})
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, "Echo", d.Description)
	assert.Equal(t, map[string]any{"type": "object"}, d.InputSchema)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"echo","description":"Echo","inputSchema":{"type":"object"}}`, string(data))
}
