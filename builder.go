package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"time"
)

// tool is the internal implementation of Tool built by NewTool or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	execute     func(context.Context, Arguments) ([]ContentItem, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed function. Schema generation and argument decoding are delegated
// to Extractor[T]. Returns an error if schema generation fails (e.g. unsupported type).
func NewTool[T any](
	name, description string,
	fn func(ctx context.Context, args T) ([]ContentItem, error),
	opts ...ToolOption,
) (Tool, error) {
	if fn == nil {
		return nil, errors.New("tool handler must not be nil")
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return nil, err
	}
	execute := func(ctx context.Context, raw Arguments) ([]ContentItem, error) {
		args, err := ext.Decode(raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		execute:     execute,
		opts:        o,
	}, nil
}

// NewDynamicTool creates a Tool from a raw JSON Schema map and a handler that receives the argument bag
// as is. Useful when the schema comes from configuration rather than a Go type. With WithStrictArguments
// the bag is validated against the schema first. The provided schemaMap is not mutated.
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, args Arguments) ([]ContentItem, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if schemaMap == nil {
		return nil, errors.New("dynamic schema map must not be nil")
	}
	if fn == nil {
		return nil, errors.New("dynamic tool handler must not be nil")
	}
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	var schemaCopy map[string]any
	if err := json.Unmarshal(data, &schemaCopy); err != nil {
		return nil, &SystemError{Err: err}
	}
	dropIDs(schemaCopy)
	compiled, err := compileRawSchema(schemaCopy)
	if err != nil {
		return nil, err
	}
	execute := func(ctx context.Context, args Arguments) ([]ContentItem, error) {
		if o.strict {
			v, err := normalizeArguments(args)
			if err != nil {
				return nil, wrapDecodeError(err)
			}
			if err := validateAgainstSchema(compiled, v); err != nil {
				return nil, err
			}
		}
		return fn(ctx, args)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaCopy,
		execute:     execute,
		opts:        o,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, args Arguments) ([]ContentItem, error) {
	return t.execute(ctx, args)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) Version() string        { return t.opts.version }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
