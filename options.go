package toolserver

import (
	"context"
	"log/slog"
	"time"
)

// toolOptions hold optional tool settings (timeout, strict arguments, tags, version).
type toolOptions struct {
	strict  bool
	timeout time.Duration
	tags    []string
	version string
}

// ToolOption configures a tool (e.g. WithTimeout, WithStrictArguments).
type ToolOption func(*toolOptions)

// WithStrictArguments validates the raw arguments against the tool schema (required fields, enums, types)
// before decoding. Without it, missing keys decode to zero values.
func WithStrictArguments() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// WithTimeout sets a per-tool timeout. The dispatcher bounds the whole call with it.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags.
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithVersion sets the tool version.
func WithVersion(version string) ToolOption {
	return func(o *toolOptions) {
		o.version = version
	}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	timeout       time.Duration
	recoverPanics bool
	middlewares   []Middleware
	logger        *slog.Logger
	onBefore      func(context.Context, ToolCall)
	onAfter       func(context.Context, ToolCall, ExecutionSummary, time.Duration)
}

// WithDefaultTimeout sets the timeout for tools that do not declare their own. Zero disables it.
func WithDefaultTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.timeout = d
	}
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError). Enabled by default.
func WithRecoverPanics(enable bool) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.recoverPanics = enable
	}
}

// WithMiddleware wraps every registered tool (onion order: first middleware is outermost).
func WithMiddleware(middlewares ...Middleware) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithOnBeforeExecute sets a hook called before each call, including calls to unknown tools.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each call.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ExecutionSummary, time.Duration)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onAfter = fn
	}
}
