package toolserver

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs start, end, duration, and failures.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{ToolBase: ToolBase{Next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{ToolBase{Next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a per-tool timeout. It also overrides the
// tool's Timeout(), so the dispatcher uses d as the outer bound.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{ToolBase: ToolBase{Next: next}, timeout: d}
	}
}

// ToolBase delegates Tool metadata and ToolMetadata to the wrapped Tool. Embed it in middleware
// wrappers (including ones outside this package) and override Execute.
type ToolBase struct{ Next Tool }

func (b *ToolBase) Name() string               { return b.Next.Name() }
func (b *ToolBase) Description() string        { return b.Next.Description() }
func (b *ToolBase) Parameters() map[string]any { return b.Next.Parameters() }

func (b *ToolBase) Timeout() time.Duration {
	if tm, ok := b.Next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (b *ToolBase) Tags() []string {
	if tm, ok := b.Next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

func (b *ToolBase) Version() string {
	if tm, ok := b.Next.(ToolMetadata); ok {
		return tm.Version()
	}
	return ""
}

type loggingTool struct {
	ToolBase
	logger *slog.Logger
}

func (m *loggingTool) Execute(ctx context.Context, args Arguments) ([]ContentItem, error) {
	m.logger.Info("tool start", "tool", m.Next.Name())
	start := time.Now()
	res, err := m.Next.Execute(ctx, args)
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("tool error", "tool", m.Next.Name(), "duration", dur, "error", err)
		return nil, err
	}
	for _, it := range res {
		if it.IsError {
			m.logger.Warn("tool failure", "tool", m.Next.Name(), "duration", dur, "text", it.Text)
			return res, nil
		}
	}
	m.logger.Info("tool end", "tool", m.Next.Name(), "duration", dur)
	return res, nil
}

type recoveryTool struct{ ToolBase }

func (r *recoveryTool) Execute(ctx context.Context, args Arguments) (res []ContentItem, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.Next.Execute(ctx, args)
}

type timeoutTool struct {
	ToolBase
	timeout time.Duration
}

func (t *timeoutTool) Timeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return t.ToolBase.Timeout()
}

func (t *timeoutTool) Execute(ctx context.Context, args Arguments) ([]ContentItem, error) {
	if t.timeout <= 0 {
		return t.Next.Execute(ctx, args)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Next.Execute(ctx, args)
}

var (
	_ Tool         = (*loggingTool)(nil)
	_ ToolMetadata = (*timeoutTool)(nil)
)
