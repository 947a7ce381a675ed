package toolserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// UnknownToolFormat is the in-band text returned for a name absent from the registry.
const UnknownToolFormat = "❌ Unknown tool: %s"

// Dispatcher executes tool calls against a Registry. Tool failures are returned in-band as content;
// only envelope failures (bad argument types, panics, shutdown) are returned as errors.
type Dispatcher struct {
	registry *Registry
	tools    map[string]Tool // wrapped with middlewares
	opts     dispatcherOptions
	logger   *slog.Logger

	mu      sync.Mutex
	done    chan struct{}
	running sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over reg with the given options.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	o := dispatcherOptions{recoverPanics: true}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = MustRegistry()
	}
	tools := make(map[string]Tool, reg.Len())
	for _, name := range reg.order {
		t := reg.tools[name]
		for i := len(o.middlewares) - 1; i >= 0; i-- {
			t = o.middlewares[i](t)
		}
		tools[name] = t
	}
	return &Dispatcher{
		registry: reg,
		tools:    tools,
		opts:     o,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Registry returns the catalog the dispatcher serves.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Execute runs one call. Unknown tools yield a single in-band item; a tool error or a recovered panic
// is returned as err with nil content. The after-execution hook is always invoked.
func (d *Dispatcher) Execute(ctx context.Context, call ToolCall) (content []ContentItem, err error) {
	d.mu.Lock()
	select {
	case <-d.done:
		d.mu.Unlock()
		return nil, ErrShutdown
	default:
	}
	d.running.Add(1)
	d.mu.Unlock()
	defer d.running.Done()

	if call.Args == nil {
		call.Args = Arguments{}
	}

	start := time.Now()
	defer func() {
		if d.opts.onAfter == nil {
			return
		}
		summary := ExecutionSummary{
			CallID:   call.ID,
			ToolName: call.ToolName,
			Content:  content,
			Error:    err,
			Failed:   err != nil || hasFailure(content),
		}
		d.opts.onAfter(ctx, call, summary, time.Since(start))
	}()
	if d.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				d.logger.Error("tool panic", "tool", call.ToolName, "call_id", call.ID, "panic", p)
				content = nil
				err = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	if d.opts.onBefore != nil {
		d.opts.onBefore(ctx, call)
	}

	tool, ok := d.tools[call.ToolName]
	if !ok {
		d.logger.Warn("unknown tool", "tool", call.ToolName, "call_id", call.ID)
		return []ContentItem{FailureContent(ErrToolNotFound, fmt.Sprintf(UnknownToolFormat, call.ToolName))}, nil
	}
	d.logger.Debug("tool call", "tool", call.ToolName, "call_id", call.ID, "args", len(call.Args))

	timeout := d.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	content, err = tool.Execute(ctx, call.Args)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []ContentItem{}
	}
	return content, nil
}

// Shutdown closes the dispatcher for new calls and waits for in-flight calls or ctx to cancel. Every call
// waits, so a Shutdown retried after a timeout still drains the calls that were running.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	d.mu.Unlock()
	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError wraps a recovered panic value for SystemError; used by Dispatcher and WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
