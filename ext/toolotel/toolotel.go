// Package toolotel instruments toolserver tools with OpenTelemetry spans and metrics.
package toolotel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/toolserver"
)

// Metric names recorded by the middleware.
const (
	MetricInvocations = "toolserver.tool.invocations"
	MetricFailures    = "toolserver.tool.failures"
	MetricLatency     = "toolserver.tool.latency"
)

type instruments struct {
	tracer      trace.Tracer
	invocations metric.Int64Counter
	failures    metric.Int64Counter
	latency     metric.Float64Histogram
}

// Middleware returns a toolserver.Middleware that opens a "tool.execute" span per call and records
// invocation, failure and latency metrics. In-band failures mark the span as Error with the failure text.
func Middleware(tracer trace.Tracer, meter metric.Meter) (toolserver.Middleware, error) {
	invocations, err := meter.Int64Counter(
		MetricInvocations,
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(
		MetricFailures,
		metric.WithDescription("Number of tool invocations that failed in-band or at the envelope"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		MetricLatency,
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	inst := &instruments{
		tracer:      tracer,
		invocations: invocations,
		failures:    failures,
		latency:     latency,
	}
	return func(next toolserver.Tool) toolserver.Tool {
		return &tracedTool{ToolBase: toolserver.ToolBase{Next: next}, inst: inst}
	}, nil
}

type tracedTool struct {
	toolserver.ToolBase
	inst *instruments
}

func (t *tracedTool) Execute(ctx context.Context, args toolserver.Arguments) ([]toolserver.ContentItem, error) {
	name := t.Next.Name()
	ctx, span := t.inst.tracer.Start(ctx, "tool.execute",
		trace.WithAttributes(attribute.String("tool_name", name)),
	)
	defer span.End()

	start := time.Now()
	items, err := t.Next.Execute(ctx, args)
	dur := time.Since(start)

	failed := err != nil
	failureText := ""
	if err != nil {
		span.RecordError(err)
		failureText = err.Error()
	} else {
		for _, it := range items {
			if it.IsError {
				failed = true
				failureText = it.Text
				break
			}
		}
	}
	span.SetAttributes(attribute.Bool("failed", failed))
	if failed {
		span.SetStatus(codes.Error, failureText)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := metric.WithAttributes(
		attribute.String("tool_name", name),
		attribute.Bool("failed", failed),
	)
	bg := context.WithoutCancel(ctx)
	t.inst.invocations.Add(bg, 1, attrs)
	if failed {
		t.inst.failures.Add(bg, 1, attrs)
	}
	t.inst.latency.Record(bg, dur.Seconds(), attrs)
	return items, err
}
