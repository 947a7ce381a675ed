package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	otelapi "go.opentelemetry.io/otel"

	"github.com/skosovsky/toolserver"
	"github.com/skosovsky/toolserver/config"
	"github.com/skosovsky/toolserver/ext/toolotel"
	"github.com/skosovsky/toolserver/ollama"
	"github.com/skosovsky/toolserver/toolkits/llmtool"
)

// instrumentationName names the tracer and meter used for tool telemetry.
const instrumentationName = "github.com/skosovsky/toolserver"

// app is the wired object graph shared by the commands.
type app struct {
	logger     *slog.Logger
	backend    *ollama.Client
	dispatcher *toolserver.Dispatcher
	closers    []func(context.Context) error
}

// newApp builds the backend client, the static registry and the dispatcher from cfg.
func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	logger := config.NewLogger(cfg.Log, logOut)
	a := &app{logger: logger}

	tracerProvider := otelapi.GetTracerProvider()
	if cfg.Otel.Endpoint != "" {
		tp, err := toolotel.NewTracerProvider(ctx, cfg.Otel.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		otelapi.SetTracerProvider(tp)
		tracerProvider = tp
		a.closers = append(a.closers, tp.Shutdown)
		logger.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
	}
	otelMiddleware, err := toolotel.Middleware(
		tracerProvider.Tracer(instrumentationName),
		otelapi.GetMeterProvider().Meter(instrumentationName),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing tool observability: %w", err)
	}

	a.backend = ollama.New(ollama.Config{
		BaseURL: cfg.Backend.BaseURL,
		Path:    cfg.Backend.Path,
		Logger:  logger,
	})
	askLLM, err := llmtool.New(a.backend, llmtool.Options{
		Model:   cfg.Backend.Model,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return nil, err
	}
	reg, err := toolserver.NewRegistry(askLLM)
	if err != nil {
		return nil, err
	}
	a.dispatcher = toolserver.NewDispatcher(reg,
		toolserver.WithLogger(logger),
		toolserver.WithMiddleware(
			toolserver.WithLogging(logger),
			otelMiddleware,
		),
	)
	return a, nil
}

// close stops the dispatcher and flushes telemetry.
func (a *app) close(ctx context.Context) error {
	var firstErr error
	if err := a.dispatcher.Shutdown(ctx); err != nil {
		firstErr = err
	}
	for _, c := range a.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
