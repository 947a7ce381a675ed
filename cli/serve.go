package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skosovsky/toolserver/mcp"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP tool server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}

	cmd.Flags().IntP("port", "p", 8000, "Listen port")
	cmd.Flags().String("host", "0.0.0.0", "Listen host")
	cmd.Flags().String("cors-origin", "*", "Allowed CORS origin")
	cmd.Flags().String("otel-endpoint", "", "OTLP/HTTP traces endpoint URL (disabled when empty)")
	cmd.Flags().Bool("no-banner", false, "Do not print the startup banner")

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	noBanner, _ := cmd.Flags().GetBool("no-banner")
	if !noBanner {
		printBanner(cmd, version)
	}

	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	srv := mcp.NewServer(mcp.Config{
		Dispatcher: a.dispatcher,
		Name:       "toolserver",
		Version:    version,
		CORSOrigin: cfg.Server.CORSOrigin,
		MaxBody:    cfg.Server.MaxBody,
		Logger:     a.logger,
	})
	httpServer := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     srv.Handler(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// No WriteTimeout: a call may stream from the backend for up to backend.timeout.
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", "addr", httpServer.Addr, "backend", a.backend.BaseURL(), "model", cfg.Backend.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return a.close(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return exitError(exitRuntime, "server error: %v", err)
	}
	return nil
}

func printBanner(cmd *cobra.Command, version string) {
	tpl := "{{ .Title \"toolserver\" \"\" 0 }}\nVersion: " + version + "\n\n"
	banner.Init(cmd.OutOrStdout(), true, true, bytes.NewBufferString(tpl))
}
