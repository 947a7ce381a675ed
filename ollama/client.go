// Package ollama is a streaming client for Ollama-compatible text-generation backends.
//
// The backend answers POST /api/generate with newline-delimited JSON objects, each carrying a
// "response" text fragment. The client consumes the stream line by line, skips lines that do not
// parse, and hands fragments to the caller in arrival order.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/skosovsky/toolserver"
)

// Defaults for Config.
const (
	DefaultBaseURL = "http://ollama-llm:11434"
	DefaultPath    = "/api/generate"
	DefaultModel   = "mistral"
)

// maxErrorBody bounds how much of a non-success response body ends up in the error text.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	Path    string
	// HTTPClient should not set a global Timeout; the request context carries the deadline.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one backend.
type Client struct {
	baseURL string
	path    string
	http    *http.Client
	logger  *slog.Logger
}

// GenerateRequest is the body of a generate call.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Fragment is one parsed stream line.
type Fragment struct {
	Text string
	Done bool
}

// StreamStats counts what happened while consuming a stream. Malformed lines are skipped, not fatal.
type StreamStats struct {
	Lines         int
	Fragments     int
	Malformed     int
	BackendErrors int
}

// New creates a Client, filling unset fields with defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, path: path, http: hc, logger: logger}
}

// Stream posts req and calls yield for every parsed line in arrival order. The response body is closed
// before Stream returns on every path. If yield returns an error, streaming stops and that error is returned.
func (c *Client) Stream(ctx context.Context, req GenerateRequest, yield func(Fragment) error) (StreamStats, error) {
	var stats StreamStats
	body, err := json.Marshal(req)
	if err != nil {
		return stats, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return stats, fmt.Errorf("%w: %w", toolserver.ErrBackendUnreachable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return stats, classify(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return stats, fmt.Errorf("%w (%d): %s", toolserver.ErrBackendStatus, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, readErr := reader.ReadBytes('\n')
		if err := c.consumeLine(line, &stats, yield); err != nil {
			return stats, err
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return stats, classify(ctx, readErr)
		}
	}
	if stats.Malformed > 0 {
		c.logger.Debug("skipped malformed stream lines", "malformed", stats.Malformed, "lines", stats.Lines)
	}
	return stats, nil
}

func (c *Client) consumeLine(line []byte, stats *StreamStats, yield func(Fragment) error) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	stats.Lines++
	if !gjson.ValidBytes(line) {
		stats.Malformed++
		return nil
	}
	res := gjson.ParseBytes(line)
	// Valid JSON that is not an object (42, "x", [1], null) carries no record either.
	if !res.IsObject() {
		stats.Malformed++
		return nil
	}
	if e := res.Get("error"); e.Exists() {
		stats.BackendErrors++
		c.logger.Warn("backend reported error in stream", "error", e.String())
	}
	stats.Fragments++
	return yield(Fragment{
		Text: res.Get("response").String(),
		Done: res.Get("done").Bool(),
	})
}

// Generate consumes the whole stream and returns the concatenated fragments, untrimmed.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, StreamStats, error) {
	var sb strings.Builder
	stats, err := c.Stream(ctx, req, func(f Fragment) error {
		sb.WriteString(f.Text)
		return nil
	})
	if err != nil {
		return "", stats, err
	}
	return sb.String(), stats, nil
}

// Ping checks that the backend answers GET /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", toolserver.ErrBackendUnreachable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w (%d)", toolserver.ErrBackendStatus, resp.StatusCode)
	}
	return nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// classify maps transport errors to ErrBackendTimeout or ErrBackendUnreachable.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", toolserver.ErrBackendTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", toolserver.ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %w", toolserver.ErrBackendUnreachable, err)
}
