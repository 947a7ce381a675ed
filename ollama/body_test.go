package ollama

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolserver"
	"github.com/skosovsky/toolserver/testutil"
)

// closeCountingTransport wraps every response body so tests can check it was closed.
type closeCountingTransport struct {
	base   *http.Transport
	opened atomic.Int32
	closed atomic.Int32
}

func newCloseCountingTransport(t *testing.T) *closeCountingTransport {
	t.Helper()
	tr := &closeCountingTransport{base: &http.Transport{}}
	t.Cleanup(tr.base.CloseIdleConnections)
	return tr
}

func (c *closeCountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.opened.Add(1)
	resp.Body = &countingBody{ReadCloser: resp.Body, closed: &c.closed}
	return resp, nil
}

type countingBody struct {
	io.ReadCloser
	closed *atomic.Int32
}

func (b *countingBody) Close() error {
	b.closed.Add(1)
	return b.ReadCloser.Close()
}

func TestStream_ClosesBodyOnEveryPath(t *testing.T) {
	errStop := errors.New("stop")
	tests := []struct {
		name    string
		lines   []string
		status  int
		stall   bool
		timeout time.Duration
		yield   func(Fragment) error
		wantErr error
	}{
		{
			name:  "success",
			lines: []string{`{"response":"Hel"}`, `bad`, `{"response":"lo","done":true}`},
		},
		{
			name:    "non-success status",
			lines:   []string{`{"error":"boom"}`},
			status:  http.StatusInternalServerError,
			wantErr: toolserver.ErrBackendStatus,
		},
		{
			name:    "yield error",
			lines:   []string{`{"response":"a"}`, `{"response":"b"}`},
			yield:   func(Fragment) error { return errStop },
			wantErr: errStop,
		},
		{
			name:    "timeout mid-stream",
			lines:   []string{`{"response":"Hel"}`},
			stall:   true,
			timeout: 50 * time.Millisecond,
			wantErr: toolserver.ErrBackendTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewNDJSONBackend(tt.lines...)
			defer backend.Close()
			if tt.status != 0 {
				backend.SetStatus(tt.status)
			}
			backend.SetStall(tt.stall)

			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}
			yield := tt.yield
			if yield == nil {
				yield = func(Fragment) error { return nil }
			}

			tr := newCloseCountingTransport(t)
			c := New(Config{BaseURL: backend.URL, HTTPClient: &http.Client{Transport: tr}})
			_, err := c.Stream(ctx, GenerateRequest{Prompt: "x"}, yield)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, int32(1), tr.opened.Load())
			assert.Equal(t, int32(1), tr.closed.Load())
		})
	}
}

func TestPing_ClosesBody(t *testing.T) {
	backend := testutil.NewNDJSONBackend()
	defer backend.Close()
	backend.SetStatus(http.StatusBadGateway)

	tr := newCloseCountingTransport(t)
	err := New(Config{BaseURL: backend.URL, HTTPClient: &http.Client{Transport: tr}}).Ping(context.Background())
	require.ErrorIs(t, err, toolserver.ErrBackendStatus)
	assert.Equal(t, int32(1), tr.closed.Load())
}
