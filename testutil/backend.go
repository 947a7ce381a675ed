package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// BackendRequest is a request received by an NDJSONBackend.
type BackendRequest struct {
	Path   string
	Model  string
	Prompt string
}

// NDJSONBackend is a scripted streaming backend. Every request is answered with the scripted lines, one
// per write, each followed by a newline and flushed. A stalled backend then keeps the stream open until
// the client goes away.
type NDJSONBackend struct {
	*httptest.Server

	lines []string

	mu       sync.Mutex
	status   int
	stall    bool
	requests []BackendRequest
}

// NewNDJSONBackend starts a backend that streams lines. Callers must Close it.
func NewNDJSONBackend(lines ...string) *NDJSONBackend {
	b := &NDJSONBackend{lines: lines, status: http.StatusOK}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

func (b *NDJSONBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	_ = json.Unmarshal(body, &req)
	b.mu.Lock()
	b.requests = append(b.requests, BackendRequest{Path: r.URL.Path, Model: req.Model, Prompt: req.Prompt})
	status, stall := b.status, b.stall
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(status)
	flusher, _ := w.(http.Flusher)
	for _, line := range b.lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if stall {
		<-r.Context().Done()
	}
}

// SetStall makes subsequent responses hang after the scripted lines instead of ending the stream.
func (b *NDJSONBackend) SetStall(stall bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stall = stall
}

// SetStatus changes the status code of subsequent responses.
func (b *NDJSONBackend) SetStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// Requests returns a copy of the requests received so far.
func (b *NDJSONBackend) Requests() []BackendRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BackendRequest(nil), b.requests...)
}
