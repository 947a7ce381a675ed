package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/skosovsky/toolserver"
)

// CallIDHeader carries the generated call ID back to the client.
const CallIDHeader = "X-Call-ID"

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string   `json:"message"`
	Tools   []string `json:"tools"`
}

// ToolsResponse is the body of GET /tools.
type ToolsResponse struct {
	Tools []toolserver.ToolDescriptor `json:"tools"`
}

// CallToolRequest is the body of POST /call-tool. Name is required but may be empty; an empty or
// unregistered name gets the in-band unknown-tool item.
type CallToolRequest struct {
	Name      *string              `json:"name"`
	Arguments toolserver.Arguments `json:"arguments"`
}

// CallToolResponse is the envelope of POST /call-tool. Error is null unless Success is false.
type CallToolResponse struct {
	Success bool                     `json:"success"`
	Result  []toolserver.ContentItem `json:"result"`
	Error   *string                  `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: fmt.Sprintf("🎉 %s is running", s.name),
		Tools:   s.dispatcher.Registry().Names(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: s.dispatcher.Registry().ListTools()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleCallTool decodes the request, runs the dispatcher and always answers 200 with an envelope.
// In-band tool failures are success=true; only dispatcher errors produce success=false.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeValidationError(w, http.StatusRequestEntityTooLarge, "request body exceeds size limit")
			return
		}
		writeValidationError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if req.Name == nil {
		writeValidationError(w, http.StatusUnprocessableEntity, "field required: name")
		return
	}
	name := *req.Name
	if req.Arguments == nil {
		req.Arguments = toolserver.Arguments{}
	}

	callID := uuid.NewString()
	w.Header().Set(CallIDHeader, callID)
	s.logger.Info("tool called", "tool", name, "call_id", callID, "arguments", req.Arguments)

	content, err := s.dispatcher.Execute(r.Context(), toolserver.ToolCall{
		ID:       callID,
		ToolName: name,
		Args:     req.Arguments,
	})
	if err != nil {
		s.logger.Error("tool call failed", "tool", name, "call_id", callID, "error", err)
	}
	writeJSON(w, http.StatusOK, NewEnvelope(content, err))
}

// NewEnvelope builds the call-tool envelope. A non-nil err yields success=false with an empty result;
// otherwise the content is returned as is with a null error.
func NewEnvelope(content []toolserver.ContentItem, err error) CallToolResponse {
	if err != nil {
		msg := err.Error()
		return CallToolResponse{
			Success: false,
			Result:  []toolserver.ContentItem{},
			Error:   &msg,
		}
	}
	if content == nil {
		content = []toolserver.ContentItem{}
	}
	return CallToolResponse{Success: true, Result: content}
}
