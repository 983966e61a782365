// Copyright (c) 2025-2026 The gchatmcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mcp

// In this file: the HTTP transport.  A single POST endpoint carries one
// JSON-RPC request per call; the response is written either as a plain JSON
// body or as a single terminal SSE event, selected by server configuration.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// ResponseMode selects how the transport writes responses.
type ResponseMode string

const (
	// ModeSSE frames each response as one text/event-stream event.
	ModeSSE ResponseMode = "sse"
	// ModeJSON writes each response as a single application/json body.
	ModeJSON ResponseMode = "json"
)

// ParseResponseMode converts a CLI/env value into a ResponseMode.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch strings.ToLower(s) {
	case "sse", "":
		return ModeSSE, nil
	case "json":
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown response mode %q (use \"sse\" or \"json\")", s)
	}
}

const maxBodySize = 4 << 20 // 4 MiB

// routes builds the HTTP handler: the MCP endpoint plus a health check for
// deployment probes.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp", s.handleRPC)
	mux.HandleFunc("GET /healthcheck", healthcheck)
	return middleware.Logger(mux)
}

func healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleRPC processes one JSON-RPC request.  Transport-level failures still
// produce a valid response envelope; the connection is never dropped without
// a body.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	s.checkAccept(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeResponse(w, NewError(nil, CodeInvalidRequest, "unable to read request body", nil))
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		// Batched requests are out of scope.
		s.writeResponse(w, NewError(nil, CodeInvalidRequest, "batch requests are not supported", nil))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Valid JSON, wrong envelope shape.  Recover the id if the body
			// has one.
			s.writeResponse(w, NewError(recoverID(body), CodeInvalidRequest, "invalid request", nil))
			return
		}
		s.writeResponse(w, NewError(nil, CodeParseError, "parse error", nil))
		return
	}

	resp := s.disp.Dispatch(ctx, &req)
	if resp == nil {
		// Notification: accepted, nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.writeResponse(w, resp)
}

// recoverID extracts the request id from a body that decoded as JSON but not
// as a request envelope.  Returns nil (marshalled as null) when no id can be
// recovered.
func recoverID(body []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}
	return probe.ID
}

// checkAccept warns when the client does not advertise both response content
// types.  The request is served regardless.
func (s *Server) checkAccept(r *http.Request) {
	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "application/json") || !strings.Contains(accept, "text/event-stream") {
		s.logger.WarnContext(r.Context(), "client Accept header should list both application/json and text/event-stream",
			"accept", accept)
	}
}

// writeResponse serialises resp in the configured mode.
func (s *Server) writeResponse(w http.ResponseWriter, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		// Result payloads are built from JSON-decoded values and own structs,
		// so this should be unreachable; answer with a static envelope rather
		// than cutting the connection.
		s.logger.Error("response marshal failed", "error", err)
		data = fmt.Appendf(nil, `{"jsonrpc":"2.0","id":null,"error":{"code":%d,"message":"internal error"}}`, CodeInternalError)
	}

	switch s.mode {
	case ModeJSON:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	default: // ModeSSE
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
