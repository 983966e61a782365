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

// In this file: the request dispatcher.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Dispatcher routes a parsed JSON-RPC request to the matching method handler
// and converts the outcome into a response envelope.  It holds no per-request
// state; a single dispatcher serves all connections concurrently.
type Dispatcher struct {
	reg          *Registry
	info         Implementation
	instructions string
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.  info is
// returned to clients in the initialize result.
func NewDispatcher(reg *Registry, info Implementation, lg *slog.Logger) *Dispatcher {
	if lg == nil {
		lg = slog.Default()
	}
	return &Dispatcher{reg: reg, info: info, logger: lg}
}

// Dispatch handles one request and returns its response.  Notifications
// (requests without an id) return nil: per JSON-RPC they must not be answered.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != Version || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return NewError(req.ID, CodeInvalidRequest, "invalid request", nil)
	}
	if req.IsNotification() {
		d.logger.DebugContext(ctx, "notification received", "method", req.Method)
		return nil
	}

	d.logger.DebugContext(ctx, "dispatch", "method", req.Method)
	switch req.Method {
	case "initialize":
		return NewResult(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      d.info,
			Instructions:    d.instructions,
		})
	case "ping":
		return NewResult(req.ID, struct{}{})
	case "tools/list":
		return NewResult(req.ID, ListToolsResult{Tools: d.reg.Tools()})
	case "tools/call":
		return d.callTool(ctx, req)
	default:
		return NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

// callTool resolves and invokes one tool.  Name resolution happens before
// argument validation, so a call naming an unknown tool reports
// MethodNotFound even when its arguments are also bad.
func (d *Dispatcher) callTool(ctx context.Context, req *Request) (resp *Response) {
	var params CallParams
	if len(req.Params) == 0 {
		return NewError(req.ID, CodeInvalidParams, "tools/call requires params", nil)
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewError(req.ID, CodeInvalidParams, "malformed params: "+err.Error(), nil)
	}
	if params.Name == "" {
		return NewError(req.ID, CodeInvalidParams, "tool name is required", map[string]any{"field": "name"})
	}

	tool, handler, err := d.reg.Lookup(params.Name)
	if err != nil {
		return NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("tool not found: %s", params.Name), nil)
	}

	args := params.Arguments
	if args == nil {
		args = make(map[string]any)
	}
	if err := tool.InputSchema.Validate(args); err != nil {
		var ae *ArgumentError
		var data any
		if errors.As(err, &ae) {
			data = map[string]any{"field": ae.Field}
		}
		return NewError(req.ID, CodeInvalidParams, err.Error(), data)
	}

	// A handler fault must never escape to the transport without a response
	// envelope.  Full detail goes to the server log; the client receives a
	// generic message.
	defer func() {
		if p := recover(); p != nil {
			d.logger.ErrorContext(ctx, "tool handler panic", "tool", params.Name, "panic", p)
			resp = NewError(req.ID, CodeInternalError, "internal error", nil)
		}
	}()

	result, err := handler(ctx, args)
	if err != nil {
		// Handlers report argument problems the schema cannot express (a null
		// value passes type checks) as ArgumentError; those are the caller's
		// fault, not ours.
		var ae *ArgumentError
		if errors.As(err, &ae) {
			return NewError(req.ID, CodeInvalidParams, ae.Error(), map[string]any{"field": ae.Field})
		}
		d.logger.ErrorContext(ctx, "tool handler failed", "tool", params.Name, "error", err)
		return NewError(req.ID, CodeInternalError, "internal error", nil)
	}
	if result == nil {
		d.logger.ErrorContext(ctx, "tool handler returned no result", "tool", params.Name)
		return NewError(req.ID, CodeInternalError, "internal error", nil)
	}
	return NewResult(req.ID, result)
}
