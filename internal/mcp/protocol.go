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

// In this file: JSON-RPC envelope and MCP payload types.

import "encoding/json"

const (
	// Version is the JSON-RPC version tag carried by every envelope.
	Version = "2.0"
	// ProtocolVersion is the MCP protocol revision implemented by this server.
	ProtocolVersion = "2024-11-05"
)

// JSON-RPC error codes.  The -32xxx codes are the standard set; CodeToolError
// is the application-defined code for tool execution faults that cannot be
// reported inside a success envelope.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeToolError      = -32002
)

// Request is a single inbound JSON-RPC request.  ID and Params are kept raw:
// the id is echoed back verbatim, and params are decoded by the method that
// consumes them.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and therefore
// expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a single outbound JSON-RPC response.  Exactly one of Result or
// Error is set.  A nil ID marshals as null, which is the required id for
// responses to unparseable requests.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewResult constructs a success response for the given request id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError constructs an error response for the given request id.
func NewError(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message, Data: data}}
}

// Implementation identifies a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolsCapability advertises tool support in the initialize result.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities is the capability summary returned by initialize.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// InitializeResult is the result payload of the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ListToolsResult is the result payload of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallParams is the params payload of tools/call.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// TextContent is a single text content block in a tool result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the result payload of tools/call.  IsError marks tool-level
// failures (the tool ran and reported an application error); it is still
// delivered in a JSON-RPC success envelope.
type CallResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Tool describes one callable tool: a stable name, a human description and a
// JSON Schema for its arguments.  Descriptors are immutable after
// registration.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema Schema `json:"inputSchema"`
}

// Schema is the object schema for a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single argument.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Minimum     int                 `json:"minimum,omitempty"`
	Maximum     int                 `json:"maximum,omitempty"`
	Pattern     string              `json:"pattern,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// objectSchema is a convenience constructor for the common case of an object
// schema with the given properties and required field names.
func objectSchema(props map[string]Property, required ...string) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}
