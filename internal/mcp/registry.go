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

// In this file: the tool registry.

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool is returned by Register when a tool with the same name
	// already exists.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned by Lookup for names that were never
	// registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Handler executes one tool call.  Arguments have already been validated
// against the tool's input schema.  A tool-level failure (the downstream API
// rejected the call) is reported inside the CallResult with IsError set; a
// returned error means the handler itself broke and maps to InternalError.
type Handler func(ctx context.Context, args map[string]any) (*CallResult, error)

type registryEntry struct {
	tool    Tool
	handler Handler
}

// Registry maps tool names to descriptors and handlers.  It is populated once
// at startup and never mutated afterwards, so concurrent reads need no
// locking.  Tools preserves registration order, which clients rely on for
// deterministic discovery.
type Registry struct {
	names   []string
	entries map[string]registryEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register adds one tool keyed by its name.
func (r *Registry) Register(tool Tool, h Handler) error {
	if tool.Name == "" {
		return errors.New("register: tool name is empty")
	}
	if h == nil {
		return fmt.Errorf("register %q: nil handler", tool.Name)
	}
	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("register %q: %w", tool.Name, ErrDuplicateTool)
	}
	r.names = append(r.names, tool.Name)
	r.entries[tool.Name] = registryEntry{tool: tool, handler: h}
	return nil
}

// Tools returns all registered descriptors in registration order.  The
// returned slice is a copy; the order is stable across calls.
func (r *Registry) Tools() []Tool {
	tt := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		tt = append(tt, r.entries[name].tool)
	}
	return tt
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (Tool, Handler, error) {
	e, ok := r.entries[name]
	if !ok {
		return Tool{}, nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return e.tool, e.handler, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}
