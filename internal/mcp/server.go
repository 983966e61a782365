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

// In this file: MCP server construction and serving.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

const (
	serverName    = "google-chat-mcp"
	serverVersion = "0.1.0"
)

// Server wires the dispatch core to the Google Chat tool handlers.  All state
// (registry, client handle, configuration) is fixed at construction; serving
// is stateless across requests.
type Server struct {
	client       chat.Client
	webhook      *chat.WebhookClient
	defaultSpace string
	mode         ResponseMode
	logger       *slog.Logger

	reg  *Registry
	disp *Dispatcher
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithResponseMode fixes the transport response mode (sse or json).
func WithResponseMode(m ResponseMode) Option {
	return func(s *Server) {
		s.mode = m
	}
}

// WithDefaultSpace sets the space used by space-taking tools when the call
// does not name one.
func WithDefaultSpace(space string) Option {
	return func(s *Server) {
		s.defaultSpace = space
	}
}

// WithWebhookClient overrides the webhook HTTP client.
func WithWebhookClient(wc *chat.WebhookClient) Option {
	return func(s *Server) {
		s.webhook = wc
	}
}

// New creates an MCP server backed by the given Chat API client.  The tool
// catalog is registered in a fixed order (messages, spaces, members, search,
// webhooks) and never changes afterwards.
func New(client chat.Client, opts ...Option) (*Server, error) {
	s := &Server{
		client: client,
		mode:   ModeSSE,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.webhook == nil {
		s.webhook = chat.NewWebhookClient(nil)
	}

	s.reg = NewRegistry()
	for _, t := range s.tools() {
		if err := s.reg.Register(t.Tool, t.Handler); err != nil {
			return nil, fmt.Errorf("mcp: %w", err)
		}
	}
	s.disp = NewDispatcher(s.reg, Implementation{Name: serverName, Version: serverVersion}, s.logger)
	s.disp.instructions = instructions(s.defaultSpace)
	return s, nil
}

// instructions returns the server instructions shown to the connecting agent.
func instructions(defaultSpace string) string {
	base := `You are connected to a Google Chat MCP server.

Available tools let you send, list, update and delete messages, manage spaces
and their members, search across spaces, and work with incoming webhooks.
Space names use the form "spaces/AAAA1234567"; message and member names are
full resource names such as "spaces/AAAA1234567/messages/xyz".`
	if defaultSpace != "" {
		return base + fmt.Sprintf("\n\nTools that take a space argument default to %q when it is omitted.", defaultSpace)
	}
	return base
}

// serverTool pairs a descriptor with its handler for registration.
type serverTool struct {
	Tool    Tool
	Handler Handler
}

// tools returns the full catalog in registration order.
func (s *Server) tools() []serverTool {
	var tt []serverTool
	tt = append(tt, s.messageTools()...)
	tt = append(tt, s.spaceTools()...)
	tt = append(tt, s.memberTools()...)
	tt = append(tt, s.searchTools()...)
	tt = append(tt, s.webhookTools()...)
	return tt
}

// Serve runs the HTTP transport on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: s.routes()}

	s.logger.InfoContext(ctx, "mcp server listening", "addr", addr, "mode", s.mode, "tools", s.reg.Len())

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := httpSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// errNoSpace is reported when a space-taking tool has neither an explicit
// space argument nor a configured default.
var errNoSpace = errors.New("no space specified and no default space configured")

// spaceOrDefault resolves the space for a tool call.
func (s *Server) spaceOrDefault(args map[string]any) (string, error) {
	if space, ok := stringArg(args, "space"); ok && space != "" {
		return space, nil
	}
	if s.defaultSpace != "" {
		return s.defaultSpace, nil
	}
	return "", errNoSpace
}

// failure converts a handler error into the proper outcome: downstream API
// rejections become tool-level results (IsError set, success envelope),
// anything else propagates and maps to InternalError at the dispatcher.
func (s *Server) failure(err error) (*CallResult, error) {
	var apiErr *chat.APIError
	if errors.As(err, &apiErr) {
		return resultErr(errors.New(apiErr.UserMessage())), nil
	}
	return nil, err
}

// resultText wraps text in a successful CallResult.
func resultText(text string) *CallResult {
	return &CallResult{Content: []TextContent{{Type: "text", Text: text}}}
}

// resultErr wraps an error in a CallResult with IsError set.
func resultErr(err error) *CallResult {
	return &CallResult{Content: []TextContent{{Type: "text", Text: err.Error()}}, IsError: true}
}

// resultJSON serialises v to indented JSON in a successful CallResult.
func resultJSON(v any) (*CallResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialise result: %w", err)
	}
	return resultText(string(data)), nil
}

// stringArg extracts a named string argument.  Returns ("", false) when the
// argument is absent or not a string.
func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// stringArgDefault extracts a named string argument, falling back to
// defaultVal when absent or empty.
func stringArgDefault(args map[string]any, name, defaultVal string) string {
	if s, ok := stringArg(args, name); ok && s != "" {
		return s
	}
	return defaultVal
}

// intArg extracts a named int argument.  JSON numbers decode as float64, so
// both representations are accepted.
func intArg(args map[string]any, name string, defaultVal int) int {
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}

// boolArg extracts a named bool argument.
func boolArg(args map[string]any, name string, defaultVal bool) bool {
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// limitArg extracts a page limit clamped to [minVal, maxVal].
func limitArg(args map[string]any, name string, defaultVal, minVal, maxVal int) int {
	return max(min(intArg(args, name, defaultVal), maxVal), minVal)
}

// strSliceArg extracts a named array-of-strings argument, skipping non-string
// elements.
func strSliceArg(args map[string]any, name string) []string {
	v, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, el := range v {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// mapSliceArg extracts a named array-of-objects argument, skipping non-object
// elements.
func mapSliceArg(args map[string]any, name string) []map[string]any {
	v, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(v))
	for _, el := range v {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
