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

// Package mcp implements a stateless Model Context Protocol (MCP) server for
// the Google Chat API.  It exposes Chat operations (messages, spaces,
// members, search, webhooks) as MCP tools that AI agents discover via
// tools/list and invoke via tools/call.
//
// The package is organised around three pieces:
//
//   - a Registry of tool descriptors and handlers, populated once at startup
//     and read-only afterwards;
//   - a Dispatcher that routes JSON-RPC requests (initialize, ping,
//     tools/list, tools/call) and converts handler outcomes into response
//     envelopes;
//   - an HTTP transport serving a single POST endpoint, writing each response
//     either as plain JSON or as one terminal SSE event, fixed by server
//     configuration.
//
// Downstream Chat API rejections are reported inside a success envelope with
// isError set, so clients can tell "the tool ran and failed" apart from "the
// RPC failed".
package mcp
