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

// In this file: space tool definitions and handlers.

import (
	"context"
	"fmt"

	chatv1 "google.golang.org/api/chat/v1"
)

func (s *Server) spaceTools() []serverTool {
	return []serverTool{
		{
			Tool: Tool{
				Name:        "list_spaces",
				Description: "List Google Chat spaces the bot has access to",
				InputSchema: objectSchema(map[string]Property{
					"limit":  {Type: "integer", Description: "Maximum number of spaces to return (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
					"filter": {Type: "string", Description: "Filter spaces by type (e.g., 'spaceType=SPACE' for group chat, 'spaceType=DIRECT_MESSAGE' for DM)"},
				}),
			},
			Handler: s.handleListSpaces,
		},
		{
			Tool: Tool{
				Name:        "get_space",
				Description: "Get details about a specific Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space": {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567')"},
				}, "space"),
			},
			Handler: s.handleGetSpace,
		},
		{
			Tool: Tool{
				Name:        "create_space",
				Description: "Create a new Google Chat space (group chat)",
				InputSchema: objectSchema(map[string]Property{
					"display_name":          {Type: "string", Description: "Display name for the new space"},
					"space_type":            {Type: "string", Description: "Type of space to create", Enum: []string{"SPACE", "GROUP_CHAT"}, Default: "SPACE"},
					"threaded":              {Type: "boolean", Description: "Whether the space should support threaded messages", Default: false},
					"external_user_allowed": {Type: "boolean", Description: "Whether external users can be added to the space", Default: false},
				}, "display_name"),
			},
			Handler: s.handleCreateSpace,
		},
		{
			Tool: Tool{
				Name:        "update_space",
				Description: "Update an existing Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space":                 {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567')"},
					"display_name":          {Type: "string", Description: "New display name for the space"},
					"threaded":              {Type: "boolean", Description: "Whether the space should support threaded messages"},
					"external_user_allowed": {Type: "boolean", Description: "Whether external users can be added to the space"},
					"update_mask":           {Type: "string", Description: "Fields to update (default: 'displayName,spaceDetails')", Default: "displayName,spaceDetails"},
				}, "space"),
			},
			Handler: s.handleUpdateSpace,
		},
		{
			Tool: Tool{
				Name:        "delete_space",
				Description: "Delete a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space": {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567')"},
				}, "space"),
			},
			Handler: s.handleDeleteSpace,
		},
	}
}

func (s *Server) handleListSpaces(ctx context.Context, args map[string]any) (*CallResult, error) {
	limit := limitArg(args, "limit", defListLimit, 1, maxListLimit)
	filter, _ := stringArg(args, "filter")

	spaces, err := s.client.ListSpaces(ctx, int64(limit), filter)
	if err != nil {
		return s.failure(err)
	}

	return resultJSON(map[string]any{
		"success": true,
		"spaces":  spaces,
		"count":   len(spaces),
	})
}

func (s *Server) handleGetSpace(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "space")

	res, err := s.client.GetSpace(ctx, name)
	if err != nil {
		return s.failure(err)
	}
	return resultJSON(map[string]any{
		"success": true,
		"space":   res,
	})
}

func (s *Server) handleCreateSpace(ctx context.Context, args map[string]any) (*CallResult, error) {
	displayName, _ := stringArg(args, "display_name")

	space := &chatv1.Space{
		DisplayName: displayName,
		SpaceType:   stringArgDefault(args, "space_type", "SPACE"),
		SpaceDetails: &chatv1.SpaceDetails{
			Guidelines: "Space created via MCP server",
		},
	}
	if _, ok := args["threaded"]; ok {
		if boolArg(args, "threaded", false) {
			space.SpaceThreadingState = "THREADED_MESSAGES"
		} else {
			space.SpaceThreadingState = "UNTHREADED_MESSAGES"
		}
	}
	if _, ok := args["external_user_allowed"]; ok {
		space.ExternalUserAllowed = boolArg(args, "external_user_allowed", false)
	}

	res, err := s.client.CreateSpace(ctx, space)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "space created", "space", res.Name)
	return resultJSON(map[string]any{
		"success":  true,
		"space":    res,
		"space_id": res.Name,
	})
}

func (s *Server) handleUpdateSpace(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "space")
	updateMask := stringArgDefault(args, "update_mask", "displayName,spaceDetails")

	space := &chatv1.Space{}
	if displayName, ok := stringArg(args, "display_name"); ok {
		space.DisplayName = displayName
	}
	if _, ok := args["threaded"]; ok {
		if boolArg(args, "threaded", false) {
			space.SpaceThreadingState = "THREADED_MESSAGES"
		} else {
			space.SpaceThreadingState = "UNTHREADED_MESSAGES"
		}
	}
	if _, ok := args["external_user_allowed"]; ok {
		space.ExternalUserAllowed = boolArg(args, "external_user_allowed", false)
	}

	res, err := s.client.UpdateSpace(ctx, name, space, updateMask)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "space updated", "space", name)
	return resultJSON(map[string]any{
		"success": true,
		"space":   res,
	})
}

func (s *Server) handleDeleteSpace(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "space")

	if err := s.client.DeleteSpace(ctx, name); err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "space deleted", "space", name)
	return resultJSON(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Space %s deleted successfully", name),
	})
}
