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

// In this file: membership tool definitions and handlers, including
// direct-message space discovery.

import (
	"context"
	"errors"
	"fmt"

	chatv1 "google.golang.org/api/chat/v1"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

func (s *Server) memberTools() []serverTool {
	return []serverTool{
		{
			Tool: Tool{
				Name:        "list_members",
				Description: "List members of a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space":        {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567'). Uses default space if not provided."},
					"limit":        {Type: "integer", Description: "Maximum number of members to return (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
					"show_groups":  {Type: "boolean", Description: "Whether to include Google Groups in the results", Default: false},
					"show_invited": {Type: "boolean", Description: "Whether to include invited members", Default: true},
				}),
			},
			Handler: s.handleListMembers,
		},
		{
			Tool: Tool{
				Name:        "get_member",
				Description: "Get details about a specific space member",
				InputSchema: objectSchema(map[string]Property{
					"member": {Type: "string", Description: "Member name (e.g., 'spaces/AAAA1234567/members/111111111111111111111')"},
				}, "member"),
			},
			Handler: s.handleGetMember,
		},
		{
			Tool: Tool{
				Name:        "create_membership",
				Description: "Add a user to a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space": {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567'). Uses default space if not provided."},
					"user":  {Type: "string", Description: "User to add (e.g., 'users/111111111111111111111' or a bare user ID)"},
					"role":  {Type: "string", Description: "Role to grant the new member", Enum: []string{"ROLE_MEMBER", "ROLE_MANAGER"}, Default: "ROLE_MEMBER"},
				}, "user"),
			},
			Handler: s.handleCreateMembership,
		},
		{
			Tool: Tool{
				Name:        "update_membership",
				Description: "Update a member's role in a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"member":      {Type: "string", Description: "Member name (e.g., 'spaces/AAAA1234567/members/111111111111111111111')"},
					"role":        {Type: "string", Description: "New role for the member", Enum: []string{"ROLE_MEMBER", "ROLE_MANAGER"}},
					"update_mask": {Type: "string", Description: "Fields to update (default: 'role')", Default: "role"},
				}, "member", "role"),
			},
			Handler: s.handleUpdateMembership,
		},
		{
			Tool: Tool{
				Name:        "delete_membership",
				Description: "Remove a member from a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"member": {Type: "string", Description: "Member name (e.g., 'spaces/AAAA1234567/members/111111111111111111111')"},
				}, "member"),
			},
			Handler: s.handleDeleteMembership,
		},
		{
			Tool: Tool{
				Name:        "find_direct_message",
				Description: "Find an existing direct message space with a user",
				InputSchema: objectSchema(map[string]Property{
					"user": {Type: "string", Description: "User to find a DM with (e.g., 'users/111111111111111111111' or a bare user ID)"},
				}, "user"),
			},
			Handler: s.handleFindDirectMessage,
		},
	}
}

func (s *Server) handleListMembers(ctx context.Context, args map[string]any) (*CallResult, error) {
	space, err := s.spaceOrDefault(args)
	if err != nil {
		return resultErr(err), nil
	}
	opts := chat.ListMembersOptions{
		PageSize:    int64(limitArg(args, "limit", defListLimit, 1, maxListLimit)),
		ShowGroups:  boolArg(args, "show_groups", false),
		ShowInvited: boolArg(args, "show_invited", true),
	}

	members, err := s.client.ListMembers(ctx, space, opts)
	if err != nil {
		return s.failure(err)
	}

	return resultJSON(map[string]any{
		"success": true,
		"members": members,
		"count":   len(members),
		"space":   space,
	})
}

func (s *Server) handleGetMember(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "member")

	res, err := s.client.GetMember(ctx, name)
	if err != nil {
		return s.failure(err)
	}
	return resultJSON(map[string]any{
		"success": true,
		"member":  res,
	})
}

func (s *Server) handleCreateMembership(ctx context.Context, args map[string]any) (*CallResult, error) {
	space, err := s.spaceOrDefault(args)
	if err != nil {
		return resultErr(err), nil
	}
	user, _ := stringArg(args, "user")
	user = chat.NormalizeUser(user)

	membership := &chatv1.Membership{
		Role: stringArgDefault(args, "role", "ROLE_MEMBER"),
		Member: &chatv1.User{
			Name: user,
			Type: "HUMAN",
		},
	}

	res, err := s.client.CreateMembership(ctx, space, membership)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "membership created", "space", space, "user", user)
	return resultJSON(map[string]any{
		"success":    true,
		"membership": res,
		"space":      space,
		"user":       user,
	})
}

func (s *Server) handleUpdateMembership(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "member")
	role, _ := stringArg(args, "role")
	updateMask := stringArgDefault(args, "update_mask", "role")

	membership := &chatv1.Membership{Role: role}

	res, err := s.client.UpdateMembership(ctx, name, membership, updateMask)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "membership updated", "member", name, "role", role)
	return resultJSON(map[string]any{
		"success":    true,
		"membership": res,
	})
}

func (s *Server) handleDeleteMembership(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "member")

	if err := s.client.DeleteMembership(ctx, name); err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "membership deleted", "member", name)
	return resultJSON(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Member %s removed successfully", name),
	})
}

// handleFindDirectMessage scans the caller's DIRECT_MESSAGE spaces for one
// whose membership includes the given user. Not finding one is a normal
// outcome, not an error.
func (s *Server) handleFindDirectMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	user, _ := stringArg(args, "user")
	user = chat.NormalizeUser(user)

	spaces, err := s.client.ListSpaces(ctx, maxListLimit, "spaceType = \"DIRECT_MESSAGE\"")
	if err != nil {
		return s.failure(err)
	}

	for _, sp := range spaces {
		members, err := s.client.ListMembers(ctx, sp.Name, chat.ListMembersOptions{PageSize: maxListLimit})
		if err != nil {
			// Skip spaces we cannot enumerate.
			var apiErr *chat.APIError
			if errors.As(err, &apiErr) {
				s.logger.DebugContext(ctx, "skipping space", "space", sp.Name, "error", err)
				continue
			}
			return nil, err
		}
		for _, m := range members {
			if m.Member != nil && m.Member.Name == user {
				return resultJSON(map[string]any{
					"success":  true,
					"space":    sp,
					"space_id": sp.Name,
					"existing": true,
				})
			}
		}
	}

	return resultJSON(map[string]any{
		"success": false,
		"message": fmt.Sprintf("No existing direct message space found with %s", user),
		"user":    user,
	})
}
