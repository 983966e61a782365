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

// In this file: search and activity tool definitions and handlers.  The Chat
// API's own filter support is narrow, so these combine API-side filters with
// client-side matching.  Scans across spaces skip spaces the caller cannot
// read.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	chatv1 "google.golang.org/api/chat/v1"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

const (
	searchSpacePageSize   = 50
	searchMessagePageSize = 20

	minActivityHours = 1
	maxActivityHours = 168
	defActivityHours = 24
	maxActivityItems = 200
	defActivityItems = 50
)

// messageHit is a search match annotated with the space it came from.
type messageHit struct {
	Space   string          `json:"space"`
	Message *chatv1.Message `json:"message"`
}

// memberHit is a member match annotated with the space it was found in.
type memberHit struct {
	Space  string             `json:"space"`
	Member *chatv1.Membership `json:"member"`
}

func (s *Server) searchTools() []serverTool {
	return []serverTool{
		{
			Tool: Tool{
				Name:        "search_messages",
				Description: "Search for messages across Google Chat spaces",
				InputSchema: objectSchema(map[string]Property{
					"query":    {Type: "string", Description: "Search query (supports text search and filters)"},
					"space":    {Type: "string", Description: "Limit search to specific space (e.g., 'spaces/AAAA1234567')"},
					"limit":    {Type: "integer", Description: "Maximum number of results (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
					"order_by": {Type: "string", Description: "Sort order for results", Enum: []string{"create_time desc", "create_time", "relevance"}, Default: "relevance"},
				}, "query"),
			},
			Handler: s.handleSearchMessages,
		},
		{
			Tool: Tool{
				Name:        "search_spaces",
				Description: "Search for Google Chat spaces by name or description",
				InputSchema: objectSchema(map[string]Property{
					"query":      {Type: "string", Description: "Search query for space names or descriptions"},
					"space_type": {Type: "string", Description: "Filter by space type", Enum: []string{"SPACE", "GROUP_CHAT", "DIRECT_MESSAGE"}},
					"limit":      {Type: "integer", Description: "Maximum number of results (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
				}, "query"),
			},
			Handler: s.handleSearchSpaces,
		},
		{
			Tool: Tool{
				Name:        "search_members",
				Description: "Search for members across spaces or within a specific space",
				InputSchema: objectSchema(map[string]Property{
					"query": {Type: "string", Description: "Search query for member names or email addresses"},
					"space": {Type: "string", Description: "Limit search to specific space (e.g., 'spaces/AAAA1234567')"},
					"limit": {Type: "integer", Description: "Maximum number of results (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
				}, "query"),
			},
			Handler: s.handleSearchMembers,
		},
		{
			Tool: Tool{
				Name:        "get_recent_activity",
				Description: "Get recent activity across accessible spaces",
				InputSchema: objectSchema(map[string]Property{
					"space":          {Type: "string", Description: "Limit to specific space (e.g., 'spaces/AAAA1234567')"},
					"hours":          {Type: "integer", Description: "Number of hours to look back (default: 24, max: 168)", Minimum: minActivityHours, Maximum: maxActivityHours, Default: defActivityHours},
					"limit":          {Type: "integer", Description: "Maximum number of activities (default: 50, max: 200)", Minimum: 1, Maximum: maxActivityItems, Default: defActivityItems},
					"activity_types": {Type: "array", Description: "Types of activities to include (default: ['MESSAGE'])", Items: &Property{Type: "string", Enum: []string{"MESSAGE", "MEMBERSHIP_CHANGE", "SPACE_UPDATE"}}},
				}),
			},
			Handler: s.handleRecentActivity,
		},
	}
}

func (s *Server) handleSearchMessages(ctx context.Context, args map[string]any) (*CallResult, error) {
	query, _ := stringArg(args, "query")
	limit := limitArg(args, "limit", defListLimit, 1, maxListLimit)
	orderBy := stringArgDefault(args, "order_by", "relevance")
	lower := strings.ToLower(query)

	var hits []messageHit

	if space, ok := stringArg(args, "space"); ok && space != "" {
		// The list API has no relevance ordering; fall back to recency.
		listOrder := orderBy
		if listOrder == "relevance" {
			listOrder = "create_time desc"
		}
		messages, err := s.client.ListMessages(ctx, space, chat.ListMessagesOptions{
			PageSize: int64(limit),
			OrderBy:  listOrder,
			Filter:   fmt.Sprintf("text:%q", query),
		})
		if err != nil {
			return s.failure(err)
		}
		for _, m := range messages {
			if strings.Contains(strings.ToLower(m.Text), lower) {
				hits = append(hits, messageHit{Space: space, Message: m})
				if len(hits) >= limit {
					break
				}
			}
		}
	} else {
		spaces, err := s.client.ListSpaces(ctx, searchSpacePageSize, "")
		if err != nil {
			return s.failure(err)
		}
	scan:
		for _, sp := range spaces {
			messages, err := s.client.ListMessages(ctx, sp.Name, chat.ListMessagesOptions{
				PageSize: searchMessagePageSize,
				OrderBy:  "create_time desc",
			})
			if err != nil {
				// Not every listed space grants message access; skip those.
				var apiErr *chat.APIError
				if errors.As(err, &apiErr) {
					s.logger.DebugContext(ctx, "skipping space", "space", sp.Name, "error", err)
					continue
				}
				return nil, err
			}
			for _, m := range messages {
				if strings.Contains(strings.ToLower(m.Text), lower) {
					hits = append(hits, messageHit{Space: sp.Name, Message: m})
					if len(hits) >= limit {
						break scan
					}
				}
			}
		}
	}

	return resultJSON(map[string]any{
		"success":  true,
		"query":    query,
		"messages": hits,
		"count":    len(hits),
	})
}

func (s *Server) handleSearchSpaces(ctx context.Context, args map[string]any) (*CallResult, error) {
	query, _ := stringArg(args, "query")
	limit := limitArg(args, "limit", defListLimit, 1, maxListLimit)
	spaceType, _ := stringArg(args, "space_type")
	lower := strings.ToLower(query)

	var filter string
	if spaceType != "" {
		filter = "spaceType=" + spaceType
	}

	spaces, err := s.client.ListSpaces(ctx, maxListLimit, filter)
	if err != nil {
		return s.failure(err)
	}

	var matches []*chatv1.Space
	for _, sp := range spaces {
		var description string
		if sp.SpaceDetails != nil {
			description = sp.SpaceDetails.Description
		}
		if strings.Contains(strings.ToLower(sp.DisplayName), lower) ||
			strings.Contains(strings.ToLower(description), lower) ||
			strings.Contains(strings.ToLower(sp.Name), lower) {
			matches = append(matches, sp)
			if len(matches) >= limit {
				break
			}
		}
	}

	return resultJSON(map[string]any{
		"success":    true,
		"query":      query,
		"spaces":     matches,
		"count":      len(matches),
		"space_type": spaceType,
	})
}

func (s *Server) handleSearchMembers(ctx context.Context, args map[string]any) (*CallResult, error) {
	query, _ := stringArg(args, "query")
	limit := limitArg(args, "limit", defListLimit, 1, maxListLimit)
	space, _ := stringArg(args, "space")
	lower := strings.ToLower(query)

	var pool []memberHit
	if space != "" {
		members, err := s.client.ListMembers(ctx, space, chat.ListMembersOptions{PageSize: maxListLimit})
		if err != nil {
			return s.failure(err)
		}
		for _, m := range members {
			pool = append(pool, memberHit{Space: space, Member: m})
		}
	} else {
		// No space given: scan every accessible space.
		spaces, err := s.client.ListSpaces(ctx, searchSpacePageSize, "")
		if err != nil {
			return s.failure(err)
		}
		for _, sp := range spaces {
			members, err := s.client.ListMembers(ctx, sp.Name, chat.ListMembersOptions{PageSize: searchSpacePageSize})
			if err != nil {
				var apiErr *chat.APIError
				if errors.As(err, &apiErr) {
					s.logger.DebugContext(ctx, "skipping space", "space", sp.Name, "error", err)
					continue
				}
				return nil, err
			}
			for _, m := range members {
				pool = append(pool, memberHit{Space: sp.Name, Member: m})
			}
		}
	}

	var matches []memberHit
	for _, h := range pool {
		m := h.Member.Member
		if m == nil {
			continue
		}
		if strings.Contains(strings.ToLower(m.DisplayName), lower) ||
			strings.Contains(strings.ToLower(m.Name), lower) {
			matches = append(matches, h)
			if len(matches) >= limit {
				break
			}
		}
	}

	return resultJSON(map[string]any{
		"success": true,
		"query":   query,
		"members": matches,
		"count":   len(matches),
		"space":   space,
	})
}

// activityItem is a single entry in a recent-activity report.
type activityItem struct {
	Type      string          `json:"type"`
	Space     string          `json:"space"`
	SpaceName string          `json:"space_name,omitempty"`
	Time      time.Time       `json:"time"`
	Message   *chatv1.Message `json:"message,omitempty"`
}

func (s *Server) handleRecentActivity(ctx context.Context, args map[string]any) (*CallResult, error) {
	hours := limitArg(args, "hours", defActivityHours, minActivityHours, maxActivityHours)
	limit := limitArg(args, "limit", defActivityItems, 1, maxActivityItems)
	types := strSliceArg(args, "activity_types")
	if len(types) == 0 {
		types = []string{"MESSAGE"}
	}
	wantMessages := false
	for _, t := range types {
		if strings.EqualFold(t, "MESSAGE") {
			wantMessages = true
		}
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var spaces []*chatv1.Space
	if space, ok := stringArg(args, "space"); ok && space != "" {
		spaces = []*chatv1.Space{{Name: space}}
	} else {
		var err error
		spaces, err = s.client.ListSpaces(ctx, searchSpacePageSize, "")
		if err != nil {
			return s.failure(err)
		}
	}

	var items []activityItem
	if wantMessages {
		for _, sp := range spaces {
			messages, err := s.client.ListMessages(ctx, sp.Name, chat.ListMessagesOptions{
				PageSize: searchMessagePageSize,
				OrderBy:  "create_time desc",
			})
			if err != nil {
				var apiErr *chat.APIError
				if errors.As(err, &apiErr) {
					s.logger.DebugContext(ctx, "skipping space", "space", sp.Name, "error", err)
					continue
				}
				return nil, err
			}
			for _, m := range messages {
				ts, err := time.Parse(time.RFC3339, m.CreateTime)
				if err != nil {
					continue
				}
				if ts.Before(cutoff) {
					continue
				}
				items = append(items, activityItem{
					Type:      "MESSAGE",
					Space:     sp.Name,
					SpaceName: sp.DisplayName,
					Time:      ts,
					Message:   m,
				})
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Time.After(items[j].Time) })
	if len(items) > limit {
		items = items[:limit]
	}

	return resultJSON(map[string]any{
		"success":  true,
		"activity": items,
		"count":    len(items),
		"hours":    hours,
	})
}
