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

// In this file: message tool definitions and handlers.

import (
	"context"
	"encoding/json"
	"fmt"

	chatv1 "google.golang.org/api/chat/v1"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

const (
	defListLimit = 25
	maxListLimit = 100
)

func (s *Server) messageTools() []serverTool {
	return []serverTool{
		{
			Tool: Tool{
				Name:        "send_message",
				Description: "Send a message to a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space":  {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567') or leave empty for default space"},
					"text":   {Type: "string", Description: "Plain text message to send"},
					"cards":  {Type: "array", Description: "Card messages (rich content)", Items: &Property{Type: "object"}},
					"thread": {Type: "string", Description: "Thread key to reply to (optional)"},
				}, "text"),
			},
			Handler: s.handleSendMessage,
		},
		{
			Tool: Tool{
				Name:        "list_messages",
				Description: "List messages in a Google Chat space",
				InputSchema: objectSchema(map[string]Property{
					"space":    {Type: "string", Description: "Space name (e.g., 'spaces/AAAA1234567') or leave empty for default space"},
					"limit":    {Type: "integer", Description: "Maximum number of messages to return (default: 25, max: 100)", Minimum: 1, Maximum: maxListLimit, Default: defListLimit},
					"order_by": {Type: "string", Description: "Order messages by (create_time desc or create_time)", Enum: []string{"create_time desc", "create_time"}, Default: "create_time desc"},
				}),
			},
			Handler: s.handleListMessages,
		},
		{
			Tool: Tool{
				Name:        "get_message",
				Description: "Get a specific message by ID",
				InputSchema: objectSchema(map[string]Property{
					"message": {Type: "string", Description: "Full message name (e.g., 'spaces/AAAA1234567/messages/xyz')"},
				}, "message"),
			},
			Handler: s.handleGetMessage,
		},
		{
			Tool: Tool{
				Name:        "update_message",
				Description: "Update an existing message",
				InputSchema: objectSchema(map[string]Property{
					"message":     {Type: "string", Description: "Full message name (e.g., 'spaces/AAAA1234567/messages/xyz')"},
					"text":        {Type: "string", Description: "New text content"},
					"cards":       {Type: "array", Description: "New card content", Items: &Property{Type: "object"}},
					"update_mask": {Type: "string", Description: "Fields to update (default: 'text,cards')", Default: "text,cards"},
				}, "message"),
			},
			Handler: s.handleUpdateMessage,
		},
		{
			Tool: Tool{
				Name:        "delete_message",
				Description: "Delete a message",
				InputSchema: objectSchema(map[string]Property{
					"message": {Type: "string", Description: "Full message name (e.g., 'spaces/AAAA1234567/messages/xyz')"},
				}, "message"),
			},
			Handler: s.handleDeleteMessage,
		},
	}
}

// cardsFromArgs decodes the "cards" argument into typed card structures via a
// JSON round trip.  Absent cards yield (nil, nil).
func cardsFromArgs(args map[string]any) ([]*chatv1.Card, error) {
	v, ok := args["cards"]
	if !ok || v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cards: encode: %w", err)
	}
	var cards []*chatv1.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("cards: not a valid card list: %w", err)
	}
	return cards, nil
}

func (s *Server) handleSendMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	space, err := s.spaceOrDefault(args)
	if err != nil {
		return resultErr(err), nil
	}

	msg := &chatv1.Message{}
	if text, ok := stringArg(args, "text"); ok {
		msg.Text = text
	}
	cards, err := cardsFromArgs(args)
	if err != nil {
		return resultErr(err), nil
	}
	msg.Cards = cards
	if thread, ok := stringArg(args, "thread"); ok && thread != "" {
		msg.Thread = &chatv1.Thread{Name: thread}
	}

	res, err := s.client.SendMessage(ctx, space, msg)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "message sent", "space", space, "message", res.Name)
	return resultJSON(map[string]any{
		"success":    true,
		"message":    res,
		"message_id": res.Name,
		"space":      space,
	})
}

func (s *Server) handleListMessages(ctx context.Context, args map[string]any) (*CallResult, error) {
	space, err := s.spaceOrDefault(args)
	if err != nil {
		return resultErr(err), nil
	}
	limit := limitArg(args, "limit", defListLimit, 1, maxListLimit)
	orderBy := stringArgDefault(args, "order_by", "create_time desc")

	msgs, err := s.client.ListMessages(ctx, space, chat.ListMessagesOptions{
		PageSize: int64(limit),
		OrderBy:  orderBy,
	})
	if err != nil {
		return s.failure(err)
	}

	return resultJSON(map[string]any{
		"success":  true,
		"messages": msgs,
		"count":    len(msgs),
		"space":    space,
	})
}

func (s *Server) handleGetMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "message")

	res, err := s.client.GetMessage(ctx, name)
	if err != nil {
		return s.failure(err)
	}
	return resultJSON(map[string]any{
		"success": true,
		"message": res,
	})
}

func (s *Server) handleUpdateMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "message")
	updateMask := stringArgDefault(args, "update_mask", "text,cards")

	msg := &chatv1.Message{}
	if text, ok := stringArg(args, "text"); ok {
		msg.Text = text
	}
	cards, err := cardsFromArgs(args)
	if err != nil {
		return resultErr(err), nil
	}
	msg.Cards = cards

	res, err := s.client.UpdateMessage(ctx, name, msg, updateMask)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "message updated", "message", name)
	return resultJSON(map[string]any{
		"success": true,
		"message": res,
	})
}

func (s *Server) handleDeleteMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	name, _ := stringArg(args, "message")

	if err := s.client.DeleteMessage(ctx, name); err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "message deleted", "message", name)
	return resultJSON(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Message %s deleted successfully", name),
	})
}
