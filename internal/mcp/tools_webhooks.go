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

// In this file: webhook tool definitions and handlers.  send_webhook_message
// talks to an incoming-webhook URL directly; the card tools only build and
// return card structures; none of them need Google credentials.

import (
	"context"
	"time"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

func (s *Server) webhookTools() []serverTool {
	buttonItems := &Property{
		Type: "object",
		Properties: map[string]Property{
			"text":   {Type: "string", Description: "Button label"},
			"url":    {Type: "string", Description: "URL to open when clicked"},
			"action": {Type: "string", Description: "Action method name to invoke when clicked"},
		},
		Required: []string{"text"},
	}

	return []serverTool{
		{
			Tool: Tool{
				Name:        "send_webhook_message",
				Description: "Send a message to a Google Chat incoming webhook URL",
				InputSchema: objectSchema(map[string]Property{
					"webhook_url": {Type: "string", Description: "Incoming webhook URL for the target space"},
					"text":        {Type: "string", Description: "Plain text message to send"},
					"cards":       {Type: "array", Description: "Card messages (rich content)", Items: &Property{Type: "object"}},
					"thread":      {Type: "string", Description: "Thread name to post the message into an existing thread"},
				}, "webhook_url"),
			},
			Handler: s.handleSendWebhookMessage,
		},
		{
			Tool: Tool{
				Name:        "create_card_message",
				Description: "Create a rich card message for Google Chat",
				InputSchema: objectSchema(map[string]Property{
					"title":     {Type: "string", Description: "Card title"},
					"subtitle":  {Type: "string", Description: "Card subtitle"},
					"text":      {Type: "string", Description: "Card text content"},
					"image_url": {Type: "string", Description: "URL of image to include in card"},
					"buttons":   {Type: "array", Description: "Action buttons for the card", Items: buttonItems},
					"color":     {Type: "string", Description: "Accent color for the card (hex color code)", Pattern: "^#[0-9A-Fa-f]{6}$"},
				}, "title"),
			},
			Handler: s.handleCreateCardMessage,
		},
		{
			Tool: Tool{
				Name:        "parse_webhook_event",
				Description: "Parse an incoming webhook event from Google Chat",
				InputSchema: objectSchema(map[string]Property{
					"event_data": {Type: "object", Description: "Raw event data from Google Chat webhook"},
				}, "event_data"),
			},
			Handler: s.handleParseWebhookEvent,
		},
		{
			Tool: Tool{
				Name:        "validate_webhook_signature",
				Description: "Validate the signature of an incoming webhook request",
				InputSchema: objectSchema(map[string]Property{
					"request_body":   {Type: "string", Description: "Raw request body from webhook"},
					"signature":      {Type: "string", Description: "X-Goog-Chat-Request-Signature header value"},
					"timestamp":      {Type: "string", Description: "X-Goog-Chat-Request-Timestamp header value"},
					"webhook_secret": {Type: "string", Description: "Secret key for webhook validation"},
				}, "request_body", "signature", "timestamp", "webhook_secret"),
			},
			Handler: s.handleValidateWebhookSignature,
		},
		{
			Tool: Tool{
				Name:        "create_interactive_card",
				Description: "Create an interactive card with buttons and actions",
				InputSchema: objectSchema(map[string]Property{
					"title": {Type: "string", Description: "Card title"},
					"sections": {Type: "array", Description: "Card sections with content", Items: &Property{
						Type: "object",
						Properties: map[string]Property{
							"header":  {Type: "string"},
							"widgets": {Type: "array", Items: &Property{Type: "object"}},
						},
					}},
					"actions": {Type: "array", Description: "Interactive actions for the card", Items: &Property{
						Type: "object",
						Properties: map[string]Property{
							"action_id":   {Type: "string"},
							"button_text": {Type: "string"},
							"parameters":  {Type: "object"},
						},
						Required: []string{"action_id", "button_text"},
					}},
				}, "title"),
			},
			Handler: s.handleCreateInteractiveCard,
		},
	}
}

func (s *Server) handleSendWebhookMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	url, _ := stringArg(args, "webhook_url")

	body := map[string]any{}
	if text, ok := stringArg(args, "text"); ok {
		body["text"] = text
	}
	if cards, ok := args["cards"]; ok {
		body["cards"] = cards
	}
	if thread, ok := stringArg(args, "thread"); ok && thread != "" {
		body["thread"] = map[string]any{"name": thread}
	}

	resp, err := s.webhook.Send(ctx, url, body)
	if err != nil {
		return s.failure(err)
	}

	s.logger.InfoContext(ctx, "webhook message sent")
	return resultJSON(map[string]any{
		"success":  true,
		"message":  "Message sent via webhook",
		"response": resp,
	})
}

// handleCreateCardMessage builds a card structure without sending it anywhere;
// the result is ready to pass as the cards argument of a send tool.
func (s *Server) handleCreateCardMessage(ctx context.Context, args map[string]any) (*CallResult, error) {
	p := chat.CardParams{
		Title:    stringArgDefault(args, "title", ""),
		Subtitle: stringArgDefault(args, "subtitle", ""),
		Text:     stringArgDefault(args, "text", ""),
		ImageURL: stringArgDefault(args, "image_url", ""),
		Color:    stringArgDefault(args, "color", ""),
	}
	for _, b := range mapSliceArg(args, "buttons") {
		p.Buttons = append(p.Buttons, chat.CardButton{
			Text:   str(b, "text"),
			URL:    str(b, "url"),
			Action: str(b, "action"),
		})
	}

	card := chat.BuildCard(p)
	s.logger.InfoContext(ctx, "card message created", "title", p.Title)
	return resultJSON(map[string]any{
		"success": true,
		"card":    card,
		"cards":   []any{card},
	})
}

func (s *Server) handleParseWebhookEvent(ctx context.Context, args map[string]any) (*CallResult, error) {
	event, ok := args["event_data"].(map[string]any)
	if !ok {
		return nil, &ArgumentError{Field: "event_data", Reason: "must be an object"}
	}

	parsed := chat.ParseEvent(event)
	s.logger.InfoContext(ctx, "webhook event parsed", "event_type", parsed["event_type"])
	return resultJSON(map[string]any{
		"success":        true,
		"parsed_event":   parsed,
		"original_event": event,
	})
}

func (s *Server) handleValidateWebhookSignature(ctx context.Context, args map[string]any) (*CallResult, error) {
	body, _ := stringArg(args, "request_body")
	signature, _ := stringArg(args, "signature")
	timestamp, _ := stringArg(args, "timestamp")
	secret, _ := stringArg(args, "webhook_secret")

	res, err := chat.ValidateSignature(body, signature, timestamp, secret, time.Now())
	if err != nil {
		return resultErr(err), nil
	}

	return resultJSON(map[string]any{
		"success":                 true,
		"signature_valid":         res.Valid && res.Recent,
		"is_valid":                res.Valid,
		"is_recent":               res.Recent,
		"time_difference_seconds": res.TimeDiff,
	})
}

// handleCreateInteractiveCard builds a card with action buttons without
// sending it.
func (s *Server) handleCreateInteractiveCard(ctx context.Context, args map[string]any) (*CallResult, error) {
	title, _ := stringArg(args, "title")

	sections := mapSliceArg(args, "sections")
	var actions []chat.CardAction
	for _, a := range mapSliceArg(args, "actions") {
		action := chat.CardAction{
			ActionID:   str(a, "action_id"),
			ButtonText: str(a, "button_text"),
		}
		if params, ok := a["parameters"].(map[string]any); ok {
			action.Parameters = params
		}
		actions = append(actions, action)
	}

	card := chat.BuildInteractiveCard(title, sections, actions)
	s.logger.InfoContext(ctx, "interactive card created", "title", title)
	return resultJSON(map[string]any{
		"success": true,
		"card":    card,
		"cards":   []any{card},
	})
}

// str reads a string value from a generic map, returning "" when absent.
func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
