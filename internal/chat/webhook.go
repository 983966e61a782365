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

package chat

// In this file: incoming-webhook helpers.  These operate on webhook URLs and
// event payloads and need no Chat API credentials.

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WebhookClient posts messages to Google Chat incoming-webhook URLs.
type WebhookClient struct {
	hc *http.Client
}

// NewWebhookClient creates a webhook client.  A nil hc falls back to a client
// with a 30 second timeout.
func NewWebhookClient(hc *http.Client) *WebhookClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookClient{hc: hc}
}

// Send posts a message body to the webhook URL and returns the created
// message resource.  Non-200 answers are reported as *APIError so the tool
// layer treats them like any other downstream rejection.
func (c *WebhookClient) Send(ctx context.Context, url string, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("send_webhook_message: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("send_webhook_message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send_webhook_message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponse))
	if err != nil {
		return nil, fmt.Errorf("send_webhook_message: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Op: "send_webhook_message", Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("send_webhook_message: decode response: %w", err)
	}
	return result, nil
}

const maxWebhookResponse = 1 << 20

// CardButton is one action button on a card.  Exactly one of URL or Action
// should be set; URL wins when both are.
type CardButton struct {
	Text   string
	URL    string
	Action string
}

// CardParams describes a simple card message.
type CardParams struct {
	Title    string
	Subtitle string
	Text     string
	ImageURL string
	Color    string
	Buttons  []CardButton
}

// BuildCard assembles a Chat card structure from the given parameters.  The
// returned map matches the v1 card schema accepted by both the messages API
// and incoming webhooks.
func BuildCard(p CardParams) map[string]any {
	header := map[string]any{"title": p.Title}
	if p.Subtitle != "" {
		header["subtitle"] = p.Subtitle
	}
	if p.ImageURL != "" {
		header["imageUrl"] = p.ImageURL
	}
	if p.Color != "" {
		header["imageStyle"] = "IMAGE"
	}
	card := map[string]any{"header": header}

	var sections []any
	if p.Text != "" {
		sections = append(sections, map[string]any{
			"widgets": []any{
				map[string]any{"textParagraph": map[string]any{"text": p.Text}},
			},
		})
	}
	if len(p.Buttons) > 0 {
		var widgets []any
		for _, b := range p.Buttons {
			btn := map[string]any{"text": b.Text}
			switch {
			case b.URL != "":
				btn["onClick"] = map[string]any{"openLink": map[string]any{"url": b.URL}}
			case b.Action != "":
				btn["onClick"] = map[string]any{"action": map[string]any{"actionMethodName": b.Action}}
			}
			widgets = append(widgets, map[string]any{
				"buttons": []any{map[string]any{"textButton": btn}},
			})
		}
		sections = append(sections, map[string]any{"widgets": widgets})
	}
	if len(sections) > 0 {
		card["sections"] = sections
	}
	return card
}

// CardAction is one interactive action button.
type CardAction struct {
	ActionID   string
	ButtonText string
	Parameters map[string]any
}

// BuildInteractiveCard assembles a card with caller-provided sections and a
// trailing section of action buttons.
func BuildInteractiveCard(title string, sections []map[string]any, actions []CardAction) map[string]any {
	card := map[string]any{
		"header":   map[string]any{"title": title},
		"sections": []any{},
	}
	out := make([]any, 0, len(sections)+1)
	for _, s := range sections {
		sec := map[string]any{}
		if h, ok := s["header"]; ok {
			sec["header"] = h
		}
		if w, ok := s["widgets"]; ok {
			sec["widgets"] = w
		}
		out = append(out, sec)
	}
	if len(actions) > 0 {
		var widgets []any
		for _, a := range actions {
			onClick := map[string]any{"actionMethodName": a.ActionID}
			if len(a.Parameters) > 0 {
				var params []any
				for k, v := range a.Parameters {
					params = append(params, map[string]any{"key": k, "value": v})
				}
				onClick["parameters"] = params
			}
			widgets = append(widgets, map[string]any{
				"buttons": []any{map[string]any{
					"textButton": map[string]any{
						"text":    a.ButtonText,
						"onClick": map[string]any{"action": onClick},
					},
				}},
			})
		}
		out = append(out, map[string]any{"widgets": widgets})
	}
	card["sections"] = out
	return card
}

// ParseEvent extracts the common fields of a Chat webhook event into a flat
// structure the agent can work with.
func ParseEvent(event map[string]any) map[string]any {
	space := submap(event, "space")
	user := submap(event, "user")

	parsed := map[string]any{
		"event_type": str(event, "type", "UNKNOWN"),
		"event_time": event["eventTime"],
		"space": map[string]any{
			"name":         space["name"],
			"display_name": space["displayName"],
			"type":         space["type"],
		},
		"user": map[string]any{
			"name":         user["name"],
			"display_name": user["displayName"],
			"email":        user["email"],
			"type":         user["type"],
		},
	}

	if msg := submap(event, "message"); len(msg) > 0 {
		parsed["message"] = map[string]any{
			"name":        msg["name"],
			"text":        msg["text"],
			"create_time": msg["createTime"],
			"sender":      submap(msg, "sender"),
			"thread":      submap(msg, "thread"),
			"annotations": msg["annotations"],
		}
	}
	if action := submap(event, "action"); len(action) > 0 {
		parsed["action"] = map[string]any{
			"action_method_name": action["actionMethodName"],
			"parameters":         action["parameters"],
		}
	}
	return parsed
}

func submap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func str(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

// replayWindow is the tolerated clock skew between the signed timestamp and
// the time of validation.
const replayWindow = 5 * time.Minute

// SignatureResult is the outcome of webhook signature validation.  The
// signature is only trustworthy when both Valid and Recent hold.
type SignatureResult struct {
	Valid    bool  `json:"is_valid"`
	Recent   bool  `json:"is_recent"`
	TimeDiff int64 `json:"time_difference_seconds"`
}

// ValidateSignature checks an incoming webhook signature header of the form
// "t=<ts>,v1=<sig>" against HMAC-SHA256("<timestamp>.<body>", secret),
// base64-encoded.  now anchors the replay check.
func ValidateSignature(body, header, timestamp, secret string, now time.Time) (SignatureResult, error) {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return SignatureResult{}, fmt.Errorf("validate_webhook_signature: bad timestamp %q: %w", timestamp, err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	var got string
	for part := range strings.SplitSeq(header, ",") {
		if k, v, ok := strings.Cut(part, "="); ok && k == "v1" {
			got = v
		}
	}

	diff := now.Unix() - ts
	if diff < 0 {
		diff = -diff
	}
	return SignatureResult{
		Valid:    hmac.Equal([]byte(want), []byte(got)),
		Recent:   diff <= int64(replayWindow.Seconds()),
		TimeDiff: diff,
	}, nil
}
