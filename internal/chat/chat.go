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

// Package chat defines the boundary to the Google Chat API.  The MCP tool
// handlers consume the Client interface; the production implementation wraps
// the generated chat/v1 service.  Webhook helpers, which need no API
// credentials, live in webhook.go.
package chat

import (
	"context"
	"fmt"
	"net/http"

	chatv1 "google.golang.org/api/chat/v1"
)

// ListMessagesOptions narrows a message listing.
type ListMessagesOptions struct {
	PageSize int64
	OrderBy  string
	Filter   string
}

// ListMembersOptions narrows a membership listing.
type ListMembersOptions struct {
	PageSize    int64
	ShowGroups  bool
	ShowInvited bool
}

// Client exposes one method per remote Chat API operation.  Every method
// returns either the API payload or an error; downstream rejections are
// reported as *APIError so callers can translate them for the agent.
type Client interface {
	SendMessage(ctx context.Context, space string, msg *chatv1.Message) (*chatv1.Message, error)
	ListMessages(ctx context.Context, space string, opt ListMessagesOptions) ([]*chatv1.Message, error)
	GetMessage(ctx context.Context, name string) (*chatv1.Message, error)
	UpdateMessage(ctx context.Context, name string, msg *chatv1.Message, updateMask string) (*chatv1.Message, error)
	DeleteMessage(ctx context.Context, name string) error

	ListSpaces(ctx context.Context, pageSize int64, filter string) ([]*chatv1.Space, error)
	GetSpace(ctx context.Context, name string) (*chatv1.Space, error)
	CreateSpace(ctx context.Context, space *chatv1.Space) (*chatv1.Space, error)
	UpdateSpace(ctx context.Context, name string, space *chatv1.Space, updateMask string) (*chatv1.Space, error)
	DeleteSpace(ctx context.Context, name string) error

	ListMembers(ctx context.Context, space string, opt ListMembersOptions) ([]*chatv1.Membership, error)
	GetMember(ctx context.Context, name string) (*chatv1.Membership, error)
	CreateMembership(ctx context.Context, space string, m *chatv1.Membership) (*chatv1.Membership, error)
	UpdateMembership(ctx context.Context, name string, m *chatv1.Membership, updateMask string) (*chatv1.Membership, error)
	DeleteMembership(ctx context.Context, name string) error
}

// APIError is a Chat API rejection: the call reached Google and was refused.
// It is distinct from transport or programming failures, which surface as
// plain errors.
type APIError struct {
	Op      string // the operation that failed, e.g. "send_message"
	Status  int    // HTTP status reported by the API
	Message string // API error message
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: chat api error %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage renders the failure for the calling agent.
func (e *APIError) UserMessage() string {
	switch e.Status {
	case http.StatusForbidden:
		return "Permission denied. Check your authentication and API permissions."
	case http.StatusNotFound:
		return "Resource not found. Check the space/message ID."
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Please try again later."
	}
	return fmt.Sprintf("API error during %s: %s", e.Op, e.Message)
}

// NormalizeUser converts a user reference (email address, bare id or resource
// name) into the users/{user} form the API expects.
func NormalizeUser(user string) string {
	if len(user) >= len("users/") && user[:len("users/")] == "users/" {
		return user
	}
	return "users/" + user
}
