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

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chatv1 "google.golang.org/api/chat/v1"

	"github.com/chatkit-go/gchatmcp/internal/chat"
)

// fakeClient implements chat.Client with overridable functions.  Methods
// without an override fail the test if called.
type fakeClient struct {
	t *testing.T

	sendMessage   func(ctx context.Context, space string, msg *chatv1.Message) (*chatv1.Message, error)
	listMessages  func(ctx context.Context, space string, opt chat.ListMessagesOptions) ([]*chatv1.Message, error)
	getMessage    func(ctx context.Context, name string) (*chatv1.Message, error)
	updateMessage func(ctx context.Context, name string, msg *chatv1.Message, updateMask string) (*chatv1.Message, error)
	deleteMessage func(ctx context.Context, name string) error

	listSpaces  func(ctx context.Context, pageSize int64, filter string) ([]*chatv1.Space, error)
	getSpace    func(ctx context.Context, name string) (*chatv1.Space, error)
	createSpace func(ctx context.Context, space *chatv1.Space) (*chatv1.Space, error)
	updateSpace func(ctx context.Context, name string, space *chatv1.Space, updateMask string) (*chatv1.Space, error)
	deleteSpace func(ctx context.Context, name string) error

	listMembers      func(ctx context.Context, space string, opt chat.ListMembersOptions) ([]*chatv1.Membership, error)
	getMember        func(ctx context.Context, name string) (*chatv1.Membership, error)
	createMembership func(ctx context.Context, space string, m *chatv1.Membership) (*chatv1.Membership, error)
	updateMembership func(ctx context.Context, name string, m *chatv1.Membership, updateMask string) (*chatv1.Membership, error)
	deleteMembership func(ctx context.Context, name string) error
}

var _ chat.Client = (*fakeClient)(nil)

func (f *fakeClient) SendMessage(ctx context.Context, space string, msg *chatv1.Message) (*chatv1.Message, error) {
	if f.sendMessage == nil {
		f.t.Fatal("unexpected SendMessage call")
	}
	return f.sendMessage(ctx, space, msg)
}

func (f *fakeClient) ListMessages(ctx context.Context, space string, opt chat.ListMessagesOptions) ([]*chatv1.Message, error) {
	if f.listMessages == nil {
		f.t.Fatal("unexpected ListMessages call")
	}
	return f.listMessages(ctx, space, opt)
}

func (f *fakeClient) GetMessage(ctx context.Context, name string) (*chatv1.Message, error) {
	if f.getMessage == nil {
		f.t.Fatal("unexpected GetMessage call")
	}
	return f.getMessage(ctx, name)
}

func (f *fakeClient) UpdateMessage(ctx context.Context, name string, msg *chatv1.Message, updateMask string) (*chatv1.Message, error) {
	if f.updateMessage == nil {
		f.t.Fatal("unexpected UpdateMessage call")
	}
	return f.updateMessage(ctx, name, msg, updateMask)
}

func (f *fakeClient) DeleteMessage(ctx context.Context, name string) error {
	if f.deleteMessage == nil {
		f.t.Fatal("unexpected DeleteMessage call")
	}
	return f.deleteMessage(ctx, name)
}

func (f *fakeClient) ListSpaces(ctx context.Context, pageSize int64, filter string) ([]*chatv1.Space, error) {
	if f.listSpaces == nil {
		f.t.Fatal("unexpected ListSpaces call")
	}
	return f.listSpaces(ctx, pageSize, filter)
}

func (f *fakeClient) GetSpace(ctx context.Context, name string) (*chatv1.Space, error) {
	if f.getSpace == nil {
		f.t.Fatal("unexpected GetSpace call")
	}
	return f.getSpace(ctx, name)
}

func (f *fakeClient) CreateSpace(ctx context.Context, space *chatv1.Space) (*chatv1.Space, error) {
	if f.createSpace == nil {
		f.t.Fatal("unexpected CreateSpace call")
	}
	return f.createSpace(ctx, space)
}

func (f *fakeClient) UpdateSpace(ctx context.Context, name string, space *chatv1.Space, updateMask string) (*chatv1.Space, error) {
	if f.updateSpace == nil {
		f.t.Fatal("unexpected UpdateSpace call")
	}
	return f.updateSpace(ctx, name, space, updateMask)
}

func (f *fakeClient) DeleteSpace(ctx context.Context, name string) error {
	if f.deleteSpace == nil {
		f.t.Fatal("unexpected DeleteSpace call")
	}
	return f.deleteSpace(ctx, name)
}

func (f *fakeClient) ListMembers(ctx context.Context, space string, opt chat.ListMembersOptions) ([]*chatv1.Membership, error) {
	if f.listMembers == nil {
		f.t.Fatal("unexpected ListMembers call")
	}
	return f.listMembers(ctx, space, opt)
}

func (f *fakeClient) GetMember(ctx context.Context, name string) (*chatv1.Membership, error) {
	if f.getMember == nil {
		f.t.Fatal("unexpected GetMember call")
	}
	return f.getMember(ctx, name)
}

func (f *fakeClient) CreateMembership(ctx context.Context, space string, m *chatv1.Membership) (*chatv1.Membership, error) {
	if f.createMembership == nil {
		f.t.Fatal("unexpected CreateMembership call")
	}
	return f.createMembership(ctx, space, m)
}

func (f *fakeClient) UpdateMembership(ctx context.Context, name string, m *chatv1.Membership, updateMask string) (*chatv1.Membership, error) {
	if f.updateMembership == nil {
		f.t.Fatal("unexpected UpdateMembership call")
	}
	return f.updateMembership(ctx, name, m, updateMask)
}

func (f *fakeClient) DeleteMembership(ctx context.Context, name string) error {
	if f.deleteMembership == nil {
		f.t.Fatal("unexpected DeleteMembership call")
	}
	return f.deleteMembership(ctx, name)
}

func testServer(t *testing.T, fc *fakeClient, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	s, err := New(fc, opts...)
	require.NoError(t, err)
	return s
}

// callTool invokes one tool through the dispatcher and decodes the JSON text
// payload of the result.
func callTool(t *testing.T, s *Server, name string, args map[string]any) (*CallResult, map[string]any) {
	t.Helper()
	params, err := json.Marshal(CallParams{Name: name, Arguments: args})
	require.NoError(t, err)

	resp := s.disp.Dispatch(context.Background(), &Request{
		JSONRPC: "2.0", ID: rawID("1"), Method: "tools/call", Params: params,
	})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "expected a tool result, got rpc error: %v", resp.Error)

	res, ok := resp.Result.(*CallResult)
	require.True(t, ok)
	require.NotEmpty(t, res.Content)

	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content[0].Text), &payload); err != nil {
		// Error results carry plain text, not JSON.
		return res, nil
	}
	return res, payload
}

func TestServer_toolCatalog(t *testing.T) {
	s := testServer(t, &fakeClient{t: t})

	tools := s.reg.Tools()
	require.Len(t, tools, 25)

	// Registration order is part of the contract.
	want := []string{
		"send_message", "list_messages", "get_message", "update_message", "delete_message",
		"list_spaces", "get_space", "create_space", "update_space", "delete_space",
		"list_members", "get_member", "create_membership", "update_membership", "delete_membership",
		"find_direct_message",
		"search_messages", "search_spaces", "search_members", "get_recent_activity",
		"send_webhook_message", "create_card_message", "parse_webhook_event",
		"validate_webhook_signature", "create_interactive_card",
	}
	for i, name := range want {
		assert.Equal(t, name, tools[i].Name, "tool %d", i)
	}
}

func TestSendMessage(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.sendMessage = func(_ context.Context, space string, msg *chatv1.Message) (*chatv1.Message, error) {
			assert.Equal(t, "spaces/AAA", space)
			assert.Equal(t, "hello", msg.Text)
			return &chatv1.Message{Name: "spaces/AAA/messages/m1", Text: msg.Text}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "send_message", map[string]any{
			"space": "spaces/AAA", "text": "hello",
		})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "spaces/AAA/messages/m1", payload["message_id"])
		assert.Equal(t, "spaces/AAA", payload["space"])
	})

	t.Run("api rejection becomes tool error", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.sendMessage = func(context.Context, string, *chatv1.Message) (*chatv1.Message, error) {
			return nil, &chat.APIError{Op: "send_message", Status: http.StatusForbidden, Message: "denied"}
		}
		s := testServer(t, fc)

		res, _ := callTool(t, s, "send_message", map[string]any{
			"space": "spaces/AAA", "text": "hello",
		})
		assert.True(t, res.IsError)
		assert.Equal(t, "Permission denied. Check your authentication and API permissions.", res.Content[0].Text)
	})

	t.Run("default space fallback", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.sendMessage = func(_ context.Context, space string, _ *chatv1.Message) (*chatv1.Message, error) {
			assert.Equal(t, "spaces/DEFAULT", space)
			return &chatv1.Message{Name: "spaces/DEFAULT/messages/m2"}, nil
		}
		s := testServer(t, fc, WithDefaultSpace("spaces/DEFAULT"))

		res, payload := callTool(t, s, "send_message", map[string]any{"text": "hi"})
		assert.False(t, res.IsError)
		assert.Equal(t, "spaces/DEFAULT", payload["space"])
	})

	t.Run("no space anywhere", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		res, _ := callTool(t, s, "send_message", map[string]any{"text": "hi"})
		assert.True(t, res.IsError)
		assert.Equal(t, errNoSpace.Error(), res.Content[0].Text)
	})

	t.Run("transport failure maps to internal error", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.sendMessage = func(context.Context, string, *chatv1.Message) (*chatv1.Message, error) {
			return nil, errors.New("connection reset")
		}
		s := testServer(t, fc)

		params, err := json.Marshal(CallParams{Name: "send_message", Arguments: map[string]any{
			"space": "spaces/AAA", "text": "hello",
		}})
		require.NoError(t, err)
		resp := s.disp.Dispatch(context.Background(), &Request{
			JSONRPC: "2.0", ID: rawID("1"), Method: "tools/call", Params: params,
		})
		require.NotNil(t, resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInternalError, resp.Error.Code)
	})
}

func TestDeleteMessage(t *testing.T) {
	fc := &fakeClient{t: t}
	fc.deleteMessage = func(_ context.Context, name string) error {
		assert.Equal(t, "spaces/AAA/messages/m1", name)
		return nil
	}
	s := testServer(t, fc)

	res, payload := callTool(t, s, "delete_message", map[string]any{
		"message": "spaces/AAA/messages/m1",
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "Message spaces/AAA/messages/m1 deleted successfully", payload["message"])
}

func TestCreateSpace(t *testing.T) {
	fc := &fakeClient{t: t}
	fc.createSpace = func(_ context.Context, space *chatv1.Space) (*chatv1.Space, error) {
		assert.Equal(t, "Team Room", space.DisplayName)
		assert.Equal(t, "SPACE", space.SpaceType)
		assert.Equal(t, "THREADED_MESSAGES", space.SpaceThreadingState)
		space.Name = "spaces/NEW"
		return space, nil
	}
	s := testServer(t, fc)

	res, payload := callTool(t, s, "create_space", map[string]any{
		"display_name": "Team Room",
		"threaded":     true,
	})
	assert.False(t, res.IsError)
	assert.Equal(t, "spaces/NEW", payload["space_id"])
}

func TestCreateMembership_normalizesUser(t *testing.T) {
	tests := []struct {
		name string
		user string
		want string
	}{
		{"bare id", "1234567890", "users/1234567890"},
		{"already prefixed", "users/1234567890", "users/1234567890"},
		{"email", "someone@example.com", "users/someone@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{t: t}
			fc.createMembership = func(_ context.Context, space string, m *chatv1.Membership) (*chatv1.Membership, error) {
				assert.Equal(t, "spaces/AAA", space)
				require.NotNil(t, m.Member)
				assert.Equal(t, tt.want, m.Member.Name)
				assert.Equal(t, "ROLE_MEMBER", m.Role)
				return m, nil
			}
			s := testServer(t, fc)

			res, payload := callTool(t, s, "create_membership", map[string]any{
				"space": "spaces/AAA", "user": tt.user,
			})
			assert.False(t, res.IsError)
			assert.Equal(t, tt.want, payload["user"])
		})
	}
}

func TestFindDirectMessage(t *testing.T) {
	spaces := []*chatv1.Space{
		{Name: "spaces/DM1", SpaceType: "DIRECT_MESSAGE"},
		{Name: "spaces/DM2", SpaceType: "DIRECT_MESSAGE"},
	}
	membersBySpace := map[string][]*chatv1.Membership{
		"spaces/DM1": {{Member: &chatv1.User{Name: "users/111"}}},
		"spaces/DM2": {{Member: &chatv1.User{Name: "users/222"}}},
	}

	newFake := func(t *testing.T) *fakeClient {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(_ context.Context, _ int64, filter string) ([]*chatv1.Space, error) {
			assert.Contains(t, filter, "DIRECT_MESSAGE")
			return spaces, nil
		}
		fc.listMembers = func(_ context.Context, space string, _ chat.ListMembersOptions) ([]*chatv1.Membership, error) {
			return membersBySpace[space], nil
		}
		return fc
	}

	t.Run("found", func(t *testing.T) {
		s := testServer(t, newFake(t))
		res, payload := callTool(t, s, "find_direct_message", map[string]any{"user": "222"})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "spaces/DM2", payload["space_id"])
		assert.Equal(t, true, payload["existing"])
	})

	t.Run("not found is not an error", func(t *testing.T) {
		s := testServer(t, newFake(t))
		res, payload := callTool(t, s, "find_direct_message", map[string]any{"user": "999"})
		assert.False(t, res.IsError)
		assert.Equal(t, false, payload["success"])
		assert.Equal(t, "users/999", payload["user"])
	})
}

func TestSearchMessages(t *testing.T) {
	t.Run("single space", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listMessages = func(_ context.Context, space string, opt chat.ListMessagesOptions) ([]*chatv1.Message, error) {
			assert.Equal(t, "spaces/AAA", space)
			assert.Contains(t, opt.Filter, "deploy")
			// Relevance has no list-API equivalent; newest-first stands in.
			assert.Equal(t, "create_time desc", opt.OrderBy)
			return []*chatv1.Message{
				{Name: "m1", Text: "Deploy finished"},
				{Name: "m2", Text: "lunch plans"},
			}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_messages", map[string]any{
			"query": "deploy", "space": "spaces/AAA",
		})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})

	t.Run("order_by is passed through", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listMessages = func(_ context.Context, _ string, opt chat.ListMessagesOptions) ([]*chatv1.Message, error) {
			assert.Equal(t, "create_time", opt.OrderBy)
			return nil, nil
		}
		s := testServer(t, fc)

		res, _ := callTool(t, s, "search_messages", map[string]any{
			"query": "deploy", "space": "spaces/AAA", "order_by": "create_time",
		})
		assert.False(t, res.IsError)
	})

	t.Run("across spaces skips denied ones", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(context.Context, int64, string) ([]*chatv1.Space, error) {
			return []*chatv1.Space{{Name: "spaces/OPEN"}, {Name: "spaces/LOCKED"}}, nil
		}
		fc.listMessages = func(_ context.Context, space string, _ chat.ListMessagesOptions) ([]*chatv1.Message, error) {
			if space == "spaces/LOCKED" {
				return nil, &chat.APIError{Op: "list_messages", Status: http.StatusForbidden, Message: "nope"}
			}
			return []*chatv1.Message{{Name: "m1", Text: "deploy done"}}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_messages", map[string]any{"query": "deploy"})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})
}

func TestSearchSpaces(t *testing.T) {
	t.Run("matches name and description", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(_ context.Context, _ int64, filter string) ([]*chatv1.Space, error) {
			assert.Empty(t, filter)
			return []*chatv1.Space{
				{Name: "spaces/1", DisplayName: "Engineering"},
				{Name: "spaces/2", DisplayName: "Marketing"},
				{Name: "spaces/3", DisplayName: "engineering-oncall"},
				{Name: "spaces/4", DisplayName: "Platform", SpaceDetails: &chatv1.SpaceDetails{Description: "engineering infrastructure"}},
			}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_spaces", map[string]any{"query": "engineering"})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(3), payload["count"])
	})

	t.Run("space_type becomes an api filter", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(_ context.Context, _ int64, filter string) ([]*chatv1.Space, error) {
			assert.Equal(t, "spaceType=DIRECT_MESSAGE", filter)
			return []*chatv1.Space{{Name: "spaces/DM1", DisplayName: "Ada"}}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_spaces", map[string]any{
			"query": "ada", "space_type": "DIRECT_MESSAGE",
		})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
		assert.Equal(t, "DIRECT_MESSAGE", payload["space_type"])
	})
}

func TestSearchMembers(t *testing.T) {
	t.Run("single space", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listMembers = func(_ context.Context, space string, _ chat.ListMembersOptions) ([]*chatv1.Membership, error) {
			assert.Equal(t, "spaces/AAA", space)
			return []*chatv1.Membership{
				{Name: "spaces/AAA/members/1", Member: &chatv1.User{Name: "users/1", DisplayName: "Ada Lovelace"}},
				{Name: "spaces/AAA/members/2", Member: &chatv1.User{Name: "users/2", DisplayName: "Grace Hopper"}},
			}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_members", map[string]any{
			"query": "ada", "space": "spaces/AAA",
		})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})

	t.Run("no space scans all accessible spaces", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(context.Context, int64, string) ([]*chatv1.Space, error) {
			return []*chatv1.Space{{Name: "spaces/OPEN"}, {Name: "spaces/LOCKED"}}, nil
		}
		fc.listMembers = func(_ context.Context, space string, _ chat.ListMembersOptions) ([]*chatv1.Membership, error) {
			if space == "spaces/LOCKED" {
				return nil, &chat.APIError{Op: "list_members", Status: http.StatusForbidden, Message: "nope"}
			}
			return []*chatv1.Membership{
				{Name: space + "/members/1", Member: &chatv1.User{Name: "users/1", DisplayName: "Ada Lovelace"}},
			}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "search_members", map[string]any{"query": "ada"})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})
}

func TestRecentActivity(t *testing.T) {
	now := time.Now().Format(time.RFC3339)
	old := time.Now().Add(-48 * time.Hour).Format(time.RFC3339)

	t.Run("filters by age", func(t *testing.T) {
		fc := &fakeClient{t: t}
		fc.listSpaces = func(context.Context, int64, string) ([]*chatv1.Space, error) {
			return []*chatv1.Space{{Name: "spaces/AAA", DisplayName: "Team"}}, nil
		}
		fc.listMessages = func(context.Context, string, chat.ListMessagesOptions) ([]*chatv1.Message, error) {
			return []*chatv1.Message{
				{Name: "m1", Text: "fresh", CreateTime: now},
				{Name: "m2", Text: "stale", CreateTime: old},
				{Name: "m3", Text: "broken stamp", CreateTime: "not-a-time"},
			}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "get_recent_activity", map[string]any{"hours": 24})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})

	t.Run("space argument skips the space scan", func(t *testing.T) {
		// listSpaces is left unset: a call would fail the test.
		fc := &fakeClient{t: t}
		fc.listMessages = func(_ context.Context, space string, _ chat.ListMessagesOptions) ([]*chatv1.Message, error) {
			assert.Equal(t, "spaces/ONLY", space)
			return []*chatv1.Message{{Name: "m1", Text: "fresh", CreateTime: now}}, nil
		}
		s := testServer(t, fc)

		res, payload := callTool(t, s, "get_recent_activity", map[string]any{"space": "spaces/ONLY"})
		assert.False(t, res.IsError)
		assert.Equal(t, float64(1), payload["count"])
	})
}

func TestWebhookTools(t *testing.T) {
	t.Run("send_webhook_message", func(t *testing.T) {
		var got map[string]any
		hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"spaces/AAA/messages/wh1"}`))
		}))
		defer hs.Close()

		s := testServer(t, &fakeClient{t: t}, WithWebhookClient(chat.NewWebhookClient(hs.Client())))

		res, payload := callTool(t, s, "send_webhook_message", map[string]any{
			"webhook_url": hs.URL, "text": "heads up",
		})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "Message sent via webhook", payload["message"])
		assert.Equal(t, "heads up", got["text"])
	})

	t.Run("send_webhook_message url only", func(t *testing.T) {
		var got map[string]any
		hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer hs.Close()

		s := testServer(t, &fakeClient{t: t}, WithWebhookClient(chat.NewWebhookClient(hs.Client())))

		res, payload := callTool(t, s, "send_webhook_message", map[string]any{"webhook_url": hs.URL})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])
		assert.NotContains(t, got, "text")
	})

	t.Run("create_card_message builds without sending", func(t *testing.T) {
		// No webhook client override and an empty fake: any network or API
		// call would fail the test.
		s := testServer(t, &fakeClient{t: t})

		res, payload := callTool(t, s, "create_card_message", map[string]any{
			"title": "Build status",
			"text":  "All green",
			"buttons": []any{
				map[string]any{"text": "Open", "url": "https://ci.example.com"},
			},
		})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])

		card, ok := payload["card"].(map[string]any)
		require.True(t, ok)
		header := card["header"].(map[string]any)
		assert.Equal(t, "Build status", header["title"])

		cards, ok := payload["cards"].([]any)
		require.True(t, ok)
		require.Len(t, cards, 1)
		assert.Equal(t, card, cards[0])
	})

	t.Run("create_card_message title only", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		res, payload := callTool(t, s, "create_card_message", map[string]any{"title": "Ping"})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])
		card := payload["card"].(map[string]any)
		assert.Equal(t, "Ping", card["header"].(map[string]any)["title"])
	})

	t.Run("create_interactive_card builds without sending", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		res, payload := callTool(t, s, "create_interactive_card", map[string]any{
			"title": "Approve release",
			"sections": []any{
				map[string]any{"header": "Details", "widgets": []any{
					map[string]any{"textParagraph": map[string]any{"text": "v1.2.3"}},
				}},
			},
			"actions": []any{
				map[string]any{"action_id": "approve", "button_text": "Approve"},
			},
		})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])

		card := payload["card"].(map[string]any)
		sections := card["sections"].([]any)
		require.Len(t, sections, 2)
		assert.Equal(t, "Details", sections[0].(map[string]any)["header"])
	})

	t.Run("webhook failure is a tool error", func(t *testing.T) {
		hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "no such webhook", http.StatusNotFound)
		}))
		defer hs.Close()

		s := testServer(t, &fakeClient{t: t}, WithWebhookClient(chat.NewWebhookClient(hs.Client())))

		res, _ := callTool(t, s, "send_webhook_message", map[string]any{
			"webhook_url": hs.URL, "text": "heads up",
		})
		assert.True(t, res.IsError)
		assert.Equal(t, "Resource not found. Check the space/message ID.", res.Content[0].Text)
	})

	t.Run("parse_webhook_event", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		raw := map[string]any{
			"type":      "MESSAGE",
			"eventTime": "2026-01-02T03:04:05Z",
			"space":     map[string]any{"name": "spaces/AAA"},
			"user":      map[string]any{"name": "users/111", "displayName": "Ada"},
			"message":   map[string]any{"name": "spaces/AAA/messages/m1", "text": "hi"},
		}
		res, payload := callTool(t, s, "parse_webhook_event", map[string]any{"event_data": raw})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["success"])

		parsed, ok := payload["parsed_event"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "MESSAGE", parsed["event_type"])
		assert.NotNil(t, payload["original_event"])
	})

	t.Run("parse_webhook_event rejects null event", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		params, err := json.Marshal(CallParams{
			Name:      "parse_webhook_event",
			Arguments: map[string]any{"event_data": nil},
		})
		require.NoError(t, err)

		resp := s.disp.Dispatch(context.Background(), &Request{
			JSONRPC: "2.0", ID: rawID("1"), Method: "tools/call", Params: params,
		})
		require.NotNil(t, resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	})

	t.Run("validate_webhook_signature", func(t *testing.T) {
		s := testServer(t, &fakeClient{t: t})

		body := `{"type":"MESSAGE"}`
		secret := "super-secret"
		ts := strconv.FormatInt(time.Now().Unix(), 10)

		mac := hmac.New(sha256.New, []byte(secret))
		fmt.Fprintf(mac, "%s.%s", ts, body)
		sig := "t=" + ts + ",v1=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

		res, payload := callTool(t, s, "validate_webhook_signature", map[string]any{
			"request_body":   body,
			"signature":      sig,
			"timestamp":      ts,
			"webhook_secret": secret,
		})
		assert.False(t, res.IsError)
		assert.Equal(t, true, payload["signature_valid"])
		assert.Equal(t, true, payload["is_valid"])
		assert.Equal(t, true, payload["is_recent"])
	})
}
