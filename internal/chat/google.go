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

// In this file: the Client implementation over the generated chat/v1 service.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	chatv1 "google.golang.org/api/chat/v1"
	"google.golang.org/api/googleapi"
)

// GoogleClient implements Client over a chat/v1 service handle.  The handle
// is obtained once at startup from the auth provider; GoogleClient itself
// holds no credentials and no mutable state.
type GoogleClient struct {
	svc *chatv1.Service
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient wraps an authenticated chat/v1 service.
func NewGoogleClient(svc *chatv1.Service) *GoogleClient {
	return &GoogleClient{svc: svc}
}

// translate converts googleapi errors into *APIError and wraps everything
// else with the operation name.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Op: op, Status: gerr.Code, Message: gerr.Message}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *GoogleClient) SendMessage(ctx context.Context, space string, msg *chatv1.Message) (*chatv1.Message, error) {
	res, err := c.svc.Spaces.Messages.Create(space, msg).Context(ctx).Do()
	if err != nil {
		return nil, translate("send_message", err)
	}
	return res, nil
}

func (c *GoogleClient) ListMessages(ctx context.Context, space string, opt ListMessagesOptions) ([]*chatv1.Message, error) {
	call := c.svc.Spaces.Messages.List(space).Context(ctx)
	if opt.PageSize > 0 {
		call = call.PageSize(opt.PageSize)
	}
	if opt.OrderBy != "" {
		call = call.OrderBy(opt.OrderBy)
	}
	if opt.Filter != "" {
		call = call.Filter(opt.Filter)
	}
	res, err := call.Do()
	if err != nil {
		return nil, translate("list_messages", err)
	}
	return res.Messages, nil
}

func (c *GoogleClient) GetMessage(ctx context.Context, name string) (*chatv1.Message, error) {
	res, err := c.svc.Spaces.Messages.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, translate("get_message", err)
	}
	return res, nil
}

func (c *GoogleClient) UpdateMessage(ctx context.Context, name string, msg *chatv1.Message, updateMask string) (*chatv1.Message, error) {
	res, err := c.svc.Spaces.Messages.Patch(name, msg).UpdateMask(updateMask).Context(ctx).Do()
	if err != nil {
		return nil, translate("update_message", err)
	}
	return res, nil
}

func (c *GoogleClient) DeleteMessage(ctx context.Context, name string) error {
	_, err := c.svc.Spaces.Messages.Delete(name).Context(ctx).Do()
	return translate("delete_message", err)
}

func (c *GoogleClient) ListSpaces(ctx context.Context, pageSize int64, filter string) ([]*chatv1.Space, error) {
	call := c.svc.Spaces.List().Context(ctx)
	if pageSize > 0 {
		call = call.PageSize(pageSize)
	}
	if filter != "" {
		call = call.Filter(filter)
	}
	res, err := call.Do()
	if err != nil {
		return nil, translate("list_spaces", err)
	}
	return res.Spaces, nil
}

func (c *GoogleClient) GetSpace(ctx context.Context, name string) (*chatv1.Space, error) {
	res, err := c.svc.Spaces.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, translate("get_space", err)
	}
	return res, nil
}

func (c *GoogleClient) CreateSpace(ctx context.Context, space *chatv1.Space) (*chatv1.Space, error) {
	// The request id makes the create idempotent across retries by the
	// underlying transport.
	res, err := c.svc.Spaces.Create(space).RequestId(uuid.NewString()).Context(ctx).Do()
	if err != nil {
		return nil, translate("create_space", err)
	}
	return res, nil
}

func (c *GoogleClient) UpdateSpace(ctx context.Context, name string, space *chatv1.Space, updateMask string) (*chatv1.Space, error) {
	res, err := c.svc.Spaces.Patch(name, space).UpdateMask(updateMask).Context(ctx).Do()
	if err != nil {
		return nil, translate("update_space", err)
	}
	return res, nil
}

func (c *GoogleClient) DeleteSpace(ctx context.Context, name string) error {
	_, err := c.svc.Spaces.Delete(name).Context(ctx).Do()
	return translate("delete_space", err)
}

func (c *GoogleClient) ListMembers(ctx context.Context, space string, opt ListMembersOptions) ([]*chatv1.Membership, error) {
	call := c.svc.Spaces.Members.List(space).Context(ctx)
	if opt.PageSize > 0 {
		call = call.PageSize(opt.PageSize)
	}
	call = call.ShowGroups(opt.ShowGroups).ShowInvited(opt.ShowInvited)
	res, err := call.Do()
	if err != nil {
		return nil, translate("list_members", err)
	}
	return res.Memberships, nil
}

func (c *GoogleClient) GetMember(ctx context.Context, name string) (*chatv1.Membership, error) {
	res, err := c.svc.Spaces.Members.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, translate("get_member", err)
	}
	return res, nil
}

func (c *GoogleClient) CreateMembership(ctx context.Context, space string, m *chatv1.Membership) (*chatv1.Membership, error) {
	res, err := c.svc.Spaces.Members.Create(space, m).Context(ctx).Do()
	if err != nil {
		return nil, translate("create_membership", err)
	}
	return res, nil
}

func (c *GoogleClient) UpdateMembership(ctx context.Context, name string, m *chatv1.Membership, updateMask string) (*chatv1.Membership, error) {
	res, err := c.svc.Spaces.Members.Patch(name, m).UpdateMask(updateMask).Context(ctx).Do()
	if err != nil {
		return nil, translate("update_membership", err)
	}
	return res, nil
}

func (c *GoogleClient) DeleteMembership(ctx context.Context, name string) error {
	_, err := c.svc.Spaces.Members.Delete(name).Context(ctx).Do()
	return translate("delete_membership", err)
}
