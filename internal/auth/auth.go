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

// Package auth builds Google Chat API service handles from the available
// credentials.  Two credential flavours are supported, tried in order: a
// service-account key file, then an OAuth 2.0 client with a stored refresh
// token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	chatv1 "google.golang.org/api/chat/v1"
	"google.golang.org/api/option"
)

// ErrNoCredentials is reported when neither credential flavour is configured.
var ErrNoCredentials = errors.New("no Google credentials configured")

// scopes is the full set the tool catalog needs.  Narrower deployments can
// restrict access on the Google Cloud side.
var scopes = []string{
	"https://www.googleapis.com/auth/chat.spaces",
	"https://www.googleapis.com/auth/chat.messages",
	"https://www.googleapis.com/auth/chat.messages.create",
	"https://www.googleapis.com/auth/chat.memberships",
	"https://www.googleapis.com/auth/chat.spaces.readonly",
	"https://www.googleapis.com/auth/chat.messages.readonly",
}

// Credentials selects which credential flavour to use.
type Credentials struct {
	// CredentialsFile is a path to a service-account JSON key.  Takes
	// precedence when set.
	CredentialsFile string
	// ClientID, ClientSecret and RefreshToken describe an OAuth 2.0 client
	// with offline access.
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Credentials) haveOAuthClient() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// NewService creates a Chat API service handle from the given credentials.
func NewService(ctx context.Context, creds Credentials) (*chatv1.Service, error) {
	switch {
	case creds.CredentialsFile != "":
		svc, err := chatv1.NewService(ctx,
			option.WithCredentialsFile(creds.CredentialsFile),
			option.WithScopes(scopes...),
		)
		if err != nil {
			return nil, fmt.Errorf("auth: service account: %w", err)
		}
		return svc, nil

	case creds.haveOAuthClient():
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}
		ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
		svc, err := chatv1.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("auth: oauth client: %w", err)
		}
		return svc, nil
	}
	return nil, ErrNoCredentials
}
