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

// Package cfg reads server configuration from the environment.  A .env file
// in the working directory is loaded first, if present; real environment
// variables win over it.
package cfg

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"
)

// Config is everything the server needs from the environment.  Credentials
// come in two flavours: a service-account key file, or an OAuth client with a
// stored refresh token.  Either may be absent; the auth layer decides which
// to use.
type Config struct {
	// CredentialsFile is a path to a service-account JSON key.
	CredentialsFile string
	// ClientID, ClientSecret and RefreshToken describe an OAuth 2.0 client
	// with offline access.
	ClientID     string
	ClientSecret string
	RefreshToken string
	// DefaultSpace is used by space-taking tools when a call omits the space.
	DefaultSpace string
}

// Load reads the configuration, merging a .env file if one exists.
func Load() Config {
	_ = godotenv.Load() // best effort, real env wins

	return Config{
		CredentialsFile: osenv.Value("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ClientID:        osenv.Value("GOOGLE_CLIENT_ID", ""),
		ClientSecret:    osenv.Secret("GOOGLE_CLIENT_SECRET", ""),
		RefreshToken:    osenv.Secret("GOOGLE_REFRESH_TOKEN", ""),
		DefaultSpace:    osenv.Value("GOOGLE_CHAT_DEFAULT_SPACE", ""),
	}
}

// ParseLevel converts a textual log level to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
}
