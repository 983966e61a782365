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

// Command gchatmcp runs a Google Chat MCP server over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatkit-go/gchatmcp/internal/auth"
	"github.com/chatkit-go/gchatmcp/internal/cfg"
	"github.com/chatkit-go/gchatmcp/internal/chat"
	"github.com/chatkit-go/gchatmcp/internal/mcp"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		port     int
		logLevel string
		respMode string
	)

	cmd := &cobra.Command{
		Use:     "gchatmcp",
		Short:   "Google Chat MCP server",
		Long:    "gchatmcp exposes Google Chat messaging, space, membership, search and\nwebhook operations as MCP tools over a streamable HTTP transport.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), port, logLevel, respMode)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8004, "port to listen on")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "INFO", "log level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().StringVarP(&respMode, "response", "r", "sse", "response mode (sse or json)")

	return cmd
}

func run(ctx context.Context, port int, logLevel, respMode string) error {
	level, err := cfg.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(lg)

	mode, err := mcp.ParseResponseMode(respMode)
	if err != nil {
		return err
	}

	conf := cfg.Load()

	svc, err := auth.NewService(ctx, auth.Credentials{
		CredentialsFile: conf.CredentialsFile,
		ClientID:        conf.ClientID,
		ClientSecret:    conf.ClientSecret,
		RefreshToken:    conf.RefreshToken,
	})
	if err != nil {
		return err
	}

	srv, err := mcp.New(chat.NewGoogleClient(svc),
		mcp.WithLogger(lg),
		mcp.WithResponseMode(mode),
		mcp.WithDefaultSpace(conf.DefaultSpace),
	)
	if err != nil {
		return err
	}

	return srv.Serve(ctx, fmt.Sprintf(":%d", port))
}
