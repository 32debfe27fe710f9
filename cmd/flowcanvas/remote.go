/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"flowcanvas/internal/backend"
	"flowcanvas/internal/config"
	"flowcanvas/internal/storage"
	"flowcanvas/internal/telemetry"
)

var errNoServer = errors.New("no server configured: set backend.base_url in the config file or FLOWCANVAS_BACKEND_URL")

func (a *app) client() (*backend.Client, error) {
	if strings.TrimSpace(a.cfg.Backend.BaseURL) == "" {
		return nil, errNoServer
	}
	return backend.NewClient(a.cfg.Backend.BaseURL, a.token, a.cfg.Backend.Timeout()), nil
}

func serveCmd(a *app) *cobra.Command {
	var (
		addr   string
		memory bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the document server",
		Long: `Run the HTTP document server. Documents live in Postgres unless --memory is set.

Environment: FLOWCANVAS_PG_DSN (or DATABASE_URL), FLOWCANVAS_ADDR (or PORT),
FLOWCANVAS_AUTH_SECRET, FLOWCANVAS_ISSUE_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := backend.ConfigFromEnv()
			if addr != "" {
				cfg.Addr = addr
			}
			cfg.Memory = cfg.Memory || memory
			if !cfg.Memory && cfg.DBURL == "" {
				return errors.New("no database configured: set FLOWCANVAS_PG_DSN or pass --memory")
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			telemetry.Event(telemetry.EvServerStarted, map[string]any{"memory": cfg.Memory})
			good.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", cfg.Addr)
			return backend.Start(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep documents in memory")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var (
		server  string
		subject string
		key     string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Request a bearer token and keep it in the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server != "" {
				a.cfg.Backend.BaseURL = server
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if subject == "" {
				subject = os.Getenv("USER")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			tok, exp, err := c.RequestToken(ctx, subject, key, ttl)
			if err != nil {
				return err
			}
			if err := config.Save(a.cfg, tok); err != nil {
				return err
			}
			a.token = tok
			good.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s until %s\n", c.BaseURL, subject, exp.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server base URL; saved to the config file")
	cmd.Flags().StringVar(&subject, "as", "", "Token subject (default $USER)")
	cmd.Flags().StringVar(&key, "key", os.Getenv("FLOWCANVAS_ISSUE_KEY"), "Issue key required by the server")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteToken(); err != nil {
				return err
			}
			good.Fprintln(cmd.OutOrStdout(), "Token removed")
			return nil
		},
	}
}

func pushCmd(a *app) *cobra.Command {
	var ifVersion int64
	cmd := &cobra.Command{
		Use:   "push <dir>",
		Short: "Upload a document to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			rec, err := c.PutDocument(ctx, h.Doc, ifVersion)
			if err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "Pushed %s (version %d)\n", rec.ID, rec.Version)
			return nil
		},
	}
	cmd.Flags().Int64Var(&ifVersion, "if-version", 0, "Only replace the server copy when it is at this version")
	return cmd
}

func pullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <id> <dir>",
		Short: "Download a document into a folder",
		Long: `Download a document. An existing document in <dir> is backed up and replaced;
otherwise a new document folder is created.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			rec, err := c.GetDocument(ctx, args[0])
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			h, err := storage.Open(abs)
			if err == nil {
				h.Doc = rec.Document
				err = storage.Save(h)
			} else {
				h, err = storage.Init(abs, rec.Document)
			}
			if err != nil {
				return err
			}
			a.current = h
			good.Fprintf(cmd.OutOrStdout(), "Pulled %s (version %d) into %s\n", rec.ID, rec.Version, abs)
			return nil
		},
	}
}

func remoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Inspect documents on the server",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List server documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			docs, err := c.ListDocuments(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				subtle.Fprintln(out, "No documents")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tVERSION\tNODES\tEDGES\tUPDATED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", d.ID, d.Title, d.Version, d.Nodes, d.Edges, d.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	var types []string
	var limit int
	search := &cobra.Command{
		Use:   "search <id> <query>",
		Short: "Search a server document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			res, err := c.Search(ctx, args[0], storage.SearchQuery{Text: args[1], Types: types, Limit: limit})
			if err != nil {
				return err
			}
			printResults(cmd, res)
			return nil
		},
	}
	search.Flags().StringSliceVarP(&types, "type", "t", nil, "Restrict to item types (node, edge_label, title)")
	search.Flags().IntVar(&limit, "limit", 0, "Maximum results")
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a server document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Backend.Timeout())
			defer cancel()
			if err := c.DeleteDocument(ctx, args[0]); err != nil {
				return err
			}
			good.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
			return nil
		},
	}
	cmd.AddCommand(list, search, rm)
	return cmd
}
