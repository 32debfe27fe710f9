/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command flowcanvas edits flowchart documents from the terminal, renders
// them to SVG, PNG or PDF, syncs them with a document server and launches
// the desktop canvas.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowcanvas/internal/config"
	"flowcanvas/internal/crash"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/storage"
	"flowcanvas/internal/telemetry"
	"flowcanvas/internal/version"
)

var (
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.Faint)
	brand  = color.New(color.FgCyan, color.Bold)
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg   config.AppConfig
	token string
	log   *slog.Logger

	// current is the document a command is working on; crash recovery
	// snapshots it.
	current *storage.DocHandle
}

func (a *app) handle() *storage.DocHandle { return a.current }

// setup loads the user configuration and installs logging and telemetry.
func (a *app) setup() error {
	cfg, token, err := config.Load()
	if err != nil {
		// a broken config file must not lock the user out
		fmt.Fprintln(os.Stderr, bad.Sprint("config: "), err)
		cfg = config.Defaults()
	}
	a.cfg, a.token = cfg, token

	opts := applog.FromEnv()
	if cfg.Logging.Level != "" {
		opts.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		opts.Format = cfg.Logging.Format
	}
	if cfg.Logging.File != "" {
		opts.File = cfg.Logging.File
	}
	opts.AddSource = opts.AddSource || cfg.Logging.Source
	opts.NoColor = color.NoColor
	applog.Init(opts)
	a.log = applog.WithComponent("cli")

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tc)
	return nil
}

func (a *app) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	telemetry.Flush(ctx)
	_ = applog.Close()
}

// open loads the document folder dir and makes it the crash snapshot target.
func (a *app) open(dir string) (*storage.DocHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	a.current = h
	a.log.Debug("opened", slog.String("root", abs), slog.String("doc", h.Doc.ID))
	telemetry.Event(telemetry.EvDocumentOpened, map[string]any{"nodes": len(h.Doc.Nodes), "edges": len(h.Doc.Edges)})
	return h, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "flowcanvas",
		Short:   "flowcanvas, a flowchart canvas and document tool",
		Long:    brand.Sprint("flowcanvas") + " edits flowcharts: nodes, connectors, labels and styles.\n" + subtle.Sprint("Documents are folders holding flowchart.json, backups and a search index."),
		Version: version.String(),

		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.SetVersionTemplate("flowcanvas {{ .Version }}\n")
	root.PersistentFlags().BoolVar(&color.NoColor, "no-color", color.NoColor, "Disable coloured output")

	root.AddCommand(
		versionCmd(),
		initCmd(a),
		infoCmd(a),
		saveCmd(a),
		exportCmd(a),
		searchCmd(a),
		linksCmd(a),
		shellCmd(a),
		uiCmd(a),
		serveCmd(a),
		loginCmd(a),
		logoutCmd(a),
		pushCmd(a),
		pullCmd(a),
		remoteCmd(a),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "flowcanvas", version.String())
		},
	}
}

func main() {
	a := &app{log: applog.WithComponent("cli")}
	code := 0
	func() {
		defer crash.Recover(a.handle)
		if err := newRootCmd(a).Execute(); err != nil {
			a.log.Error("command failed", slog.Any("err", err))
			fmt.Fprintln(os.Stderr, bad.Sprint("Error:"), err)
			code = 1
		}
	}()
	os.Exit(code)
}
