/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	flow "flowcanvas/internal/canvas"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/export"
	"flowcanvas/internal/shell"
	"flowcanvas/internal/storage"
	"flowcanvas/internal/telemetry"
	"flowcanvas/internal/ui"
)

// historyPath keeps shell history in the user cache; empty disables it.
func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "flowcanvas")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}

// shellFor builds a shell over h whose save and export commands write back
// into the document folder.
func shellFor(a *app, h *storage.DocHandle, out io.Writer) *shell.Shell {
	store := document.New(h.Doc)
	c := flow.New(store, flow.OptionsFrom(a.cfg.Canvas))
	return shell.New(c, out, shell.Options{
		Save: func(doc domain.Document) error {
			h.Doc = doc
			if err := storage.Save(h); err != nil {
				return err
			}
			telemetry.Event(telemetry.EvDocumentSaved, nil)
			return nil
		},
		Export: func(doc domain.Document, format, path string) (string, error) {
			f, err := export.ParseFormat(format)
			if err != nil {
				return "", err
			}
			h.Doc = doc
			p, err := export.ToFile(h, path, f, export.Options{})
			if err == nil {
				telemetry.Event(telemetry.EvExported, map[string]any{"format": string(f)})
			}
			return p, err
		},
	})
}

func shellCmd(a *app) *cobra.Command {
	var script string
	cmd := &cobra.Command{
		Use:   "shell <dir>",
		Short: "Drive the canvas interactively: drag, zoom, select, style",
		Long: `Open an interactive canvas shell on a document. Pointer commands take
screen coordinates, so drags and zooms behave exactly as on the desktop canvas.

  flowcanvas shell ./demo
  flowcanvas shell ./demo --script steps.txt    # run commands from a file
  echo "nodes" | flowcanvas shell ./demo --script -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			sh := shellFor(a, h, cmd.OutOrStdout())
			telemetry.Event(telemetry.EvShellStarted, map[string]any{"script": script != ""})
			switch script {
			case "":
			case "-":
				return sh.RunScript(cmd.InOrStdin())
			default:
				f, err := os.Open(script)
				if err != nil {
					return err
				}
				defer f.Close()
				return sh.RunScript(f)
			}
			rl, err := shell.NewReadline(historyPath())
			if err != nil {
				return err
			}
			defer rl.Close()
			subtle.Fprintln(cmd.OutOrStdout(), "Type help for commands, exit to leave.")
			return sh.Run(rl)
		},
	}
	cmd.Flags().StringVar(&script, "script", "", "Run commands from a file (- for stdin) instead of prompting")
	return cmd
}

func uiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [dir]",
		Short: "Launch the desktop canvas (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				dir = abs
			}
			return ui.Run(dir)
		},
	}
}
