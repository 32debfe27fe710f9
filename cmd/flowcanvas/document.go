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
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flowcanvas/internal/document"
	"flowcanvas/internal/export"
	"flowcanvas/internal/storage"
	"flowcanvas/internal/telemetry"
	"flowcanvas/internal/textlayout"
)

func initCmd(a *app) *cobra.Command {
	var title string
	var sample bool
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a new document folder",
		Long: `Create a document folder holding flowchart.json, backups/ and exports/.

  flowcanvas init ./onboarding --title "Onboarding"
  flowcanvas init ./demo --sample`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			var s *document.Store
			switch {
			case sample:
				doc := document.Sample()
				if title != "" {
					doc.Title = title
				}
				s = document.New(doc)
			case title == "":
				s = document.NewEmpty("Untitled")
			default:
				s = document.NewEmpty(title)
			}
			h, err := storage.Init(abs, s.Document())
			if err != nil {
				return err
			}
			a.current = h
			a.log.Info("init document", slog.String("root", abs), slog.String("doc", h.Doc.ID))
			good.Fprintf(cmd.OutOrStdout(), "Created document %q at %s\n", h.Doc.Title, abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", `Document title (default "Untitled", or the sample's own title)`)
	cmd.Flags().BoolVar(&sample, "sample", false, "Seed the document with the sample flowchart")
	return cmd
}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "info <dir>",
		Aliases: []string{"open"},
		Short:   "Open a document and print a summary",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", brand.Sprint(h.Doc.Title), subtle.Sprint("("+h.Doc.ID+")"))
			fmt.Fprintf(out, "Nodes: %d\n", len(h.Doc.Nodes))
			fmt.Fprintf(out, "Edges: %d\n", len(h.Doc.Edges))
			if b, ok := document.New(h.Doc).Bounds(); ok {
				fmt.Fprintf(out, "Bounds: %.0fx%.0f at (%.0f,%.0f)\n", b.W, b.H, b.X, b.Y)
			}
			fmt.Fprintln(out, "Root:", h.Root)
			if backups, err := storage.Backups(h.Root); err == nil {
				fmt.Fprintf(out, "Backups: %d\n", len(backups))
			}
			return nil
		},
	}
}

func saveCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "save <dir>",
		Short: "Re-save a document, keeping a backup and refreshing the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			if title != "" {
				s := document.New(h.Doc)
				s.SetTitle(title)
				h.Doc = s.Document()
			}
			if err := storage.Save(h); err != nil {
				return err
			}
			telemetry.Event(telemetry.EvDocumentSaved, nil)
			good.Fprintln(cmd.OutOrStdout(), "Saved document; the previous version was backed up.")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Rename the document while saving")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		format    string
		out       string
		scale     float64
		margin    float64
		clipboard bool
		wrapFonts bool
	)
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Render a document to SVG, PNG or PDF",
		Long: `Render a document. Relative output paths land in the document's exports/ folder.

  flowcanvas export ./demo                      # exports/<id>.svg
  flowcanvas export ./demo -f png --scale 2
  flowcanvas export ./demo -f pdf -o /tmp/demo.pdf
  flowcanvas export ./demo --clipboard          # SVG markup to the clipboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			opt := export.Options{Margin: margin, Scale: scale}
			if wrapFonts {
				opt.Text = &textlayout.GoProvider{}
			}
			if clipboard {
				if err := export.ToClipboard(document.New(h.Doc), opt); err != nil {
					return err
				}
				telemetry.Event(telemetry.EvExported, map[string]any{"format": "clipboard"})
				good.Fprintln(cmd.OutOrStdout(), "Copied SVG to the clipboard")
				return nil
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if out != "" && filepath.Ext(out) == "" {
				out += "." + string(f)
			}
			path, err := export.ToFile(h, out, f, opt)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EvExported, map[string]any{"format": string(f)})
			good.Fprintln(cmd.OutOrStdout(), "Exported", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "Output format: "+formatList())
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default exports/<id>.<format>)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG pixel scale")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Padding around the drawing (0 uses the default, negative means none)")
	cmd.Flags().BoolVar(&clipboard, "clipboard", false, "Copy SVG markup to the clipboard instead of writing a file")
	cmd.Flags().BoolVar(&wrapFonts, "go-fonts", false, "Wrap node text with Go font metrics instead of the fixed-width estimate")
	return cmd
}

func formatList() string {
	var names []string
	for _, f := range export.Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func searchCmd(a *app) *cobra.Command {
	var (
		types  []string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "search <dir> [query]",
		Short: "Full-text search over node text, edge labels and the title",
		Long: `Search a document's index. The query uses SQLite FTS5 syntax.

  flowcanvas search ./demo approve
  flowcanvas search ./demo '"user input"' --type node
  flowcanvas search ./demo              # list indexed items`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			q := storage.SearchQuery{Types: types, Limit: limit, Offset: offset}
			if len(args) == 2 {
				q.Text = args[1]
			}
			ctx := context.Background()
			if _, err := storage.DetectAndRebuildIndex(ctx, h.Root, h.Doc); err != nil {
				return err
			}
			if err := storage.BuildIndexIfEmpty(ctx, h.Root, h.Doc); err != nil {
				return err
			}
			res, err := storage.Search(ctx, h.Root, q)
			if err != nil {
				return err
			}
			printResults(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Restrict to item types (node, edge_label, title)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many results")
	return cmd
}

func printResults(cmd *cobra.Command, res []storage.SearchResult) {
	out := cmd.OutOrStdout()
	if len(res) == 0 {
		subtle.Fprintln(out, "No matches")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	for _, r := range res {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Type, r.ItemID, r.Snippet)
	}
	_ = tw.Flush()
}

func linksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "links <dir> <node-id>",
		Short: "List the edges attached to a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.open(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			if err := storage.BuildIndexIfEmpty(ctx, h.Root, h.Doc); err != nil {
				return err
			}
			links, err := storage.Connections(ctx, h.Root, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				subtle.Fprintln(out, "No edges")
				return nil
			}
			for _, l := range links {
				fmt.Fprintf(out, "%s  %s -> %s\n", l.EdgeID, l.From, l.To)
			}
			return nil
		},
	}
}
