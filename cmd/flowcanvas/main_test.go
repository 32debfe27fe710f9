/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/zalando/go-keyring"

	"flowcanvas/internal/backend"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/storage"
)

func isolate(t *testing.T) {
	t.Helper()
	color.NoColor = true
	keyring.MockInit()
	t.Setenv("FLOWCANVAS_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("FLOWCANVAS_BACKEND_URL", "")
	t.Setenv("FLOWCANVAS_TELEMETRY_OPT_IN", "")
	t.Setenv("FLOWCANVAS_LOG_FILE", "")
	t.Setenv("FLOWCANVAS_LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{log: applog.WithComponent("cli")}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestInitInfoAndSave(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "demo")
	out := mustRun(t, "", "init", dir, "--sample")
	if !strings.Contains(out, `"Sample Flowchart"`) {
		t.Fatalf("init output: %q", out)
	}
	out = mustRun(t, "", "info", dir)
	for _, want := range []string{"Sample Flowchart", "Nodes: 6", "Edges: 7", "Root: " + dir} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q:\n%s", want, out)
		}
	}
	mustRun(t, "", "save", dir, "--title", "Renamed")
	h, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h.Doc.Title != "Renamed" {
		t.Fatalf("title = %q", h.Doc.Title)
	}
	backups, err := storage.Backups(dir)
	if err != nil || len(backups) == 0 {
		t.Fatalf("save should leave a backup: %v %v", backups, err)
	}
}

func TestInitEmptyAndUnknownDocument(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "blank")
	mustRun(t, "", "init", dir, "--title", "Blank")
	if out := mustRun(t, "", "info", dir); !strings.Contains(out, "Nodes: 0") {
		t.Fatalf("info: %s", out)
	}
	untitled := filepath.Join(t.TempDir(), "untitled")
	if out := mustRun(t, "", "init", untitled); !strings.Contains(out, `"Untitled"`) {
		t.Fatalf("init without a title: %s", out)
	}
	renamed := filepath.Join(t.TempDir(), "renamed")
	if out := mustRun(t, "", "init", renamed, "--sample", "--title", "Checkout"); !strings.Contains(out, `"Checkout"`) {
		t.Fatalf("sample with a title: %s", out)
	}
	if h, err := storage.Open(renamed); err != nil || h.Doc.Title != "Checkout" || len(h.Doc.Nodes) != 6 {
		t.Fatalf("renamed sample: %v", err)
	}
	if _, err := run(t, "", "info", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("info on a missing folder should fail")
	}
}

func TestExportFormats(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "demo")
	mustRun(t, "", "init", dir, "--sample")

	mustRun(t, "", "export", dir)
	svg, err := os.ReadFile(filepath.Join(dir, storage.ExportsDirName, "doc_001.svg"))
	if err != nil || !bytes.Contains(svg, []byte("<svg")) {
		t.Fatalf("svg export: %v", err)
	}
	out := filepath.Join(t.TempDir(), "chart")
	mustRun(t, "", "export", dir, "-f", "png", "-o", out, "--scale", "2")
	png, err := os.ReadFile(out + ".png")
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("png export: %v", err)
	}
	mustRun(t, "", "export", dir, "-f", "PDF", "-o", "chart.pdf")
	pdf, err := os.ReadFile(filepath.Join(dir, storage.ExportsDirName, "chart.pdf"))
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("pdf export: %v", err)
	}
	if _, err := run(t, "", "export", dir, "-f", "gif"); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestSearchAndLinks(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "demo")
	mustRun(t, "", "init", dir, "--sample")

	out := mustRun(t, "", "search", dir, "input")
	if !strings.Contains(out, "node_input") {
		t.Fatalf("search output:\n%s", out)
	}
	out = mustRun(t, "", "search", dir, "False", "--type", "edge_label")
	if !strings.Contains(out, "edge_5") || strings.Contains(out, "node_") {
		t.Fatalf("typed search output:\n%s", out)
	}
	if out := mustRun(t, "", "search", dir, "nonexistentword"); !strings.Contains(out, "No matches") {
		t.Fatalf("empty search output:\n%s", out)
	}
	out = mustRun(t, "", "links", dir, "node_end")
	for _, e := range []string{"edge_4", "edge_5", "edge_7"} {
		if !strings.Contains(out, e) {
			t.Fatalf("links missing %s:\n%s", e, out)
		}
	}
}

func TestShellScript(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "demo")
	mustRun(t, "", "init", dir, "--sample")

	script := strings.Join([]string{
		"# rename and move the start node",
		"title Scripted",
		"drag 120 130 170 150",
		"save",
		"export svg scripted.svg",
		"exit",
		"title never reached",
	}, "\n")
	out := mustRun(t, script, "shell", dir, "--script", "-")
	if !strings.Contains(out, "saved") || !strings.Contains(out, "scripted.svg") {
		t.Fatalf("shell output:\n%s", out)
	}
	h, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h.Doc.Title != "Scripted" {
		t.Fatalf("title = %q", h.Doc.Title)
	}
	if p := h.Doc.Nodes[0].Position; p.X != 136 || p.Y != 131 {
		t.Fatalf("node_start at %v, want (136,131)", p)
	}
	if _, err := os.Stat(filepath.Join(dir, storage.ExportsDirName, "scripted.svg")); err != nil {
		t.Fatalf("export from shell: %v", err)
	}

	if _, err := run(t, "bogus\n", "shell", dir, "--script", "-"); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("script error should name the line, got %v", err)
	}
}

func TestRemoteRoundTrip(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(backend.NewServer(backend.NewMemoryRepository(), "test-secret", "").Handler())
	defer srv.Close()

	if _, err := run(t, "", "remote", "list"); err == nil {
		t.Fatalf("remote commands need a server URL")
	}
	mustRun(t, "", "login", "--server", srv.URL, "--as", "tester")
	if tok, err := keyring.Get("FlowCanvas", "backend_token"); err != nil || tok == "" {
		t.Fatalf("token not stored: %q %v", tok, err)
	}

	dir := filepath.Join(t.TempDir(), "demo")
	mustRun(t, "", "init", dir, "--sample")
	if out := mustRun(t, "", "push", dir); !strings.Contains(out, "Pushed doc_001 (version 1)") {
		t.Fatalf("push output: %s", out)
	}
	if out := mustRun(t, "", "remote", "list"); !strings.Contains(out, "doc_001") || !strings.Contains(out, "Sample Flowchart") {
		t.Fatalf("list output: %s", out)
	}
	if out := mustRun(t, "", "remote", "search", "doc_001", "Output"); !strings.Contains(out, "node_output") {
		t.Fatalf("remote search output: %s", out)
	}

	copyDir := filepath.Join(t.TempDir(), "copy")
	mustRun(t, "", "pull", "doc_001", copyDir)
	h, err := storage.Open(copyDir)
	if err != nil {
		t.Fatalf("open pulled: %v", err)
	}
	if len(h.Doc.Nodes) != 6 || len(h.Doc.Edges) != 7 {
		t.Fatalf("pulled %d nodes %d edges", len(h.Doc.Nodes), len(h.Doc.Edges))
	}

	mustRun(t, "", "remote", "rm", "doc_001")
	mustRun(t, "", "logout")
	if _, err := keyring.Get("FlowCanvas", "backend_token"); err == nil {
		t.Fatalf("logout should remove the token")
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	if out := mustRun(t, "", "version"); !strings.HasPrefix(out, "flowcanvas ") {
		t.Fatalf("version output: %q", out)
	}
}
