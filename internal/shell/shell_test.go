/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shell

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
)

func newShell(t *testing.T, opts Options) (*Shell, *canvas.Canvas, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	s := document.New(domain.Document{
		ID: "d1",
		Nodes: []domain.Node{
			{ID: "n1", Shape: geometry.ShapeRectangle, Position: geometry.Pt{X: 0, Y: 0}, Width: 140, Height: 50, Content: "one"},
			{ID: "n2", Shape: geometry.ShapeRectangle, Position: geometry.Pt{X: 0, Y: 100}, Width: 140, Height: 50, Content: "two"},
		},
		Edges: []domain.Edge{{
			ID: "e1", From: domain.NodeEndpoint("n1"), To: domain.NodeEndpoint("n2"),
			FromAnchor: domain.AnchorAt(geometry.SideBottom), ToAnchor: domain.AnchorAt(geometry.SideTop),
		}},
	}, document.WithIDGenerator(func() string { return "gen" }))
	c := canvas.New(s, canvas.DefaultOptions)
	var out bytes.Buffer
	return New(c, &out, opts), c, &out
}

func TestParseArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"down 1 2", []string{"down", "1", "2"}},
		{`label e1 "Yes please" 0.25`, []string{"label", "e1", "Yes please", "0.25"}},
		{`title ""`, []string{"title", ""}},
		{"  move\t3   4 ", []string{"move", "3", "4"}},
	}
	for _, c := range cases {
		if got := ParseArgs(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseArgs(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNodeDragAndPan(t *testing.T) {
	sh, c, out := newShell(t, Options{})
	if err := sh.Execute("drag 70 25 170 25"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "node:n1" {
		t.Fatalf("drag output %q", got)
	}
	if n, _ := c.Store().Node("n1"); n.Position != (geometry.Pt{X: 100, Y: 0}) {
		t.Fatalf("n1 at %v", n.Position)
	}
	if sh.Prompt() != "flowcanvas[node:n1]> " {
		t.Fatalf("prompt %q", sh.Prompt())
	}

	out.Reset()
	if err := sh.Execute("drag 400 400 410 420 2"); err != nil {
		t.Fatal(err)
	}
	if v := c.Viewport().Viewport(); v.X != 10 || v.Y != 20 {
		t.Fatalf("pan: %+v", v)
	}
	if sh.Prompt() != "flowcanvas> " {
		t.Fatalf("background press should clear selection, prompt %q", sh.Prompt())
	}
}

func TestEdgeEndpointDragByStepCommands(t *testing.T) {
	sh, c, out := newShell(t, Options{})
	script := `
# detach the to end and drop it on empty space
down 70 100
move 200 220
up
hit 200 220
`
	if err := sh.RunScript(strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	e, _ := c.Store().Edge("e1")
	if e.To.IsNode() || e.To.Point != (geometry.Pt{X: 200, Y: 220}) {
		t.Fatalf("to endpoint %+v", e.To)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "endpoint:e1:to" || lines[1] != "endpoint:e1:to" {
		t.Fatalf("output %q", lines)
	}
}

func TestTouchIgnoresMouseMoves(t *testing.T) {
	sh, c, _ := newShell(t, Options{})
	for _, line := range []string{"down touch 70 25", "move 170 25", "move touch 90 25", "up touch"} {
		if err := sh.Execute(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	if n, _ := c.Store().Node("n1"); n.Position != (geometry.Pt{X: 20, Y: 0}) {
		t.Fatalf("n1 at %v", n.Position)
	}
}

func TestEditingAndStoreCommands(t *testing.T) {
	sh, c, out := newShell(t, Options{})
	st := c.Store()
	script := `
dblclick 70 125
type renamed node
add 300 0 "third node"
connect n1 gen
label e1 Yes 0.25 99
estyle e1 color=#f00 width=20 dashed=true
style n2 bg=#00ff00 font-size=4 weight=bold
flip e1
title My Chart
select edge e1
delete
`
	if err := sh.RunScript(strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	n2, _ := st.Node("n2")
	if n2.Content != "renamed node" || n2.Editing {
		t.Fatalf("n2 %+v", n2)
	}
	if n2.Style.BackgroundColor != "#00ff00" || n2.Style.FontSize != 8 || n2.Style.FontWeight != "bold" {
		t.Fatalf("n2 style %+v", n2.Style)
	}
	if n3, ok := st.Node("gen"); !ok || n3.Content != "third node" || n3.Position != (geometry.Pt{X: 300, Y: 0}) {
		t.Fatalf("added node %+v ok=%v", n3, ok)
	}
	if _, ok := st.Edge("e1"); ok {
		t.Fatalf("e1 should be deleted")
	}
	if len(st.Edges()) != 1 || st.Title() != "My Chart" {
		t.Fatalf("edges=%d title=%q", len(st.Edges()), st.Title())
	}
	if !strings.Contains(out.String(), "editing n2") || !strings.Contains(out.String(), "deleted e1") {
		t.Fatalf("output %q", out.String())
	}
}

func TestLabelAndStyleClamp(t *testing.T) {
	sh, c, _ := newShell(t, Options{})
	for _, line := range []string{`label e1 "Go on" 2 99`, "estyle e1 width=0 color=#ABC"} {
		if err := sh.Execute(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	e, _ := c.Store().Edge("e1")
	if e.Label == nil || e.Label.Text != "Go on" || e.Label.T != 1 || e.Label.FontSize != 72 {
		t.Fatalf("label %+v", e.Label)
	}
	if e.Style.Width != 1 || e.Style.Color != "#aabbcc" {
		t.Fatalf("style %+v", e.Style)
	}
	// relabel keeps position and size
	if err := sh.Execute("label e1 Again"); err != nil {
		t.Fatal(err)
	}
	e, _ = c.Store().Edge("e1")
	if e.Label.T != 1 || e.Label.FontSize != 72 {
		t.Fatalf("relabel %+v", e.Label)
	}
	if err := sh.Execute("unlabel e1"); err != nil {
		t.Fatal(err)
	}
	if e, _ = c.Store().Edge("e1"); e.Label != nil {
		t.Fatalf("label not removed")
	}
}

func TestViewCommands(t *testing.T) {
	sh, c, out := newShell(t, Options{})
	if err := sh.Execute("wheel 0 0 -1"); err != nil {
		t.Fatal(err)
	}
	if z := c.Viewport().Viewport().Zoom; z <= 1 {
		t.Fatalf("wheel up should zoom in, zoom=%g", z)
	}
	if err := sh.Execute("zoom reset"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "view x=0 y=0 zoom=1\n") {
		t.Fatalf("output %q", out.String())
	}
	if err := sh.Execute("fit 800 600"); err != nil {
		t.Fatal(err)
	}
	if err := sh.Execute("zoom sideways"); err == nil {
		t.Fatalf("expected usage error")
	}
}

func TestErrors(t *testing.T) {
	sh, _, _ := newShell(t, Options{})
	cases := []struct {
		line string
		is   error
	}{
		{"bogus", nil},
		{"down 1", nil},
		{"down x 1", nil},
		{"type nothing", nil},
		{"delete", nil},
		{"dblclick 500 500", nil},
		{"select node nope", document.ErrUnknownNode},
		{"select edge nope", document.ErrUnknownEdge},
		{"flip nope", document.ErrUnknownEdge},
		{"connect n1 nope", document.ErrUnknownNode},
		{"style n1 shadow=1", nil},
		{"style n1 bg=#zzz", nil},
		{"style n1 weight=heavy", nil},
		{"estyle e1 dashed=maybe", nil},
		{"label e1 x notanumber", nil},
		{"save", nil},
		{"export svg", nil},
		{"drag 1 1 2 2 0", nil},
	}
	for _, c := range cases {
		err := sh.Execute(c.line)
		if err == nil {
			t.Fatalf("%q: expected error", c.line)
		}
		if c.is != nil && !errors.Is(err, c.is) {
			t.Fatalf("%q: got %v, want %v", c.line, err, c.is)
		}
	}
	if err := sh.Execute("quit"); !errors.Is(err, ErrExit) {
		t.Fatalf("quit: %v", err)
	}
}

func TestSaveExportAndScriptControl(t *testing.T) {
	var saved domain.Document
	var exported []string
	sh, _, out := newShell(t, Options{
		Save: func(d domain.Document) error { saved = d; return nil },
		Export: func(d domain.Document, format, path string) (string, error) {
			exported = append(exported, format+":"+path)
			return "/tmp/" + d.ID + "." + format, nil
		},
	})
	if err := sh.RunScript(strings.NewReader("title Saved\nsave\nexport png chart.png\nexit\nadd 0 0 never\n")); err != nil {
		t.Fatal(err)
	}
	if saved.Title != "Saved" || len(saved.Nodes) != 2 {
		t.Fatalf("saved %+v", saved)
	}
	if !reflect.DeepEqual(exported, []string{"png:chart.png"}) {
		t.Fatalf("exported %v", exported)
	}
	if !strings.Contains(out.String(), "wrote /tmp/d1.png") {
		t.Fatalf("output %q", out.String())
	}

	err := sh.RunScript(strings.NewReader("view\n\nflip nope\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "line 3:") {
		t.Fatalf("expected line 3 error, got %v", err)
	}
}

func TestHelp(t *testing.T) {
	sh, _, out := newShell(t, Options{})
	if err := sh.Execute("help"); err != nil {
		t.Fatal(err)
	}
	for _, name := range commandNames() {
		if !strings.Contains(out.String(), commands[name].usage) {
			t.Fatalf("help misses %s", name)
		}
	}
	out.Reset()
	if err := sh.Execute("help drag"); err != nil || !strings.Contains(out.String(), "press, move in steps") {
		t.Fatalf("help drag: %v %q", err, out.String())
	}
	if err := sh.Execute("help nope"); err == nil {
		t.Fatalf("expected error")
	}
}
