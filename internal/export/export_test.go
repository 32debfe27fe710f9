/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/storage"
)

func sampleStore() *document.Store { return document.New(document.Sample()) }

// redBox is a single filled node with markup-sensitive content.
func redBox() *document.Store {
	return document.New(domain.Document{
		ID:    "doc_red",
		Title: "Red & <Box>",
		Nodes: []domain.Node{{
			ID: "n1", Shape: geometry.ShapeRectangle, Position: geometry.Pt{X: 0, Y: 0}, Width: 100, Height: 40,
			Content: "a < b & c", Style: domain.NodeStyle{BackgroundColor: "#ff0000", BorderColor: "#ff0000"},
		}},
	})
}

func TestBuildScene_Sample(t *testing.T) {
	s := sampleStore()
	sc, err := BuildScene(s, Options{})
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if len(sc.Nodes) != 6 || len(sc.Lines) != 7 {
		t.Fatalf("nodes=%d lines=%d", len(sc.Nodes), len(sc.Lines))
	}
	b, _ := s.Bounds()
	want := geometry.R(b.X-DefaultMargin, b.Y-DefaultMargin, b.W+2*DefaultMargin, b.H+2*DefaultMargin)
	if sc.Bounds != want {
		t.Fatalf("bounds %+v want %+v", sc.Bounds, want)
	}
	labels := map[string]string{}
	for _, l := range sc.Lines {
		if l.Label != "" {
			labels[l.ID] = l.Label
		}
	}
	if labels["edge_3"] != "True" || labels["edge_5"] != "False" || labels["edge_7"] != "Ctrl-D" || len(labels) != 3 {
		t.Fatalf("labels %v", labels)
	}
	for _, n := range sc.Nodes {
		if n.ID == "node_decision" && len(n.Outline()) != 4 {
			t.Fatalf("diamond outline %v", n.Outline())
		}
		if len(n.Text) == 0 {
			t.Fatalf("node %s has no text lines", n.ID)
		}
	}
}

func TestBuildScene_EmptyAndStyles(t *testing.T) {
	if _, err := BuildScene(document.NewEmpty("blank"), Options{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
	if _, err := BuildScene(nil, Options{}); err == nil {
		t.Fatalf("expected error for nil store")
	}
	sc, err := BuildScene(redBox(), Options{Margin: -1})
	if err != nil {
		t.Fatal(err)
	}
	if sc.Bounds != geometry.R(0, 0, 100, 40) {
		t.Fatalf("negative margin should clamp to zero, got %+v", sc.Bounds)
	}
	n := sc.Nodes[0]
	if n.Fill.R != 0xff || n.Fill.G != 0 || n.StrokeWidth != domain.DefaultBorderWidth || n.FontSize != domain.DefaultFontSize {
		t.Fatalf("resolved style %+v", n)
	}
}

func TestArrowHead(t *testing.T) {
	l := LineShape{Points: []geometry.Pt{{X: 0, Y: 0}, {X: 100, Y: 0}}, Width: 2}
	tip, left, right, ok := l.ArrowHead()
	if !ok || tip != (geometry.Pt{X: 100, Y: 0}) {
		t.Fatalf("tip %v ok=%v", tip, ok)
	}
	if left.X >= 100 || right.X >= 100 || math.Abs(left.Y+right.Y) > 1e-9 {
		t.Fatalf("arrow not symmetric behind tip: %v %v", left, right)
	}
	// a trailing duplicate point still yields a direction
	l.Points = append(l.Points, geometry.Pt{X: 100, Y: 0})
	if _, _, _, ok := l.ArrowHead(); !ok {
		t.Fatalf("expected arrow with duplicate end point")
	}
	if _, _, _, ok := (LineShape{Points: []geometry.Pt{{X: 1, Y: 1}, {X: 1, Y: 1}}}).ArrowHead(); ok {
		t.Fatalf("degenerate line must not have an arrow")
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleStore(), SVG, Options{}); err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<?xml", "<svg", "<title>Sample Flowchart</title>",
		`<polygon id="node_decision"`, `<rect id="node_start"`, `<polyline id="edge_4"`,
		`stroke="#ff0000"`, ">True</text>", ">Ctrl-D</text>", "</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q", want)
		}
	}

	buf.Reset()
	if err := Render(&buf, redBox(), SVG, Options{}); err != nil {
		t.Fatal(err)
	}
	out = buf.String()
	if !strings.Contains(out, "a &lt; b &amp; c") || !strings.Contains(out, "<title>Red &amp; &lt;Box&gt;</title>") {
		t.Fatalf("text not escaped: %s", out)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, redBox(), PNG, Options{Margin: 10, Scale: 2}); err != nil {
		t.Fatalf("Render png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 120 {
		t.Fatalf("size %dx%d want 240x120", b.Dx(), b.Dy())
	}
	if r, g, b, _ := img.At(1, 1).RGBA(); r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Fatalf("margin should be white, got %d %d %d", r>>8, g>>8, b>>8)
	}
	// inside the node, away from the centred text
	if r, g, b, _ := img.At(30, 30).RGBA(); r>>8 != 0xff || g>>8 != 0 || b>>8 != 0 {
		t.Fatalf("node fill should be red, got %d %d %d", r>>8, g>>8, b>>8)
	}

	if _, err := RenderPNG(Scene{Bounds: geometry.R(0, 0, MaxPNGSide+1, 10)}, Options{}); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleStore(), PDF, Options{}); err != nil {
		t.Fatalf("Render pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:8])
	}
	if err := WritePDF(&buf, Scene{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty scene: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"svg": SVG, ".PNG": PNG, " pdf ": PDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
}

func TestToFile(t *testing.T) {
	root := t.TempDir()
	h, err := storage.Init(root, document.Sample())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, f := range Formats {
		p, err := ToFile(h, "", f, Options{})
		if err != nil {
			t.Fatalf("ToFile %s: %v", f, err)
		}
		want := filepath.Join(root, storage.ExportsDirName, "doc_001."+string(f))
		if p != want {
			t.Fatalf("path %s want %s", p, want)
		}
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	abs := filepath.Join(t.TempDir(), "nested", "chart.svg")
	if p, err := ToFile(h, abs, SVG, Options{}); err != nil || p != abs {
		t.Fatalf("absolute path: %s %v", p, err)
	}
	if _, err := ToFile(nil, "", SVG, Options{}); err == nil {
		t.Fatalf("expected error for nil handle")
	}
}

func TestToClipboard(t *testing.T) {
	var got string
	old := writeClipboard
	writeClipboard = func(s string) error { got = s; return nil }
	defer func() { writeClipboard = old }()

	if err := ToClipboard(sampleStore(), Options{}); err != nil {
		t.Fatalf("ToClipboard: %v", err)
	}
	if !strings.HasPrefix(got, "<?xml") {
		t.Fatalf("clipboard got %.20q", got)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	if err := ToClipboard(sampleStore(), Options{}); err == nil {
		t.Fatalf("expected clipboard error")
	}
}
