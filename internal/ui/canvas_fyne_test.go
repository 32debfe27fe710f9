//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests need the fyne tag and cgo:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"

	flow "flowcanvas/internal/canvas"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
)

func newTestCanvas(t *testing.T) *FlowCanvas {
	t.Helper()
	test.NewApp()
	s := document.New(domain.Document{
		Nodes: []domain.Node{
			{ID: "n1", Shape: geometry.ShapeRectangle, Position: geometry.Pt{X: 0, Y: 0}, Width: 140, Height: 50, Content: "one"},
			{ID: "n2", Shape: geometry.ShapeDiamond, Position: geometry.Pt{X: 0, Y: 100}, Width: 140, Height: 80, Content: "two"},
		},
		Edges: []domain.Edge{{
			ID: "e1", From: domain.NodeEndpoint("n1"), To: domain.NodeEndpoint("n2"),
			FromAnchor: domain.AnchorAt(geometry.SideBottom), ToAnchor: domain.AnchorAt(geometry.SideTop),
			Label: &domain.EdgeLabel{Text: "go", T: 0.5, FontSize: 12},
		}},
	})
	fc := NewFlowCanvas(flow.New(s, flow.DefaultOptions))
	fc.Resize(fyne.NewSize(800, 600))
	t.Cleanup(fc.Close)
	return fc
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: desktop.MouseButtonPrimary}
}

func TestFlowCanvas_MouseDragMovesNode(t *testing.T) {
	fc := newTestCanvas(t)
	changes := 0
	fc.OnChange = func() { changes++ }
	fc.MouseDown(mouse(70, 25))
	fc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(120, 45)}})
	fc.DragEnd()
	fc.MouseUp(mouse(120, 45))
	n, _ := fc.Canvas().Store().Node("n1")
	if n.Position != (geometry.Pt{X: 50, Y: 20}) {
		t.Fatalf("n1 at %v", n.Position)
	}
	if fc.Canvas().Store().IsDraggingNode() || changes == 0 {
		t.Fatalf("drag should have ended and reported changes (%d)", changes)
	}
}

func TestFlowCanvas_TouchAndSecondaryButton(t *testing.T) {
	fc := newTestCanvas(t)
	right := mouse(70, 25)
	right.Button = desktop.MouseButtonSecondary
	fc.MouseDown(right)
	if fc.Canvas().Store().IsDraggingNode() {
		t.Fatalf("secondary button must not start a drag")
	}
	fc.TouchDown(&mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(70, 25)}})
	if !fc.Canvas().Store().IsDraggingNode() {
		t.Fatalf("touch should start a node drag")
	}
	fc.TouchCancel(&mobile.TouchEvent{})
	if fc.Canvas().Store().IsDraggingNode() {
		t.Fatalf("touch cancel should end the drag")
	}
}

func touch(x, y float32) *mobile.TouchEvent {
	return &mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func dragTo(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestFlowCanvas_TouchDragMovesNodeAndEndpoint(t *testing.T) {
	fc := newTestCanvas(t)
	fc.TouchDown(touch(70, 25))
	fc.Dragged(dragTo(100, 55))
	fc.DragEnd()
	fc.TouchUp(touch(100, 55))
	n, _ := fc.Canvas().Store().Node("n1")
	if n.Position != (geometry.Pt{X: 30, Y: 30}) {
		t.Fatalf("touch drag left n1 at %v", n.Position)
	}

	// the To handle of e1 sits on n2's top side
	fc.TouchDown(touch(70, 100))
	fc.Dragged(dragTo(300, 300))
	fc.TouchUp(touch(300, 300))
	e, _ := fc.Canvas().Store().Edge("e1")
	if e.To.IsNode() || e.To.Point != (geometry.Pt{X: 300, Y: 300}) {
		t.Fatalf("touch endpoint drag: to=%v", e.To)
	}
	if fc.Canvas().Store().IsDraggingEdge() {
		t.Fatalf("touch up should end the endpoint drag")
	}

	// a later mouse press routes motion as mouse again
	fc.MouseDown(mouse(40, 50))
	fc.Dragged(dragTo(50, 60))
	fc.MouseUp(mouse(50, 60))
	if n, _ := fc.Canvas().Store().Node("n1"); n.Position != (geometry.Pt{X: 40, Y: 40}) {
		t.Fatalf("mouse drag after touch left n1 at %v", n.Position)
	}
}

func TestFlowCanvas_ScrollZoomsIn(t *testing.T) {
	fc := newTestCanvas(t)
	fc.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)}, Scrolled: fyne.NewDelta(0, 10)})
	if z := fc.Canvas().Viewport().Viewport().Zoom; z <= 1 {
		t.Fatalf("wheel up should zoom in, zoom=%v", z)
	}
}

func TestFlowCanvas_DoubleTapEdits(t *testing.T) {
	fc := newTestCanvas(t)
	var gotID, gotText string
	fc.OnEdit = func(id, text string) { gotID, gotText = id, text }
	fc.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(70, 25)})
	if gotID != "n1" || gotText != "one" {
		t.Fatalf("OnEdit(%q, %q)", gotID, gotText)
	}
	if !fc.Canvas().CommitEdit("uno") {
		t.Fatalf("commit failed")
	}
	if n, _ := fc.Canvas().Store().Node("n1"); n.Content != "uno" {
		t.Fatalf("content %q", n.Content)
	}
}

func TestFlowCanvas_RendererObjects(t *testing.T) {
	fc := newTestCanvas(t)
	r := test.WidgetRenderer(fc)
	// background, edge segment + two arrow wings, rect + text, four diamond lines + text, label bg + text
	if got := len(r.Objects()); got != 1+3+2+5+2 {
		t.Fatalf("objects = %d", got)
	}
	fc.Canvas().Selection().SelectEdge("e1")
	r.Refresh()
	if got := len(r.Objects()); got != 1+3+2+5+2+2 {
		t.Fatalf("selected edge should add two handles, objects = %d", got)
	}
}

func TestFieldEntry_CommitsOnBlurAndReverts(t *testing.T) {
	test.NewApp()
	var sunk []float64
	f := stylefield.NewField(stylefield.EdgeWidth, 2, func(v float64) { sunk = append(sunk, v) })
	e := newFieldEntry(f)
	e.FocusGained()
	e.SetText("42")
	if f.Committed != 2 || f.Displayed != "42" {
		t.Fatalf("typing must not commit: %+v", f)
	}
	e.FocusLost()
	if len(sunk) != 1 || sunk[0] != 10 || e.Text != "10" {
		t.Fatalf("blur should commit clamped value: sunk=%v text=%q", sunk, e.Text)
	}
	e.FocusGained()
	e.SetText("abc")
	e.FocusLost()
	if len(sunk) != 1 || e.Text != "10" {
		t.Fatalf("bad input should revert: sunk=%v text=%q", sunk, e.Text)
	}
	e.follow(4)
	if e.Text != "4" {
		t.Fatalf("unfocused entry should follow the store: %q", e.Text)
	}
}

func TestStylePanel_FollowsSelection(t *testing.T) {
	fc := newTestCanvas(t)
	w := test.NewWindow(nil)
	defer w.Close()
	s := fc.Canvas().Store()
	p := newStylePanel(s, w)
	defer p.Close()
	if len(p.bindings) != 0 {
		t.Fatalf("no selection should have no fields")
	}
	s.SelectNode("n1")
	if len(p.bindings) != 3 {
		t.Fatalf("node panel fields = %d", len(p.bindings))
	}
	s.SelectEdge("e1")
	if len(p.bindings) != 3 {
		t.Fatalf("edge panel fields = %d", len(p.bindings))
	}
	w8 := 8.0
	s.UpdateEdgeStyle("e1", document.EdgeStylePatch{Width: &w8})
	if got := p.bindings[0].entry.Text; got != "8" {
		t.Fatalf("width field should follow the store, got %q", got)
	}
}
