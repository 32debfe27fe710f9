/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"testing"

	"flowcanvas/internal/config"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/drag"
	"flowcanvas/internal/geometry"
)

func pt(x, y float64) geometry.Pt { return geometry.Pt{X: x, Y: y} }

func newCanvas(t *testing.T, zoom float64, opts Options) *Canvas {
	t.Helper()
	s := document.New(domain.Document{
		Viewport: geometry.Viewport{Zoom: zoom},
		Nodes: []domain.Node{
			{ID: "n1", Shape: geometry.ShapeRectangle, Position: pt(0, 0), Width: 140, Height: 50},
			{ID: "n2", Shape: geometry.ShapeRectangle, Position: pt(0, 100), Width: 140, Height: 50},
		},
		Edges: []domain.Edge{{
			ID: "e1", From: domain.NodeEndpoint("n1"), To: domain.NodeEndpoint("n2"),
			FromAnchor: domain.AnchorAt(geometry.SideBottom), ToAnchor: domain.AnchorAt(geometry.SideTop),
		}},
	})
	return New(s, opts)
}

func TestEndpointDragThroughCanvas(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	h := c.PointerDown(drag.Mouse, pt(70, 100))
	if h.Kind != HitEndpoint || h.ID != "e1" || h.Which != domain.To {
		t.Fatalf("expected to-endpoint hit, got %v", h)
	}
	if !c.IsDraggingEdge() {
		t.Fatalf("edge drag flag not set")
	}
	c.PointerMove(drag.Mouse, pt(75, 40))
	c.PointerUp(drag.Mouse)
	e, _ := c.Store().Edge("e1")
	if e.To.IsNode() || e.To.Point != pt(75, 40) {
		t.Fatalf("to endpoint should be the free point (75,40): %+v", e.To)
	}
	if c.IsDraggingEdge() {
		t.Fatalf("flag should be cleared on pointer up")
	}
	if p, _ := c.EndpointOnScreen("e1", domain.To); p != pt(75, 40) {
		t.Fatalf("screen endpoint at zoom 1: %v", p)
	}
}

func TestBackgroundPanUpdatesStoreViewport(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	c.Store().SelectNode("n1")
	if h := c.PointerDown(drag.Mouse, pt(500, 500)); h.Kind != HitBackground {
		t.Fatalf("expected background, got %v", h)
	}
	if !c.Selection().Current().IsNone() {
		t.Fatalf("background press should clear selection")
	}
	c.PointerMove(drag.Mouse, pt(510, 520))
	c.PointerUp(drag.Mouse)
	c.PointerMove(drag.Mouse, pt(900, 900))
	vp := c.Store().Viewport()
	if vp.X != 10 || vp.Y != 20 || vp.Zoom != 1 {
		t.Fatalf("store viewport after pan: %+v", vp)
	}
}

func TestNodeDragAtZoom(t *testing.T) {
	for _, tc := range []struct {
		name string
		aware bool
		want geometry.Pt
	}{
		{"zoom_aware", true, pt(10, 10)},
		{"raw", false, pt(20, 20)},
	} {
		opts := DefaultOptions
		opts.ZoomAwareDrag = tc.aware
		c := newCanvas(t, 2, opts)
		if h := c.PointerDown(drag.Mouse, pt(140, 20)); h.Kind != HitNode || h.ID != "n1" {
			t.Fatalf("%s: expected node hit, got %v", tc.name, h)
		}
		c.PointerMove(drag.Mouse, pt(160, 40))
		c.PointerUp(drag.Mouse)
		n, _ := c.Store().Node("n1")
		if n.Position != tc.want {
			t.Fatalf("%s: node at %v want %v", tc.name, n.Position, tc.want)
		}
		if c.Store().SelectedNode() != "n1" {
			t.Fatalf("%s: dragged node should be selected", tc.name)
		}
	}
}

func TestNodeDragSuppressesPan(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	c.PointerDown(drag.Mouse, pt(20, 20))
	c.PointerMove(drag.Mouse, pt(40, 40))
	if vp := c.Viewport().Viewport(); vp.X != 0 || vp.Y != 0 {
		t.Fatalf("node drag must not pan: %+v", vp)
	}
}

func TestTouchDragIgnoresMouse(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	c.PointerDown(drag.Touch, pt(20, 20))
	c.PointerMove(drag.Mouse, pt(60, 60))
	n, _ := c.Store().Node("n1")
	if n.Position != pt(0, 0) {
		t.Fatalf("mouse move must not drive a touch drag: %v", n.Position)
	}
	c.PointerMove(drag.Touch, pt(25, 30))
	c.PointerUp(drag.Touch)
	n, _ = c.Store().Node("n1")
	if n.Position != pt(5, 10) {
		t.Fatalf("touch drag result: %v", n.Position)
	}
}

func TestEdgeLineHitSelectsEdge(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	c.Store().SelectNode("n1")
	h := c.PointerDown(drag.Mouse, pt(73, 75))
	if h.Kind != HitEdge || h.ID != "e1" {
		t.Fatalf("expected edge hit, got %v", h)
	}
	if c.Store().SelectedEdge() != "e1" || c.Store().SelectedNode() != "" {
		t.Fatalf("edge click should select the edge exclusively")
	}
	if c.PointerDown(drag.Mouse, pt(90, 75)).Kind != HitBackground {
		t.Fatalf("far from the line should miss")
	}
}

func TestWheelZoomKeepsCursorPoint(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	p := pt(300, 200)
	before := c.Viewport().ToDocument(p)
	if !c.Wheel(p, -1) {
		t.Fatalf("wheel up should zoom in")
	}
	if got := c.Viewport().ToScreen(before); !got.Near(p, 1e-9) {
		t.Fatalf("cursor point moved to %v", got)
	}
	if c.Wheel(p, 0) {
		t.Fatalf("zero delta must not zoom")
	}
	if !c.ZoomOut() || c.Scene().Viewport.Zoom != 1.05 {
		t.Fatalf("button zoom out: %v", c.Scene().Viewport.Zoom)
	}
}

func TestDeleteSelectionAndConnect(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	id, err := c.Connect("n2", "n1")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	e, _ := c.Store().Edge(id)
	if e.FromAnchor.Side != geometry.SideTop || e.ToAnchor.Side != geometry.SideBottom {
		t.Fatalf("facing sides: %v %v", e.FromAnchor, e.ToAnchor)
	}
	if _, err := c.Connect("n1", "ghost"); err == nil {
		t.Fatalf("connect to a missing node should fail")
	}
	c.Selection().SelectEdge(id)
	if !c.DeleteSelection() {
		t.Fatalf("delete selection failed")
	}
	if _, ok := c.Store().Edge(id); ok {
		t.Fatalf("edge still present")
	}
	if c.DeleteSelection() {
		t.Fatalf("nothing selected, nothing deleted")
	}
}

func TestDoubleClickEditing(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	if !c.DoubleClick(pt(20, 120)) {
		t.Fatalf("double click on n2 should start editing")
	}
	if n, _ := c.Store().Node("n2"); !n.Editing {
		t.Fatalf("n2 not editing")
	}
	c.CommitEdit("Done")
	n, _ := c.Store().Node("n2")
	if n.Editing || n.Content != "Done" {
		t.Fatalf("commit edit: %+v", n)
	}
}

func TestSceneAndClose(t *testing.T) {
	c := newCanvas(t, 1, DefaultOptions)
	c.PointerDown(drag.Mouse, pt(20, 20))
	sc := c.Scene()
	if !sc.DraggingNode || len(sc.Nodes) != 2 || len(sc.Lines) != 1 {
		t.Fatalf("scene: %+v", sc)
	}
	if sc.Transform != geometry.Identity {
		t.Fatalf("transform at zoom 1 should be identity: %+v", sc.Transform)
	}
	c.Close()
	if c.IsDraggingNode() {
		t.Fatalf("close should end the drag")
	}
}

func TestFitEmptyAndFull(t *testing.T) {
	c := New(document.NewEmpty("blank"), DefaultOptions)
	if !c.Fit(800, 600) || c.Scene().Viewport != geometry.DefaultViewport {
		t.Fatalf("empty document fit should reset")
	}
	c = New(document.New(document.Sample()), DefaultOptions)
	c.Fit(800, 600)
	b, _ := c.Store().Bounds()
	tl := c.Viewport().ToScreen(b.Min())
	br := c.Viewport().ToScreen(b.Max())
	if tl.X < 39 || tl.Y < 39 || br.X > 761 || br.Y > 561 {
		t.Fatalf("fitted content outside margins: %v %v", tl, br)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	o := OptionsFrom(config.Defaults().Canvas)
	if o.Limits != DefaultOptions.Limits || !o.ZoomAwareDrag || o.HandleRadius != 8 {
		t.Fatalf("defaults should map onto DefaultOptions: %+v", o)
	}
	o = OptionsFrom(config.CanvasConfig{MaxZoom: 3, ZoomFactor: 0.5})
	if o.Limits.MaxZoom != 3 || o.Limits.Factor != DefaultOptions.Limits.Factor || o.ZoomAwareDrag {
		t.Fatalf("partial config: %+v", o)
	}
}
