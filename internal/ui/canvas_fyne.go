//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	flow "flowcanvas/internal/canvas"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/drag"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
)

var (
	canvasBackground = color.RGBA{R: 0xf4, G: 0xf5, B: 0xf7, A: 0xff}
	selectionColour  = color.RGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0xff}
	handleColour     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// FlowCanvas is the interactive flowchart widget. It forwards mouse, touch
// and wheel input to a canvas.Canvas and redraws from its scene.
type FlowCanvas struct {
	widget.BaseWidget

	c     *flow.Canvas
	unsub func()
	// src is the input that pressed last; fyne reports motion for both
	// mouse and touch through Dragged.
	src drag.Source

	// OnEdit is called after a double click put a node into edit mode.
	OnEdit func(nodeID, content string)
	// OnChange is called after any interaction that may have changed state.
	OnChange func()
}

// NewFlowCanvas wraps c. Call Close when the widget is discarded.
func NewFlowCanvas(c *flow.Canvas) *FlowCanvas {
	fc := &FlowCanvas{c: c}
	fc.unsub = c.Store().Subscribe(func(document.Event) { fc.Refresh() })
	fc.ExtendBaseWidget(fc)
	return fc
}

// Canvas returns the interaction surface.
func (fc *FlowCanvas) Canvas() *flow.Canvas { return fc.c }

// Close detaches the widget from the store and ends any drag.
func (fc *FlowCanvas) Close() {
	if fc.unsub != nil {
		fc.unsub()
		fc.unsub = nil
	}
	fc.c.Close()
}

func toPt(p fyne.Position) geometry.Pt { return geometry.Pt{X: float64(p.X), Y: float64(p.Y)} }

func toPos(p geometry.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func (fc *FlowCanvas) changed() {
	fc.Refresh()
	if fc.OnChange != nil {
		fc.OnChange()
	}
}

// MouseDown starts a node drag, an endpoint drag or a pan.
func (fc *FlowCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	fc.src = drag.Mouse
	fc.c.PointerDown(drag.Mouse, toPt(e.Position))
	fc.changed()
}

// MouseUp ends the drag or pan started by MouseDown.
func (fc *FlowCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	fc.c.PointerUp(drag.Mouse)
	fc.changed()
}

// Dragged feeds pointer motion from the input that pressed last.
func (fc *FlowCanvas) Dragged(e *fyne.DragEvent) {
	fc.c.PointerMove(fc.src, toPt(e.Position))
	fc.Refresh()
}

// DragEnd is delivered before MouseUp on desktop; releasing twice is harmless.
func (fc *FlowCanvas) DragEnd() {
	fc.c.PointerUp(fc.src)
	fc.changed()
}

// TouchDown, TouchUp and TouchCancel route touch input. Touch sessions
// ignore mouse events and the other way round.
func (fc *FlowCanvas) TouchDown(e *mobile.TouchEvent) {
	fc.src = drag.Touch
	fc.c.PointerDown(drag.Touch, toPt(e.Position))
	fc.changed()
}

func (fc *FlowCanvas) TouchUp(*mobile.TouchEvent) {
	fc.c.PointerUp(drag.Touch)
	fc.changed()
}

func (fc *FlowCanvas) TouchCancel(*mobile.TouchEvent) {
	fc.c.PointerUp(drag.Touch)
	fc.changed()
}

// Scrolled zooms around the cursor. Fyne reports wheel-up as positive DY.
func (fc *FlowCanvas) Scrolled(e *fyne.ScrollEvent) {
	if fc.c.Wheel(toPt(e.Position), -float64(e.Scrolled.DY)) {
		fc.changed()
	}
}

// DoubleTapped enters text editing for the node under the pointer.
func (fc *FlowCanvas) DoubleTapped(e *fyne.PointEvent) {
	if !fc.c.DoubleClick(toPt(e.Position)) {
		return
	}
	id := fc.c.Store().SelectedNode()
	n, _ := fc.c.Store().Node(id)
	fc.changed()
	if fc.OnEdit != nil {
		fc.OnEdit(id, n.Content)
	}
}

// Fit frames the document in the widget's current size.
func (fc *FlowCanvas) Fit() {
	s := fc.Size()
	fc.c.Fit(float64(s.Width), float64(s.Height))
	fc.changed()
}

func (fc *FlowCanvas) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func (fc *FlowCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &flowRenderer{fc: fc, bg: canvas.NewRectangle(canvasBackground)}
	r.rebuild()
	return r
}

// flowRenderer recreates its objects from the canvas scene on every refresh.
// Charts are small enough that diffing would not pay off.
type flowRenderer struct {
	fc      *FlowCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *flowRenderer) Destroy()                     {}
func (r *flowRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *flowRenderer) MinSize() fyne.Size           { return r.fc.MinSize() }

func (r *flowRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
}

func (r *flowRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.fc.Size())
	canvas.Refresh(r.fc)
}

func (r *flowRenderer) rebuild() {
	sc := r.fc.c.Scene()
	zoom := sc.Viewport.Zoom
	screen := func(p geometry.Pt) fyne.Position { return toPos(sc.Transform.Apply(p)) }
	objs := []fyne.CanvasObject{r.bg}

	for _, l := range sc.Lines {
		objs = append(objs, lineObjects(l, screen, zoom, sc.Selection.EdgeID() == l.Edge.ID)...)
	}
	for _, n := range sc.Nodes {
		objs = append(objs, nodeObjects(n, screen, zoom, sc.Selection.NodeID() == n.ID)...)
	}
	for _, l := range sc.Lines {
		if l.Edge.Label == nil || l.Edge.Label.Text == "" {
			continue
		}
		objs = append(objs, labelObjects(l, screen, zoom)...)
	}
	if id := sc.Selection.EdgeID(); id != "" {
		for _, w := range []domain.Which{domain.From, domain.To} {
			p, ok := r.fc.c.EndpointOnScreen(id, w)
			if !ok {
				continue
			}
			h := canvas.NewCircle(handleColour)
			h.StrokeColor = selectionColour
			h.StrokeWidth = 2
			h.Resize(fyne.NewSize(12, 12))
			h.Move(toPos(p).Subtract(fyne.NewPos(6, 6)))
			objs = append(objs, h)
		}
	}
	r.objects = objs
}

func rgba(hex string, fallback stylefield.RGB) color.Color {
	return stylefield.MustHex(hex, fallback).RGBA()
}

func nodeObjects(n domain.Node, screen func(geometry.Pt) fyne.Position, zoom float64, selected bool) []fyne.CanvasObject {
	st := n.Style.Resolved()
	stroke := rgba(st.BorderColor, stylefield.RGB{})
	if selected {
		stroke = selectionColour
	}
	width := float32(st.BorderWidth * zoom)
	var out []fyne.CanvasObject
	b := n.Bounds()
	if n.Shape == geometry.ShapeDiamond {
		// fyne has no polygon primitive; outline the diamond with four lines
		d := geometry.DiamondPoints(b)
		for i := range d {
			ln := canvas.NewLine(stroke)
			ln.StrokeWidth = width
			ln.Position1, ln.Position2 = screen(d[i]), screen(d[(i+1)%len(d)])
			out = append(out, ln)
		}
	} else {
		rect := canvas.NewRectangle(rgba(st.BackgroundColor, stylefield.RGB{R: 0xff, G: 0xff, B: 0xff}))
		rect.StrokeColor = stroke
		rect.StrokeWidth = width
		rect.CornerRadius = float32(st.BorderRadius * zoom)
		rect.Move(screen(b.Min()))
		rect.Resize(fyne.NewSize(float32(b.W*zoom), float32(b.H*zoom)))
		out = append(out, rect)
	}
	if n.Content == "" || n.Editing {
		return out
	}
	txt := canvas.NewText(n.Content, rgba(st.TextColor, stylefield.RGB{}))
	txt.TextSize = float32(st.FontSize * zoom)
	txt.TextStyle = fyne.TextStyle{Bold: st.FontWeight == "bold"}
	sz := txt.MinSize()
	c := screen(b.Center())
	txt.Move(fyne.NewPos(c.X-sz.Width/2, c.Y-sz.Height/2))
	txt.Resize(sz)
	return append(out, txt)
}

func lineObjects(l document.Line, screen func(geometry.Pt) fyne.Position, zoom float64, selected bool) []fyne.CanvasObject {
	st := l.Edge.Style.Resolved()
	col := rgba(st.Color, stylefield.RGB{})
	if selected {
		col = selectionColour
	}
	width := float32(st.Width * zoom)
	var out []fyne.CanvasObject
	seg := func(a, b fyne.Position) {
		ln := canvas.NewLine(col)
		ln.StrokeWidth = width
		ln.Position1, ln.Position2 = a, b
		out = append(out, ln)
	}
	for i := 1; i < len(l.Points); i++ {
		seg(screen(l.Points[i-1]), screen(l.Points[i]))
	}
	if n := len(l.Points); n >= 2 {
		tip, from := screen(l.Points[n-1]), screen(l.Points[n-2])
		dx, dy := float64(tip.X-from.X), float64(tip.Y-from.Y)
		if d := math.Hypot(dx, dy); d > 0.1 {
			dx, dy = dx/d, dy/d
			size := (6 + 2*st.Width) * zoom
			for _, s := range []float64{0.5, -0.5} {
				wing := fyne.NewPos(
					tip.X-float32(size*dx-size*dy*s),
					tip.Y-float32(size*dy+size*dx*s),
				)
				seg(tip, wing)
			}
		}
	}
	return out
}

func labelObjects(l document.Line, screen func(geometry.Pt) fyne.Position, zoom float64) []fyne.CanvasObject {
	lb := l.Edge.Label
	size := lb.FontSize
	if size <= 0 {
		size = domain.DefaultLabelFontSize
	}
	txt := canvas.NewText(lb.Text, rgba(l.Edge.Style.Resolved().Color, stylefield.RGB{}))
	txt.TextSize = float32(size * zoom)
	sz := txt.MinSize()
	c := screen(l.Label)
	pad := float32(2 * zoom)
	bg := canvas.NewRectangle(canvasBackground)
	bg.Move(fyne.NewPos(c.X-sz.Width/2-pad, c.Y-sz.Height/2-pad))
	bg.Resize(fyne.NewSize(sz.Width+2*pad, sz.Height+2*pad))
	txt.Move(fyne.NewPos(c.X-sz.Width/2, c.Y-sz.Height/2))
	txt.Resize(sz)
	return []fyne.CanvasObject{bg, txt}
}
