/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a resolved flowchart to SVG, PNG and PDF. All
// renderers draw the same Scene, built once from the document store.
package export

import (
	"errors"

	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
	"flowcanvas/internal/textlayout"
)

// ErrEmpty is returned when the document has nothing to draw.
var ErrEmpty = errors.New("nothing to export")

// DefaultMargin is the padding around the drawing in document pixels.
const DefaultMargin = 20.0

// Options tune scene construction and rasterisation.
type Options struct {
	Margin float64
	// Scale multiplies document pixels for PNG output. Zero means 1.
	Scale float64
	// Background fills the page; empty means white.
	Background string
	// Text wraps node content. Nil uses textlayout.BasicProvider.
	Text textlayout.Provider
}

func (o Options) margin() float64 {
	if o.Margin < 0 {
		return 0
	}
	if o.Margin == 0 {
		return DefaultMargin
	}
	return o.Margin
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Scene is a flattened, style-resolved drawing in document space.
type Scene struct {
	Title      string
	Bounds     geometry.Rect // drawing bounds including the margin
	Background stylefield.RGB
	Nodes      []NodeShape
	Lines      []LineShape
}

// NodeShape is a node with its colours resolved and its content wrapped to
// the node width.
type NodeShape struct {
	ID          string
	Shape       geometry.Shape
	Rect        geometry.Rect
	Fill        stylefield.RGB
	Stroke      stylefield.RGB
	StrokeWidth float64
	Radius      float64
	TextColor   stylefield.RGB
	FontSize    float64
	Bold        bool
	Text        []string
	LineHeight  float64
}

// Outline returns the polygon of a diamond node or the four box corners.
func (n NodeShape) Outline() []geometry.Pt {
	if n.Shape == geometry.ShapeDiamond {
		d := geometry.DiamondPoints(n.Rect)
		return d[:]
	}
	r := n.Rect
	return []geometry.Pt{r.Min(), {X: r.X + r.W, Y: r.Y}, r.Max(), {X: r.X, Y: r.Y + r.H}}
}

// TextOrigin is the baseline of the first content line, centred vertically.
func (n NodeShape) TextOrigin() geometry.Pt {
	c := n.Rect.Center()
	block := float64(len(n.Text)) * n.LineHeight
	return geometry.Pt{X: c.X, Y: c.Y - block/2 + n.LineHeight*0.8}
}

// LineShape is a resolved edge polyline.
type LineShape struct {
	ID        string
	Points    []geometry.Pt
	Color     stylefield.RGB
	Width     float64
	Dashed    bool
	Label     string
	LabelAt   geometry.Pt
	LabelSize float64
}

// ArrowHead returns the three points of the arrow at the line's end. ok is
// false for degenerate lines.
func (l LineShape) ArrowHead() (tip, left, right geometry.Pt, ok bool) {
	n := len(l.Points)
	if n < 2 {
		return
	}
	tip = l.Points[n-1]
	from := l.Points[n-2]
	for i := n - 2; i >= 0 && from.Dist(tip) < 0.1; i-- {
		from = l.Points[i]
	}
	length := from.Dist(tip)
	if length < 0.1 {
		return
	}
	dx, dy := (tip.X-from.X)/length, (tip.Y-from.Y)/length
	size := 6 + 2*l.Width
	const spread = 0.5
	left = geometry.Pt{X: tip.X - size*dx + size*dy*spread, Y: tip.Y - size*dy - size*dx*spread}
	right = geometry.Pt{X: tip.X - size*dx - size*dy*spread, Y: tip.Y - size*dy + size*dx*spread}
	return tip, left, right, true
}

var (
	white = stylefield.RGB{R: 0xff, G: 0xff, B: 0xff}
	black = stylefield.RGB{}
)

// BuildScene resolves every node and edge of s. Edges with a dangling node
// reference are left out, the same as on screen.
func BuildScene(s *document.Store, opt Options) (Scene, error) {
	if s == nil {
		return Scene{}, errors.New("document store is nil")
	}
	b, ok := s.Bounds()
	if !ok {
		return Scene{}, ErrEmpty
	}
	m := opt.margin()
	sc := Scene{
		Title:      s.Title(),
		Bounds:     geometry.R(b.X-m, b.Y-m, b.W+2*m, b.H+2*m),
		Background: stylefield.MustHex(opt.Background, white),
	}
	tp := opt.Text
	if tp == nil {
		tp = textlayout.BasicProvider{}
	}
	for _, n := range s.Nodes() {
		sc.Nodes = append(sc.Nodes, nodeShape(tp, n))
	}
	for _, l := range s.Lines() {
		sc.Lines = append(sc.Lines, lineShape(l))
	}
	return sc, nil
}

func nodeShape(tp textlayout.Provider, n domain.Node) NodeShape {
	st := n.Style.Resolved()
	shape := n.Shape
	if shape == "" {
		shape = geometry.ShapeRectangle
	}
	// a diamond's usable text width is roughly half its box
	wrap := n.Width - 2*st.BorderWidth - 8
	if shape == geometry.ShapeDiamond {
		wrap = n.Width / 2
	}
	box := textlayout.Layout(tp, n.Content, st.FontSize, wrap)
	return NodeShape{
		ID:          n.ID,
		Shape:       shape,
		Rect:        n.Bounds(),
		Fill:        stylefield.MustHex(st.BackgroundColor, white),
		Stroke:      stylefield.MustHex(st.BorderColor, black),
		StrokeWidth: st.BorderWidth,
		Radius:      st.BorderRadius,
		TextColor:   stylefield.MustHex(st.TextColor, black),
		FontSize:    st.FontSize,
		Bold:        st.FontWeight == "bold",
		Text:        trimEmpty(box.Lines),
		LineHeight:  box.Metrics.LineHeight(),
	}
}

func lineShape(l document.Line) LineShape {
	st := l.Edge.Style.Resolved()
	ls := LineShape{
		ID:     l.Edge.ID,
		Points: l.Points,
		Color:  stylefield.MustHex(st.Color, black),
		Width:  st.Width,
		Dashed: st.Dashed,
	}
	if lb := l.Edge.Label; lb != nil && lb.Text != "" {
		ls.Label = lb.Text
		ls.LabelAt = l.Label
		ls.LabelSize = lb.FontSize
		if ls.LabelSize <= 0 {
			ls.LabelSize = domain.DefaultLabelFontSize
		}
	}
	return ls
}

func trimEmpty(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
