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
	"fmt"
	"io"
	"strings"

	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
)

const svgFont = "Helvetica, Arial, sans-serif"

// WriteSVG writes the scene as a standalone SVG document. The viewBox is in
// document pixels, so the drawing scales without loss.
func WriteSVG(w io.Writer, sc Scene) error {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	b := sc.Bounds
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"%g %g %g %g\">\n", b.W, b.H, b.X, b.Y, b.W, b.H)
	if sc.Title != "" {
		wf("  <title>%s</title>\n", escText(sc.Title))
	}
	wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", b.X, b.Y, b.W, b.H, stylefield.FormatHex(sc.Background))

	// edges under nodes, labels over both
	for _, l := range sc.Lines {
		dash := ""
		if l.Dashed {
			dash = fmt.Sprintf(" stroke-dasharray=\"%g %g\"", 4*l.Width, 2*l.Width)
		}
		wf("  <polyline id=\"%s\" points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"%s stroke-linejoin=\"round\"/>\n",
			escAttr(l.ID), svgPoints(l.Points), stylefield.FormatHex(l.Color), l.Width, dash)
		if tip, left, right, ok := l.ArrowHead(); ok {
			wf("  <polygon points=\"%s\" fill=\"%s\"/>\n", svgPoints([]geometry.Pt{tip, left, right}), stylefield.FormatHex(l.Color))
		}
	}
	for _, n := range sc.Nodes {
		fill, stroke := stylefield.FormatHex(n.Fill), stylefield.FormatHex(n.Stroke)
		switch n.Shape {
		case geometry.ShapeDiamond:
			wf("  <polygon id=\"%s\" points=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				escAttr(n.ID), svgPoints(n.Outline()), fill, stroke, n.StrokeWidth)
		default:
			r := n.Rect
			wf("  <rect id=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				escAttr(n.ID), r.X, r.Y, r.W, r.H, n.Radius, n.Radius, fill, stroke, n.StrokeWidth)
		}
		if len(n.Text) == 0 {
			continue
		}
		weight := "normal"
		if n.Bold {
			weight = "bold"
		}
		o := n.TextOrigin()
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" font-weight=\"%s\" fill=\"%s\" text-anchor=\"middle\">",
			o.X, o.Y, svgFont, n.FontSize, weight, stylefield.FormatHex(n.TextColor))
		for i, line := range n.Text {
			dy := 0.0
			if i > 0 {
				dy = n.LineHeight
			}
			wf("<tspan x=\"%g\" dy=\"%g\">%s</tspan>", o.X, dy, escText(line))
		}
		wf("</text>\n")
	}
	for _, l := range sc.Lines {
		if l.Label == "" {
			continue
		}
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\" text-anchor=\"middle\" dominant-baseline=\"middle\" paint-order=\"stroke\" stroke=\"%s\" stroke-width=\"3\">%s</text>\n",
			l.LabelAt.X, l.LabelAt.Y, svgFont, l.LabelSize, stylefield.FormatHex(l.Color), stylefield.FormatHex(sc.Background), escText(l.Label))
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgPoints(pts []geometry.Pt) string {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g,%g", p.X, p.Y)
	}
	return sb.String()
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
