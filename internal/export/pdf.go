/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
	"flowcanvas/internal/version"
)

// WritePDF writes the scene as a single vector page. One document pixel maps
// to one point, and the page is sized to the scene bounds.
func WritePDF(w io.Writer, sc Scene) error {
	b := sc.Bounds
	if b.W <= 0 || b.H <= 0 {
		return ErrEmpty
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: b.W, Ht: b.H},
	})
	pdf.SetTitle(sc.Title, true)
	pdf.SetCreator("flowcanvas "+version.String(), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	at := func(p geometry.Pt) (float64, float64) { return p.X - b.X, p.Y - b.Y }

	setFillColor(pdf, sc.Background)
	pdf.Rect(0, 0, b.W, b.H, "F")

	for _, l := range sc.Lines {
		if len(l.Points) < 2 {
			continue
		}
		setDrawColor(pdf, l.Color)
		pdf.SetLineWidth(l.Width)
		pdf.SetLineJoinStyle("round")
		if l.Dashed {
			pdf.SetDashPattern([]float64{4 * l.Width, 2 * l.Width}, 0)
		}
		x, y := at(l.Points[0])
		pdf.MoveTo(x, y)
		for _, p := range l.Points[1:] {
			x, y = at(p)
			pdf.LineTo(x, y)
		}
		pdf.DrawPath("D")
		pdf.SetDashPattern(nil, 0)
		if tip, left, right, ok := l.ArrowHead(); ok {
			setFillColor(pdf, l.Color)
			pdf.Polygon(pdfPoints([]geometry.Pt{tip, left, right}, at), "F")
		}
	}

	for _, n := range sc.Nodes {
		setFillColor(pdf, n.Fill)
		setDrawColor(pdf, n.Stroke)
		pdf.SetLineWidth(n.StrokeWidth)
		x, y := at(n.Rect.Min())
		switch {
		case n.Shape == geometry.ShapeDiamond:
			pdf.Polygon(pdfPoints(n.Outline(), at), "FD")
		case n.Radius > 0:
			pdf.RoundedRect(x, y, n.Rect.W, n.Rect.H, n.Radius, "1234", "FD")
		default:
			pdf.Rect(x, y, n.Rect.W, n.Rect.H, "FD")
		}
		if len(n.Text) == 0 {
			continue
		}
		style := ""
		if n.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, n.FontSize)
		setTextColor(pdf, n.TextColor)
		o := n.TextOrigin()
		for i, line := range n.Text {
			s := tr(line)
			tx, ty := at(geometry.Pt{X: o.X, Y: o.Y + float64(i)*n.LineHeight})
			pdf.Text(tx-pdf.GetStringWidth(s)/2, ty, s)
		}
	}

	for _, l := range sc.Lines {
		if l.Label == "" {
			continue
		}
		pdf.SetFont("Helvetica", "", l.LabelSize)
		s := tr(l.Label)
		tw := pdf.GetStringWidth(s)
		x, y := at(l.LabelAt)
		setFillColor(pdf, sc.Background)
		pdf.Rect(x-tw/2-2, y-l.LabelSize/2-2, tw+4, l.LabelSize+4, "F")
		setTextColor(pdf, l.Color)
		pdf.Text(x-tw/2, y+l.LabelSize*0.35, s)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfPoints(pts []geometry.Pt, at func(geometry.Pt) (float64, float64)) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		out[i].X, out[i].Y = at(p)
	}
	return out
}

func setDrawColor(pdf *gofpdf.Fpdf, c stylefield.RGB) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c stylefield.RGB) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c stylefield.RGB) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
