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
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"flowcanvas/internal/geometry"
)

// MaxPNGSide caps either raster dimension.
const MaxPNGSide = 16384

type faceCache struct {
	regular, bold *truetype.Font
	faces         map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

func newFaceCache() (*faceCache, error) {
	reg, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &faceCache{regular: reg, bold: bold, faces: map[faceKey]font.Face{}}, nil
}

func (c *faceCache) face(size float64, bold bool) font.Face {
	k := faceKey{size: size, bold: bold}
	if f, ok := c.faces[k]; ok {
		return f
	}
	ttf := c.regular
	if bold {
		ttf = c.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	c.faces[k] = f
	return f
}

// RenderPNG rasterises the scene at opt.Scale pixels per document pixel.
func RenderPNG(sc Scene, opt Options) (image.Image, error) {
	dc, err := rasterise(sc, opt)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders the scene and encodes it to w.
func WritePNG(w io.Writer, sc Scene, opt Options) error {
	dc, err := rasterise(sc, opt)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func rasterise(sc Scene, opt Options) (*gg.Context, error) {
	k := opt.scale()
	w := int(math.Ceil(sc.Bounds.W * k))
	h := int(math.Ceil(sc.Bounds.H * k))
	if w <= 0 || h <= 0 {
		return nil, ErrEmpty
	}
	if w > MaxPNGSide || h > MaxPNGSide {
		return nil, fmt.Errorf("png size %dx%d exceeds %d", w, h, MaxPNGSide)
	}
	faces, err := newFaceCache()
	if err != nil {
		return nil, err
	}
	origin := sc.Bounds.Min()
	px := func(p geometry.Pt) (float64, float64) {
		return (p.X - origin.X) * k, (p.Y - origin.Y) * k
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(sc.Background.RGBA())
	dc.Clear()

	for _, l := range sc.Lines {
		drawLinePNG(dc, l, k, px)
	}
	for _, n := range sc.Nodes {
		drawNodePNG(dc, faces, n, k, px)
	}
	for _, l := range sc.Lines {
		if l.Label == "" {
			continue
		}
		x, y := px(l.LabelAt)
		dc.SetFontFace(faces.face(l.LabelSize*k, false))
		tw, th := dc.MeasureString(l.Label)
		dc.SetColor(sc.Background.RGBA())
		dc.DrawRectangle(x-tw/2-2*k, y-th/2-2*k, tw+4*k, th+4*k)
		dc.Fill()
		dc.SetColor(l.Color.RGBA())
		dc.DrawStringAnchored(l.Label, x, y, 0.5, 0.35)
	}
	return dc, nil
}

func drawLinePNG(dc *gg.Context, l LineShape, k float64, px func(geometry.Pt) (float64, float64)) {
	if len(l.Points) < 2 {
		return
	}
	dc.SetColor(l.Color.RGBA())
	dc.SetLineWidth(l.Width * k)
	if l.Dashed {
		dc.SetDash(4*l.Width*k, 2*l.Width*k)
	}
	dc.SetLineJoin(gg.LineJoinRound)
	x, y := px(l.Points[0])
	dc.MoveTo(x, y)
	for _, p := range l.Points[1:] {
		x, y = px(p)
		dc.LineTo(x, y)
	}
	dc.Stroke()
	dc.SetDash()

	if tip, left, right, ok := l.ArrowHead(); ok {
		fillPolygon(dc, []geometry.Pt{tip, left, right}, px)
	}
}

func drawNodePNG(dc *gg.Context, faces *faceCache, n NodeShape, k float64, px func(geometry.Pt) (float64, float64)) {
	x, y := px(n.Rect.Min())
	w, h := n.Rect.W*k, n.Rect.H*k
	if n.Shape == geometry.ShapeDiamond {
		tracePolygon(dc, n.Outline(), px)
	} else if n.Radius > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, n.Radius*k)
	} else {
		dc.DrawRectangle(x, y, w, h)
	}
	dc.SetColor(n.Fill.RGBA())
	dc.FillPreserve()
	dc.SetColor(n.Stroke.RGBA())
	dc.SetLineWidth(n.StrokeWidth * k)
	dc.Stroke()

	if len(n.Text) == 0 {
		return
	}
	dc.SetFontFace(faces.face(n.FontSize*k, n.Bold))
	dc.SetColor(n.TextColor.RGBA())
	o := n.TextOrigin()
	for i, line := range n.Text {
		tx, ty := px(geometry.Pt{X: o.X, Y: o.Y + float64(i)*n.LineHeight})
		dc.DrawStringAnchored(line, tx, ty, 0.5, 0)
	}
}

func tracePolygon(dc *gg.Context, pts []geometry.Pt, px func(geometry.Pt) (float64, float64)) {
	for i, p := range pts {
		x, y := px(p)
		if i == 0 {
			dc.MoveTo(x, y)
			continue
		}
		dc.LineTo(x, y)
	}
	dc.ClosePath()
}

func fillPolygon(dc *gg.Context, pts []geometry.Pt, px func(geometry.Pt) (float64, float64)) {
	tracePolygon(dc, pts, px)
	dc.Fill()
}
