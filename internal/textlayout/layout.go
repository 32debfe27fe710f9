/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and wraps node and label text. Measurements are
// in document pixels at the requested font size.
package textlayout

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Metrics are the vertical metrics of a resolved face in pixels.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the distance between two baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a font size to a face and its metrics.
type Provider interface {
	Resolve(size float64) (font.Face, Metrics)
}

// BasicProvider uses basicfont.Face7x13 and scales its advances linearly to
// the requested size. It is deterministic and needs no font files.
type BasicProvider struct{}

const basicNominal = 13.0

func (BasicProvider) Resolve(size float64) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	k := scaleFor(size)
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()) * k,
		Descent: float64(m.Descent.Round()) * k,
		LineGap: float64(m.Height.Round()-m.Ascent.Round()-m.Descent.Round()) * k,
	}
}

func scaleFor(size float64) float64 {
	if size <= 0 {
		return 1
	}
	return size / basicNominal
}

// GoProvider renders with the Go Regular OpenType font. Faces are cached per
// size since parsing is not free.
type GoProvider struct {
	DPI float64 // 72 if zero

	once  sync.Once
	font  *opentype.Font
	err   error
	mu    sync.Mutex
	faces map[float64]font.Face
}

// Err reports a parse failure of the embedded font; Resolve then falls back
// to BasicProvider.
func (p *GoProvider) Err() error {
	p.load()
	return p.err
}

func (p *GoProvider) load() {
	p.once.Do(func() {
		p.font, p.err = opentype.Parse(goregular.TTF)
		p.faces = map[float64]font.Face{}
	})
}

func (p *GoProvider) Resolve(size float64) (font.Face, Metrics) {
	p.load()
	if p.err != nil {
		return BasicProvider{}.Resolve(size)
	}
	if size <= 0 {
		size = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	p.mu.Lock()
	face, ok := p.faces[size]
	if !ok {
		var err error
		face, err = opentype.NewFace(p.font, &opentype.FaceOptions{Size: size, DPI: dpi, Hinting: font.HintingFull})
		if err != nil {
			p.mu.Unlock()
			return BasicProvider{}.Resolve(size)
		}
		p.faces[size] = face
	}
	p.mu.Unlock()
	m := face.Metrics()
	return face, Metrics{
		Ascent:  fix(m.Ascent),
		Descent: fix(m.Descent),
		LineGap: fix(m.Height - m.Ascent - m.Descent),
	}
}

// Box is laid out text.
type Box struct {
	Lines   []string
	Width   float64
	Height  float64
	Metrics Metrics
}

// Layout breaks text on spaces and newlines so no line exceeds maxWidth,
// unless a single word is wider. maxWidth <= 0 disables wrapping.
func Layout(p Provider, text string, size, maxWidth float64) Box {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(size)
	adv := advancer(p, face, size)
	box := Box{Metrics: met}
	for _, para := range strings.Split(text, "\n") {
		cur, curW := "", 0.0
		for _, word := range strings.Fields(para) {
			w := adv(word)
			if cur == "" {
				cur, curW = word, w
				continue
			}
			joined := curW + adv(" ") + w
			if maxWidth > 0 && joined > maxWidth {
				box.push(cur, curW)
				cur, curW = word, w
				continue
			}
			cur, curW = cur+" "+word, joined
		}
		box.push(cur, curW)
	}
	box.Height = float64(len(box.Lines)) * met.LineHeight()
	return box
}

func (b *Box) push(line string, w float64) {
	b.Lines = append(b.Lines, line)
	if w > b.Width {
		b.Width = w
	}
}

// Measure returns the width of the widest line and the total height without
// wrapping.
func Measure(p Provider, text string, size float64) (w, h float64) {
	b := Layout(p, text, size, 0)
	return b.Width, b.Height
}

func advancer(p Provider, face font.Face, size float64) func(string) float64 {
	d := &font.Drawer{Face: face}
	if _, basic := p.(BasicProvider); basic {
		k := scaleFor(size)
		return func(s string) float64 { return fix(d.MeasureString(s)) * k }
	}
	return func(s string) float64 { return fix(d.MeasureString(s)) }
}

func fix(v fixed.Int26_6) float64 { return float64(v) / 64 }
