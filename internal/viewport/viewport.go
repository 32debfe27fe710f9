/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport owns the pan offset and zoom of one canvas.
package viewport

import (
	"log/slog"

	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
)

// Direction of a pointer zoom.
type Direction int

const (
	In Direction = iota
	Out
)

// Limits bound and drive zoom changes.
type Limits struct {
	MinZoom float64
	MaxZoom float64
	Factor  float64 // multiplicative step for ZoomAt
	Step    float64 // additive step for the zoom buttons
}

// DefaultLimits are the editor's standard zoom settings.
var DefaultLimits = Limits{MinZoom: 0.1, MaxZoom: 5, Factor: 1.1, Step: 0.05}

func (l Limits) sane() Limits {
	d := DefaultLimits
	if !(l.MinZoom > 0) {
		l.MinZoom = d.MinZoom
	}
	if !(l.MaxZoom >= l.MinZoom) {
		l.MaxZoom = max(d.MaxZoom, l.MinZoom)
	}
	if !(l.Factor > 1) {
		l.Factor = d.Factor
	}
	if !(l.Step > 0) {
		l.Step = d.Step
	}
	return l
}

// Clamp pins z into [MinZoom, MaxZoom].
func (l Limits) Clamp(z float64) float64 { return geometry.Clamp(z, l.MinZoom, l.MaxZoom) }

// Controller turns pan and zoom gestures into viewport updates. All methods
// are total: out-of-range requests are clamped or ignored.
type Controller struct {
	vp       geometry.Viewport
	lim      Limits
	panning  bool
	last     geometry.Pt
	onChange func(geometry.Viewport)
	log      *slog.Logger
}

// New creates a controller starting at vp. A zoom that is not a positive
// number becomes 1 and the zoom is clamped to the limits.
func New(vp geometry.Viewport, lim Limits) *Controller {
	c := &Controller{lim: lim.sane(), log: applog.WithComponent("viewport")}
	if !(vp.Zoom > 0) || !(geometry.Pt{X: vp.X, Y: vp.Y}).Finite() {
		vp = geometry.DefaultViewport
	}
	vp.Zoom = c.lim.Clamp(vp.Zoom)
	c.vp = vp
	return c
}

// OnChange registers a callback invoked after every applied change.
func (c *Controller) OnChange(fn func(geometry.Viewport)) { c.onChange = fn }

// Viewport returns the current transform.
func (c *Controller) Viewport() geometry.Viewport { return c.vp }

// Limits returns the effective limits.
func (c *Controller) Limits() Limits { return c.lim }

// Transform is the document-to-screen matrix for rendering.
func (c *Controller) Transform() geometry.Affine2D { return c.vp.Matrix() }

// Panning reports whether a pan is in progress.
func (c *Controller) Panning() bool { return c.panning }

// ToDocument converts a screen point with the current transform.
func (c *Controller) ToDocument(screen geometry.Pt) geometry.Pt {
	return geometry.ToDocumentSpace(screen, c.vp)
}

// ToScreen converts a document point with the current transform.
func (c *Controller) ToScreen(doc geometry.Pt) geometry.Pt {
	return geometry.ToScreenSpace(doc, c.vp)
}

func (c *Controller) set(vp geometry.Viewport) {
	c.vp = vp
	if c.onChange != nil {
		c.onChange(vp)
	}
}

// BeginPan starts panning at p. It is ignored while a pan is active.
func (c *Controller) BeginPan(p geometry.Pt) bool {
	if c.panning || !p.Finite() {
		return false
	}
	c.panning = true
	c.last = p
	return true
}

// ContinuePan translates by the pointer delta since the last recorded point.
func (c *Controller) ContinuePan(p geometry.Pt) bool {
	if !c.panning || !p.Finite() {
		return false
	}
	d := p.Sub(c.last)
	c.last = p
	if d == (geometry.Pt{}) {
		return false
	}
	vp := c.vp
	vp.X += d.X
	vp.Y += d.Y
	c.set(vp)
	return true
}

// EndPan leaves panning mode. It is idempotent.
func (c *Controller) EndPan() { c.panning = false }

// ZoomAt scales by the zoom factor around the screen point p so the
// document point under p stays under p. It reports false when the clamped
// zoom would not change.
func (c *Controller) ZoomAt(p geometry.Pt, dir Direction) bool {
	if !p.Finite() {
		return false
	}
	z := c.vp.Zoom
	next := z * c.lim.Factor
	if dir == Out {
		next = z / c.lim.Factor
	}
	next = c.lim.Clamp(next)
	if next == z {
		return false
	}
	k := next / z
	c.set(geometry.Viewport{
		X:    p.X - (p.X-c.vp.X)*k,
		Y:    p.Y - (p.Y-c.vp.Y)*k,
		Zoom: next,
	})
	c.log.Debug("zoom", slog.Float64("zoom", next))
	return true
}

// ZoomStep nudges the zoom by delta, rounded to three decimals and clamped.
// The translation is left alone.
func (c *Controller) ZoomStep(delta float64) bool {
	next := c.lim.Clamp(geometry.FloatRound(c.vp.Zoom+delta, 3))
	if next == c.vp.Zoom || !(geometry.Pt{X: next}).Finite() {
		return false
	}
	vp := c.vp
	vp.Zoom = next
	c.set(vp)
	return true
}

// ZoomIn and ZoomOut apply one configured button step.
func (c *Controller) ZoomIn() bool  { return c.ZoomStep(c.lim.Step) }
func (c *Controller) ZoomOut() bool { return c.ZoomStep(-c.lim.Step) }

// Reset returns to the identity transform.
func (c *Controller) Reset() { c.set(geometry.DefaultViewport) }

// Fit zooms and pans so bounds fills a screen of the given size, leaving
// margin pixels on every side and centring the content.
func (c *Controller) Fit(bounds geometry.Rect, screenW, screenH, margin float64) bool {
	aw, ah := screenW-2*margin, screenH-2*margin
	if !(aw > 0) || !(ah > 0) {
		return false
	}
	z := 1.0
	if bounds.W > 0 && bounds.H > 0 {
		z = min(aw/bounds.W, ah/bounds.H)
	} else if bounds.W > 0 {
		z = aw / bounds.W
	} else if bounds.H > 0 {
		z = ah / bounds.H
	}
	z = c.lim.Clamp(geometry.FloatRound(z, 3))
	ctr := bounds.Center()
	c.set(geometry.Viewport{
		X:    screenW/2 - ctr.X*z,
		Y:    screenH/2 - ctr.Y*z,
		Zoom: z,
	})
	return true
}
