/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas wires the document store, the viewport and the drag
// controllers of one open flowchart and routes pointer input between them.
package canvas

import (
	"log/slog"

	"flowcanvas/internal/config"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/drag"
	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/selection"
	"flowcanvas/internal/viewport"
)

// Options tune interaction. Distances are in screen pixels.
type Options struct {
	Limits        viewport.Limits
	ZoomAwareDrag bool
	HandleRadius  float64 // grab radius around edge endpoints
	EdgeTolerance float64 // click distance that still hits an edge line
}

// DefaultOptions match the editor's behaviour.
var DefaultOptions = Options{
	Limits:        viewport.DefaultLimits,
	ZoomAwareDrag: true,
	HandleRadius:  8,
	EdgeTolerance: 6,
}

// OptionsFrom maps the user's canvas settings onto Options. Zero values keep
// the defaults.
func OptionsFrom(cfg config.CanvasConfig) Options {
	o := DefaultOptions
	if cfg.MinZoom > 0 {
		o.Limits.MinZoom = cfg.MinZoom
	}
	if cfg.MaxZoom > 0 {
		o.Limits.MaxZoom = cfg.MaxZoom
	}
	if cfg.ZoomFactor > 1 {
		o.Limits.Factor = cfg.ZoomFactor
	}
	if cfg.ZoomStep > 0 {
		o.Limits.Step = cfg.ZoomStep
	}
	if cfg.HandleRadius > 0 {
		o.HandleRadius = cfg.HandleRadius
	}
	o.ZoomAwareDrag = cfg.ZoomAwareDrag
	return o
}

// Canvas is the interaction surface for a single document.
type Canvas struct {
	store   *document.Store
	view    *viewport.Controller
	tracker *drag.Tracker
	nodes   *drag.NodeController
	edges   *drag.EdgeController
	sel     *selection.Coordinator
	opts    Options
	log     *slog.Logger
}

// New builds a canvas over store, starting from the store's saved viewport.
func New(store *document.Store, opts Options) *Canvas {
	if opts.HandleRadius <= 0 {
		opts.HandleRadius = DefaultOptions.HandleRadius
	}
	if opts.EdgeTolerance <= 0 {
		opts.EdgeTolerance = DefaultOptions.EdgeTolerance
	}
	c := &Canvas{
		store:   store,
		view:    viewport.New(store.Viewport(), opts.Limits),
		tracker: drag.NewTracker(),
		sel:     selection.NewCoordinator(store),
		opts:    opts,
		log:     applog.WithComponent("canvas"),
	}
	store.SetViewport(c.view.Viewport())
	c.view.OnChange(store.SetViewport)
	var dopts []drag.Option
	if opts.ZoomAwareDrag {
		dopts = append(dopts, drag.WithZoom(func() float64 { return c.view.Viewport().Zoom }))
	}
	c.nodes = drag.NewNodeController(store, c.tracker, dopts...)
	c.edges = drag.NewEdgeController(store, c.tracker, dopts...)
	return c
}

// Store returns the document store.
func (c *Canvas) Store() *document.Store { return c.store }

// Viewport returns the viewport controller.
func (c *Canvas) Viewport() *viewport.Controller { return c.view }

// Selection returns the selection coordinator.
func (c *Canvas) Selection() *selection.Coordinator { return c.sel }

// Close ends any drag or pan in progress.
func (c *Canvas) Close() {
	c.tracker.Cancel()
	c.view.EndPan()
}

// PointerDown handles a press at screen point p and returns what was hit.
// Endpoint handles win over nodes, nodes over edge lines; pressing the
// background clears the selection and starts a pan.
func (c *Canvas) PointerDown(src drag.Source, p geometry.Pt) Hit {
	if !p.Finite() {
		return Hit{}
	}
	h := c.HitTest(p)
	switch h.Kind {
	case HitEndpoint:
		c.view.EndPan()
		if !c.edges.Begin(src, h.ID, h.Which, p) {
			return Hit{}
		}
	case HitNode:
		c.view.EndPan()
		c.nodes.Begin(src, h.ID, p)
	case HitEdge:
		c.tracker.Cancel()
		c.sel.SelectEdge(h.ID)
	default:
		c.tracker.Cancel()
		c.sel.Clear()
		c.stopEditing()
		c.view.BeginPan(p)
	}
	c.log.Debug("pointer down", slog.String("hit", h.String()))
	return h
}

// PointerMove feeds a move to the active drag, or to the pan.
func (c *Canvas) PointerMove(src drag.Source, p geometry.Pt) {
	if c.tracker.Move(src, p) {
		return
	}
	c.view.ContinuePan(p)
}

// PointerUp ends the active drag and any pan.
func (c *Canvas) PointerUp(src drag.Source) {
	c.tracker.Release(src)
	c.view.EndPan()
}

// Wheel zooms around p; negative dy zooms in.
func (c *Canvas) Wheel(p geometry.Pt, dy float64) bool {
	switch {
	case dy < 0:
		return c.view.ZoomAt(p, viewport.In)
	case dy > 0:
		return c.view.ZoomAt(p, viewport.Out)
	}
	return false
}

// ZoomIn and ZoomOut are the toolbar zoom buttons.
func (c *Canvas) ZoomIn() bool  { return c.view.ZoomIn() }
func (c *Canvas) ZoomOut() bool { return c.view.ZoomOut() }

// Fit frames the whole document on a screen of the given size.
func (c *Canvas) Fit(screenW, screenH float64) bool {
	b, ok := c.store.Bounds()
	if !ok {
		c.view.Reset()
		return true
	}
	return c.view.Fit(b, screenW, screenH, 40)
}

// DoubleClick puts the node under p into text editing mode.
func (c *Canvas) DoubleClick(p geometry.Pt) bool {
	h := c.HitTest(p)
	if h.Kind != HitNode {
		return false
	}
	c.stopEditing()
	c.sel.SelectNode(h.ID)
	return c.store.UpdateNodeEditing(h.ID, true)
}

// CommitEdit stores text for the node being edited and leaves edit mode.
func (c *Canvas) CommitEdit(text string) bool {
	for _, n := range c.store.Nodes() {
		if n.Editing {
			c.store.UpdateNodeContent(n.ID, text)
			return c.store.UpdateNodeEditing(n.ID, false)
		}
	}
	return false
}

func (c *Canvas) stopEditing() {
	for _, n := range c.store.Nodes() {
		if n.Editing {
			c.store.UpdateNodeEditing(n.ID, false)
		}
	}
}

// DeleteSelection removes the selected node or edge.
func (c *Canvas) DeleteSelection() bool {
	return selection.Match(c.sel.Current(), selection.Visitor[bool]{
		None: func() bool { return false },
		Node: func(id string) bool { return c.store.DeleteNode(id) },
		Edge: func(id string) bool { return c.store.DeleteEdge(id) },
	})
}

// Connect adds an edge between two nodes using the sides that face each other.
func (c *Canvas) Connect(fromID, toID string) (string, error) {
	from, ok := c.store.Node(fromID)
	if !ok {
		return "", document.ErrUnknownNode
	}
	to, ok := c.store.Node(toID)
	if !ok {
		return "", document.ErrUnknownNode
	}
	fs := facing(from.Bounds(), to.Bounds())
	ts := facing(to.Bounds(), from.Bounds())
	return c.store.AddEdge(domain.Edge{
		From: domain.NodeEndpoint(fromID), FromAnchor: domain.AnchorAt(fs),
		To: domain.NodeEndpoint(toID), ToAnchor: domain.AnchorAt(ts),
		Path: domain.PathStraight,
	})
}

// facing picks the side of a that points towards b's centre.
func facing(a, b geometry.Rect) geometry.AnchorSide {
	d := b.Center().Sub(a.Center())
	if abs(d.X) > abs(d.Y) {
		if d.X < 0 {
			return geometry.SideLeft
		}
		return geometry.SideRight
	}
	if d.Y < 0 {
		return geometry.SideTop
	}
	return geometry.SideBottom
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
