/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"log/slog"

	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
)

// Option configures a controller.
type Option func(*options)

type options struct {
	zoom      func() float64
	zoomAware bool
}

// WithZoom makes pointer deltas zoom-aware: a screen delta is divided by the
// zoom returned by fn before it is applied in document space.
func WithZoom(fn func() float64) Option {
	return func(o *options) { o.zoom, o.zoomAware = fn, fn != nil }
}

func buildOptions(opts []Option) options {
	var o options
	for _, f := range opts {
		f(&o)
	}
	return o
}

// docDelta converts a screen-space delta to the distance applied to the
// document.
func (o options) docDelta(d geometry.Pt) geometry.Pt {
	if !o.zoomAware {
		return d
	}
	z := o.zoom()
	if !(z > 0) {
		return d
	}
	return d.Scale(1 / z)
}

// NodeStore is what node dragging needs from the document.
type NodeStore interface {
	Node(id string) (domain.Node, bool)
	UpdateNodePosition(id string, p geometry.Pt) bool
	SelectNode(id string)
	SetDraggingNode(bool)
}

// NodeController moves one node at a time with the pointer.
type NodeController struct {
	store   NodeStore
	tracker *Tracker
	opts    options
	log     *slog.Logger

	token  Token
	nodeID string
	last   geometry.Pt
}

// NewNodeController creates a controller sharing tracker with the other
// controllers of the same canvas.
func NewNodeController(store NodeStore, tracker *Tracker, opts ...Option) *NodeController {
	return &NodeController{
		store:   store,
		tracker: tracker,
		opts:    buildOptions(opts),
		log:     applog.WithComponent("drag.node"),
	}
}

// Begin starts dragging nodeID from the screen point p and selects it.
// It reports false, without touching any state, when the node is missing.
func (c *NodeController) Begin(src Source, nodeID string, p geometry.Pt) bool {
	if _, ok := c.store.Node(nodeID); !ok || !p.Finite() {
		return false
	}
	c.token = c.tracker.Begin(src, c.move, c.finish)
	c.nodeID = nodeID
	c.last = p
	c.store.SelectNode(nodeID)
	c.store.SetDraggingNode(true)
	c.log.Debug("begin", slog.String("node", nodeID), slog.String("source", src.String()))
	return true
}

// Dragging returns the node being dragged.
func (c *NodeController) Dragging() (string, bool) {
	return c.nodeID, c.nodeID != ""
}

// Move applies a pointer move directly, as the tracker would.
func (c *NodeController) Move(p geometry.Pt) { c.move(p) }

func (c *NodeController) move(p geometry.Pt) {
	if c.nodeID == "" || !p.Finite() {
		return
	}
	n, ok := c.store.Node(c.nodeID)
	if !ok {
		// node vanished mid-drag: skip the step and keep the last position
		return
	}
	d := c.opts.docDelta(p.Sub(c.last))
	c.store.UpdateNodePosition(c.nodeID, n.Position.Add(d))
	c.last = p
}

// End stops the drag. It is idempotent.
func (c *NodeController) End() { c.tracker.End(c.token) }

func (c *NodeController) finish() {
	if c.nodeID == "" {
		return
	}
	c.log.Debug("end", slog.String("node", c.nodeID))
	c.nodeID = ""
	c.token = 0
	c.store.SetDraggingNode(false)
}
