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
	"flowcanvas/internal/selection"
)

// EdgeStore is what endpoint dragging needs from the document.
type EdgeStore interface {
	selection.Selector
	Nodes() []domain.Node
	Edge(id string) (domain.Edge, bool)
	ResolveEnd(e domain.Edge, which domain.Which) (geometry.Pt, bool)
	UpdateEdgeEndpoint(id string, which domain.Which, target domain.Endpoint, side geometry.AnchorSide) bool
	SetDraggingEdge(bool)
}

// EdgeController drags one edge endpoint and snaps it onto node sides.
type EdgeController struct {
	store   EdgeStore
	sel     *selection.Coordinator
	tracker *Tracker
	opts    options
	log     *slog.Logger

	token  Token
	edgeID string
	which  domain.Which
	origin geometry.Pt // endpoint position at drag start, document space
	start  geometry.Pt // pointer position at drag start, screen space
	last   SnapResult
}

// NewEdgeController creates a controller sharing tracker with the other
// controllers of the same canvas.
func NewEdgeController(store EdgeStore, tracker *Tracker, opts ...Option) *EdgeController {
	return &EdgeController{
		store:   store,
		sel:     selection.NewCoordinator(store),
		tracker: tracker,
		opts:    buildOptions(opts),
		log:     applog.WithComponent("drag.edge"),
	}
}

// Begin grabs the which end of edgeID at screen point p. It clears the node
// selection and toggles the edge selection. If the edge or a node it is
// bound to is missing, nothing changes and Begin reports false.
func (c *EdgeController) Begin(src Source, edgeID string, which domain.Which, p geometry.Pt) bool {
	e, ok := c.store.Edge(edgeID)
	if !ok || !p.Finite() {
		return false
	}
	origin, ok := c.store.ResolveEnd(e, which)
	if !ok {
		c.log.Debug("begin aborted: endpoint unresolvable", slog.String("edge", edgeID), slog.String("which", string(which)))
		return false
	}
	c.token = c.tracker.Begin(src, c.move, c.finish)
	c.edgeID, c.which = edgeID, which
	c.origin, c.start = origin, p
	c.last = SnapResult{}
	c.sel.SelectNode("")
	c.sel.ToggleEdge(edgeID)
	c.store.SetDraggingEdge(true)
	c.log.Debug("begin", slog.String("edge", edgeID), slog.String("which", string(which)), slog.String("source", src.String()))
	return true
}

// Dragging returns the edge and end being dragged.
func (c *EdgeController) Dragging() (string, domain.Which, bool) {
	return c.edgeID, c.which, c.edgeID != ""
}

// Last is the snap decision of the most recent move.
func (c *EdgeController) Last() SnapResult { return c.last }

// Move applies a pointer move directly, as the tracker would.
func (c *EdgeController) Move(p geometry.Pt) { c.move(p) }

func (c *EdgeController) move(p geometry.Pt) {
	if c.edgeID == "" || !p.Finite() {
		return
	}
	e, ok := c.store.Edge(c.edgeID)
	if !ok {
		return
	}
	cand := c.origin.Add(c.opts.docDelta(p.Sub(c.start)))
	opposite, _ := e.End(c.which.Opposite())
	res := Snap(c.store.Nodes(), cand, opposite.NodeID)
	if res.Snapped() {
		c.store.UpdateEdgeEndpoint(c.edgeID, c.which, domain.NodeEndpoint(res.NodeID), res.Side)
	} else {
		c.store.UpdateEdgeEndpoint(c.edgeID, c.which, domain.PointEndpoint(cand), "")
	}
	if res.NodeID != c.last.NodeID || res.Side != c.last.Side {
		c.log.Debug("snap", slog.String("edge", c.edgeID), slog.String("node", res.NodeID), slog.String("side", string(res.Side)))
	}
	c.last = res
}

// End stops the drag. It is idempotent.
func (c *EdgeController) End() { c.tracker.End(c.token) }

func (c *EdgeController) finish() {
	if c.edgeID == "" {
		return
	}
	c.log.Debug("end", slog.String("edge", c.edgeID))
	c.edgeID = ""
	c.token = 0
	c.store.SetDraggingEdge(false)
}
