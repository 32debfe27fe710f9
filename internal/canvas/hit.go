/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"

	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
)

// HitKind is what lies under a pointer.
type HitKind int

const (
	HitBackground HitKind = iota
	HitEndpoint
	HitNode
	HitEdge
)

// Hit is the result of HitTest. Which is set for endpoint hits.
type Hit struct {
	Kind  HitKind
	ID    string
	Which domain.Which
}

func (h Hit) String() string {
	switch h.Kind {
	case HitEndpoint:
		return fmt.Sprintf("endpoint:%s:%s", h.ID, h.Which)
	case HitNode:
		return "node:" + h.ID
	case HitEdge:
		return "edge:" + h.ID
	default:
		return "background"
	}
}

// HitTest finds what is under screen point p. Endpoint handles of the
// selected edge are tested first, then all other handles, then nodes from
// topmost (last) to bottom, then edge lines.
func (c *Canvas) HitTest(p geometry.Pt) Hit {
	doc := c.view.ToDocument(p)
	zoom := c.view.Viewport().Zoom
	lines := c.store.Lines()

	handle := func(l document.Line) (domain.Which, bool) {
		for _, w := range []domain.Which{domain.To, domain.From} {
			end := l.Points[0]
			if w == domain.To {
				end = l.Points[len(l.Points)-1]
			}
			if c.view.ToScreen(end).Dist(p) <= c.opts.HandleRadius {
				return w, true
			}
		}
		return "", false
	}
	selected := c.store.SelectedEdge()
	for _, l := range lines {
		if l.Edge.ID != selected {
			continue
		}
		if w, ok := handle(l); ok {
			return Hit{Kind: HitEndpoint, ID: l.Edge.ID, Which: w}
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if w, ok := handle(lines[i]); ok {
			return Hit{Kind: HitEndpoint, ID: lines[i].Edge.ID, Which: w}
		}
	}

	nodes := c.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Hit(doc) {
			return Hit{Kind: HitNode, ID: nodes[i].ID}
		}
	}

	tol := c.opts.EdgeTolerance / zoom
	for i := len(lines) - 1; i >= 0; i-- {
		if d := geometry.DistanceToPolyline(doc, lines[i].Points); d >= 0 && d <= tol {
			return Hit{Kind: HitEdge, ID: lines[i].Edge.ID}
		}
	}
	return Hit{Kind: HitBackground}
}
