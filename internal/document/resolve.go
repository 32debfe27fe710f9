/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
)

// ResolveEnd returns the document-space point of one end of e. A node-bound
// end resolves against the node's current bounds; ok is false when that
// node does not exist.
func (s *Store) ResolveEnd(e domain.Edge, which domain.Which) (geometry.Pt, bool) {
	ep, a := e.End(which)
	if !ep.IsNode() {
		return ep.Point, true
	}
	n, ok := s.Node(ep.NodeID)
	if !ok {
		return geometry.Pt{}, false
	}
	return geometry.ResolveAnchorPoint(n.Bounds(), sideOf(a)), true
}

// ResolveEndpoint resolves one end of the edge with the given id.
func (s *Store) ResolveEndpoint(edgeID string, which domain.Which) (geometry.Pt, bool) {
	i := s.edgeIndex(edgeID)
	if i < 0 {
		return geometry.Pt{}, false
	}
	return s.ResolveEnd(s.edges[i], which)
}

// ResolveLine returns the polyline of an edge: from, waypoints, to.
func (s *Store) ResolveLine(edgeID string) ([]geometry.Pt, bool) {
	i := s.edgeIndex(edgeID)
	if i < 0 {
		return nil, false
	}
	return s.lineOf(s.edges[i])
}

func (s *Store) lineOf(e domain.Edge) ([]geometry.Pt, bool) {
	from, ok := s.ResolveEnd(e, domain.From)
	if !ok {
		return nil, false
	}
	to, ok := s.ResolveEnd(e, domain.To)
	if !ok {
		return nil, false
	}
	line := make([]geometry.Pt, 0, len(e.Points)+2)
	line = append(line, from)
	line = append(line, e.Points...)
	return append(line, to), true
}

// LabelPoint returns where an edge's label is drawn: the point at fraction
// t of the polyline length. ok is false for unlabelled or unresolvable edges.
func (s *Store) LabelPoint(edgeID string) (geometry.Pt, bool) {
	i := s.edgeIndex(edgeID)
	if i < 0 || s.edges[i].Label == nil {
		return geometry.Pt{}, false
	}
	line, ok := s.lineOf(s.edges[i])
	if !ok {
		return geometry.Pt{}, false
	}
	return geometry.PointAt(line, s.edges[i].Label.T), true
}

// Line is a resolved edge ready for drawing.
type Line struct {
	Edge   domain.Edge
	Points []geometry.Pt
	Label  geometry.Pt // valid when Edge.Label != nil
}

// Lines resolves every edge in document order, skipping edges whose bound
// node is missing.
func (s *Store) Lines() []Line {
	out := make([]Line, 0, len(s.edges))
	for _, e := range s.edges {
		pts, ok := s.lineOf(e)
		if !ok {
			continue
		}
		l := Line{Edge: e.Clone(), Points: pts}
		if e.Label != nil {
			l.Label = geometry.PointAt(pts, e.Label.T)
		}
		out = append(out, l)
	}
	return out
}

// Bounds is the union of all node boxes and free edge points. ok is false
// for an empty document.
func (s *Store) Bounds() (geometry.Rect, bool) {
	var r geometry.Rect
	first := true
	add := func(b geometry.Rect) {
		if first {
			r, first = b, false
			return
		}
		r = r.Union(b)
	}
	for _, n := range s.nodes {
		add(n.Bounds())
	}
	for _, l := range s.Lines() {
		add(geometry.Bounds(l.Points))
	}
	return r, !first
}
