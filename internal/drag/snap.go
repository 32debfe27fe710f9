/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
)

// SnapResult is the outcome of a snap test. NodeID is empty when the point
// did not land on any node.
type SnapResult struct {
	NodeID string
	Side   geometry.AnchorSide
	Point  geometry.Pt
}

// Snapped reports whether a node was hit.
func (r SnapResult) Snapped() bool { return r.NodeID != "" }

// Snap finds the first node in order whose bounding box strictly contains p,
// skipping the node named exclude, and picks the box side closest to p.
// Ties between sides resolve in the order left, right, top, bottom. Without
// a hit the result is the free point p.
func Snap(nodes []domain.Node, p geometry.Pt, exclude string) SnapResult {
	for _, n := range nodes {
		if n.ID == exclude && exclude != "" {
			continue
		}
		b := n.Bounds()
		if !b.ContainsStrict(p) {
			continue
		}
		side := geometry.NearestSide(b, p)
		return SnapResult{NodeID: n.ID, Side: side, Point: geometry.ResolveAnchorPoint(b, side)}
	}
	return SnapResult{Point: p}
}
