/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// AnchorSide names the side of a node's bounding box an edge endpoint attaches to.
type AnchorSide string

const (
	SideTop    AnchorSide = "top"
	SideBottom AnchorSide = "bottom"
	SideLeft   AnchorSide = "left"
	SideRight  AnchorSide = "right"
)

// Valid reports whether s is one of the four known sides.
func (s AnchorSide) Valid() bool {
	switch s {
	case SideTop, SideBottom, SideLeft, SideRight:
		return true
	}
	return false
}

// ResolveAnchorPoint returns the document-space point of side on r:
// top/bottom give the horizontal midpoint of that edge, left/right the vertical midpoint.
// An unknown side resolves to the center.
func ResolveAnchorPoint(r Rect, side AnchorSide) Pt {
	switch side {
	case SideTop:
		return Pt{r.X + r.W/2, r.Y}
	case SideBottom:
		return Pt{r.X + r.W/2, r.Y + r.H}
	case SideLeft:
		return Pt{r.X, r.Y + r.H/2}
	case SideRight:
		return Pt{r.X + r.W, r.Y + r.H/2}
	default:
		return r.Center()
	}
}

// NearestSide returns the side of r whose edge line is closest to p.
// Distances are axis-aligned (|p.X-left|, |p.X-right|, |p.Y-top|, |p.Y-bottom|);
// ties go to the first side in the order left, right, top, bottom.
func NearestSide(r Rect, p Pt) AnchorSide {
	candidates := [4]struct {
		side AnchorSide
		dist float64
	}{
		{SideLeft, abs(p.X - r.X)},
		{SideRight, abs(p.X - (r.X + r.W))},
		{SideTop, abs(p.Y - r.Y)},
		{SideBottom, abs(p.Y - (r.Y + r.H))},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.dist < best.dist {
			best = c
		}
	}
	return best.side
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
