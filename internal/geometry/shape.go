/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Shape hit testing for node shapes. Shapes are bounding-box based: a rectangle fills its box,
// a diamond connects the midpoints of the four box edges.

import "math"

// Shape identifies how a node is drawn and hit-tested.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeDiamond   Shape = "diamond"
)

// HitShape reports whether p lies inside the shape drawn in box r.
// Unknown shapes fall back to the bounding box.
func HitShape(s Shape, r Rect, p Pt) bool {
	switch s {
	case ShapeDiamond:
		if r.W <= 0 || r.H <= 0 {
			return false
		}
		c := r.Center()
		dx := math.Abs(p.X-c.X) / (r.W / 2)
		dy := math.Abs(p.Y-c.Y) / (r.H / 2)
		return dx+dy <= 1
	default:
		return r.Contains(p)
	}
}

// DiamondPoints returns the four corners of the diamond inscribed in r,
// clockwise from the top.
func DiamondPoints(r Rect) [4]Pt {
	return [4]Pt{
		ResolveAnchorPoint(r, SideTop),
		ResolveAnchorPoint(r, SideRight),
		ResolveAnchorPoint(r, SideBottom),
		ResolveAnchorPoint(r, SideLeft),
	}
}
