/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Polyline helpers for edge lines (endpoint, waypoints..., endpoint).

// PolylineLength returns the summed segment length of pts.
func PolylineLength(pts []Pt) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}

// PointAt returns the point at fraction t (clamped to [0,1]) of the polyline's arc length.
// An empty polyline yields the zero point; a single point yields that point.
func PointAt(pts []Pt, t float64) Pt {
	switch len(pts) {
	case 0:
		return Pt{}
	case 1:
		return pts[0]
	}
	t = Clamp(t, 0, 1)
	total := PolylineLength(pts)
	if total == 0 {
		return pts[0]
	}
	target := total * t
	var walked float64
	for i := 1; i < len(pts); i++ {
		seg := pts[i-1].Dist(pts[i])
		if seg > 0 && walked+seg >= target {
			f := (target - walked) / seg
			return Pt{
				X: pts[i-1].X + (pts[i].X-pts[i-1].X)*f,
				Y: pts[i-1].Y + (pts[i].Y-pts[i-1].Y)*f,
			}
		}
		walked += seg
	}
	return pts[len(pts)-1]
}

// DistanceToSegment returns the shortest distance from p to the segment a-b.
func DistanceToSegment(p, a, b Pt) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := Clamp(((p.X-a.X)*d.X+(p.Y-a.Y)*d.Y)/l2, 0, 1)
	return p.Dist(Pt{a.X + d.X*t, a.Y + d.Y*t})
}

// DistanceToPolyline returns the shortest distance from p to any segment of pts.
func DistanceToPolyline(p Pt, pts []Pt) float64 {
	switch len(pts) {
	case 0:
		return -1
	case 1:
		return p.Dist(pts[0])
	}
	best := DistanceToSegment(p, pts[0], pts[1])
	for i := 2; i < len(pts); i++ {
		if d := DistanceToSegment(p, pts[i-1], pts[i]); d < best {
			best = d
		}
	}
	return best
}

// Bounds returns the bounding rectangle of pts.
func Bounds(pts []Pt) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
