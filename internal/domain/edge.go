/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"flowcanvas/internal/geometry"
)

// Which selects one end of an edge.
type Which string

const (
	From Which = "from"
	To   Which = "to"
)

// Opposite returns the other end.
func (w Which) Opposite() Which {
	if w == From {
		return To
	}
	return From
}

// PathStyle is how an edge line is drawn between its points.
type PathStyle string

const (
	PathStraight PathStyle = "straight"
	PathSmooth   PathStyle = "smooth"
)

// Endpoint is one end of an edge: either bound to a node by id or a free
// point in document space. Exactly one of the two is meaningful; a non-empty
// NodeID wins.
type Endpoint struct {
	NodeID string
	Point  geometry.Pt
}

// NodeEndpoint binds to a node.
func NodeEndpoint(id string) Endpoint { return Endpoint{NodeID: id} }

// PointEndpoint is a free point.
func PointEndpoint(p geometry.Pt) Endpoint { return Endpoint{Point: p} }

// IsNode reports whether the endpoint is bound to a node.
func (e Endpoint) IsNode() bool { return e.NodeID != "" }

func (e Endpoint) String() string {
	if e.IsNode() {
		return e.NodeID
	}
	return fmt.Sprintf("(%g,%g)", e.Point.X, e.Point.Y)
}

// MarshalJSON encodes a node binding as its id string and a free point as
// {"x":..,"y":..}.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	if e.IsNode() {
		return json.Marshal(e.NodeID)
	}
	return json.Marshal(e.Point)
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (e *Endpoint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*e = Endpoint{NodeID: id}
		return nil
	}
	var p geometry.Pt
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("endpoint must be a node id or a point: %w", err)
	}
	*e = Endpoint{Point: p}
	return nil
}

// Anchor names the node side an endpoint attaches to. A nil *Anchor on an
// edge means the endpoint has no side; it is ignored for free points.
type Anchor struct {
	Side geometry.AnchorSide `json:"side"`
}

// AnchorAt is shorthand for &Anchor{Side: s}.
func AnchorAt(s geometry.AnchorSide) *Anchor { return &Anchor{Side: s} }

// EdgeLabel is text placed at fraction T along the edge polyline.
type EdgeLabel struct {
	Text     string  `json:"text"`
	T        float64 `json:"t"`
	FontSize float64 `json:"fontSize"`
}

// EdgeStyle carries optional edge visual attributes.
type EdgeStyle struct {
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Dashed bool    `json:"dashed,omitempty"`
}

// Edge defaults for unset style attributes and new labels.
const (
	DefaultEdgeColor     = "#000000"
	DefaultEdgeWidth     = 2
	DefaultLabelT        = 0.5
	DefaultLabelFontSize = 14
)

// Resolved fills unset attributes with the renderer defaults.
func (s EdgeStyle) Resolved() EdgeStyle {
	if s.Color == "" {
		s.Color = DefaultEdgeColor
	}
	if s.Width == 0 {
		s.Width = DefaultEdgeWidth
	}
	return s
}

// Edge connects two endpoints, optionally through intermediate waypoints.
type Edge struct {
	ID         string        `json:"id"`
	From       Endpoint      `json:"from"`
	To         Endpoint      `json:"to"`
	FromAnchor *Anchor       `json:"fromAnchor,omitempty"`
	ToAnchor   *Anchor       `json:"toAnchor,omitempty"`
	Path       PathStyle     `json:"path,omitempty"`
	Points     []geometry.Pt `json:"points,omitempty"`
	Label      *EdgeLabel    `json:"label,omitempty"`
	Style      EdgeStyle     `json:"style,omitempty"`
}

// End returns the endpoint and anchor for w.
func (e Edge) End(w Which) (Endpoint, *Anchor) {
	if w == From {
		return e.From, e.FromAnchor
	}
	return e.To, e.ToAnchor
}

// SetEnd replaces the endpoint and anchor for w.
func (e *Edge) SetEnd(w Which, ep Endpoint, a *Anchor) {
	if w == From {
		e.From, e.FromAnchor = ep, a
		return
	}
	e.To, e.ToAnchor = ep, a
}

// Clone returns a deep copy so callers cannot alias the stored slices.
func (e Edge) Clone() Edge {
	if e.Points != nil {
		e.Points = append([]geometry.Pt(nil), e.Points...)
	}
	if e.FromAnchor != nil {
		a := *e.FromAnchor
		e.FromAnchor = &a
	}
	if e.ToAnchor != nil {
		a := *e.ToAnchor
		e.ToAnchor = &a
	}
	if e.Label != nil {
		l := *e.Label
		e.Label = &l
	}
	return e
}
