/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the flowchart document model shared by the store,
// the interaction controllers, persistence and export. It is intended to
// serialize to the same JSON shape the editor saves on disk.
package domain

import (
	"flowcanvas/internal/geometry"
)

// Document is a single flowchart with its metadata and persisted viewport.
type Document struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt int64             `json:"createdAt"` // unix milliseconds
	UpdatedAt int64             `json:"updatedAt"`
	Nodes     []Node            `json:"nodes"`
	Edges     []Edge            `json:"edges"`
	Viewport  geometry.Viewport `json:"viewport"`
}

// Node is a shape placed on the canvas. Position is the top-left corner in
// document space.
type Node struct {
	ID       string         `json:"id"`
	Shape    geometry.Shape `json:"shape"`
	Position geometry.Pt    `json:"position"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Content  string         `json:"content"`
	Style    NodeStyle      `json:"style,omitempty"`
	Editing  bool           `json:"editing,omitempty"`
}

// Bounds returns the node's bounding box in document space.
func (n Node) Bounds() geometry.Rect {
	return geometry.R(n.Position.X, n.Position.Y, n.Width, n.Height)
}

// Hit reports whether the document point p is inside the node's shape.
func (n Node) Hit(p geometry.Pt) bool {
	return geometry.HitShape(n.Shape, n.Bounds(), p)
}

// NodeStyle carries optional visual attributes. Zero values mean "use the
// renderer default".
type NodeStyle struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	TextColor       string  `json:"textColor,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
}

// Renderer defaults for unset node style attributes.
const (
	DefaultBackground  = "#ffffff"
	DefaultBorderColor = "#333333"
	DefaultBorderWidth = 2
	DefaultTextColor   = "#000000"
	DefaultFontSize    = 14
)

// Resolved fills unset attributes with the renderer defaults.
func (s NodeStyle) Resolved() NodeStyle {
	if s.BackgroundColor == "" {
		s.BackgroundColor = DefaultBackground
	}
	if s.BorderColor == "" {
		s.BorderColor = DefaultBorderColor
	}
	if s.BorderWidth == 0 {
		s.BorderWidth = DefaultBorderWidth
	}
	if s.TextColor == "" {
		s.TextColor = DefaultTextColor
	}
	if s.FontSize == 0 {
		s.FontSize = DefaultFontSize
	}
	if s.FontWeight == "" {
		s.FontWeight = "normal"
	}
	return s
}

// NodeStylePatch is a partial style update; nil fields are left untouched.
type NodeStylePatch struct {
	BackgroundColor *string
	BorderColor     *string
	BorderWidth     *float64
	BorderRadius    *float64
	TextColor       *string
	FontSize        *float64
	FontWeight      *string
}

// Apply merges the non-nil fields of p into s.
func (p NodeStylePatch) Apply(s NodeStyle) NodeStyle {
	if p.BackgroundColor != nil {
		s.BackgroundColor = *p.BackgroundColor
	}
	if p.BorderColor != nil {
		s.BorderColor = *p.BorderColor
	}
	if p.BorderWidth != nil {
		s.BorderWidth = *p.BorderWidth
	}
	if p.BorderRadius != nil {
		s.BorderRadius = *p.BorderRadius
	}
	if p.TextColor != nil {
		s.TextColor = *p.TextColor
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	return s
}
