/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/selection"
)

// Scene is everything a renderer needs for one frame. Nodes and lines are in
// document space; Transform maps them to the screen.
type Scene struct {
	Viewport     geometry.Viewport
	Transform    geometry.Affine2D
	Nodes        []domain.Node
	Lines        []document.Line
	Selection    selection.Selection
	DraggingNode bool
	DraggingEdge bool
}

// Scene snapshots the current render state.
func (c *Canvas) Scene() Scene {
	return Scene{
		Viewport:     c.view.Viewport(),
		Transform:    c.view.Transform(),
		Nodes:        c.store.Nodes(),
		Lines:        c.store.Lines(),
		Selection:    c.store.Selection(),
		DraggingNode: c.store.IsDraggingNode(),
		DraggingEdge: c.store.IsDraggingEdge(),
	}
}

// IsDraggingNode and IsDraggingEdge expose the drag flags for affordances
// such as hiding hover handles.
func (c *Canvas) IsDraggingNode() bool { return c.store.IsDraggingNode() }
func (c *Canvas) IsDraggingEdge() bool { return c.store.IsDraggingEdge() }

// Transform is the current document-to-screen matrix.
func (c *Canvas) Transform() geometry.Affine2D { return c.view.Transform() }

// EndpointOnScreen resolves one end of an edge to screen space.
func (c *Canvas) EndpointOnScreen(edgeID string, which domain.Which) (geometry.Pt, bool) {
	p, ok := c.store.ResolveEndpoint(edgeID, which)
	if !ok {
		return geometry.Pt{}, false
	}
	return c.view.ToScreen(p), true
}
