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

// Sample returns a small input-validation flowchart used by `flowcanvas init
// --sample`, the shell and the tests.
func Sample() domain.Document {
	node := func(id string, shape geometry.Shape, x, y, w, h float64, text string, st domain.NodeStyle) domain.Node {
		return domain.Node{ID: id, Shape: shape, Position: geometry.Pt{X: x, Y: y}, Width: w, Height: h, Content: text, Style: st}
	}
	edge := func(id, from, to string, fs, ts geometry.AnchorSide) domain.Edge {
		return domain.Edge{
			ID: id, From: domain.NodeEndpoint(from), To: domain.NodeEndpoint(to),
			FromAnchor: domain.AnchorAt(fs), ToAnchor: domain.AnchorAt(ts), Path: domain.PathStraight,
		}
	}
	rect, diamond := geometry.ShapeRectangle, geometry.ShapeDiamond

	d := domain.Document{
		ID:        "doc_001",
		Title:     "Sample Flowchart",
		CreatedAt: 1732600000000,
		UpdatedAt: 1732600500000,
		Viewport:  geometry.DefaultViewport,
		Nodes: []domain.Node{
			node("node_start", rect, 86, 111, 140, 50, "Start", domain.NodeStyle{FontSize: 15}),
			node("node_input", rect, 66, 190, 180, 60, "Get User Input", domain.NodeStyle{BorderRadius: 10}),
			node("node_decision", diamond, 86, 278, 140, 83, "Is Input Valid?", domain.NodeStyle{BorderRadius: 10}),
			node("node_process", rect, 244, 368, 170, 60, "Process Input", domain.NodeStyle{BorderRadius: 10}),
			node("node_end", rect, 357, 293, 124, 53, "End", domain.NodeStyle{}),
			node("node_output", rect, 447, 372.5, 138, 50, "Print Output", domain.NodeStyle{
				BackgroundColor: "#ffffff", BorderColor: "#000000", BorderWidth: 2, BorderRadius: 10,
				TextColor: "#000000", FontSize: 14, FontWeight: "normal",
			}),
		},
	}

	e1 := edge("edge_1", "node_start", "node_input", geometry.SideBottom, geometry.SideTop)
	e2 := edge("edge_2", "node_input", "node_decision", geometry.SideBottom, geometry.SideTop)
	e3 := edge("edge_3", "node_decision", "node_process", geometry.SideBottom, geometry.SideLeft)
	e3.Label = &domain.EdgeLabel{Text: "True", T: 0.5, FontSize: 11}
	e4 := edge("edge_4", "node_output", "node_end", geometry.SideTop, geometry.SideRight)
	e4.Points = []geometry.Pt{{X: 450, Y: 480}, {X: 450, Y: 560}, {X: 270, Y: 560}}
	e4.Style = domain.EdgeStyle{Width: 2}
	e5 := edge("edge_5", "node_decision", "node_end", geometry.SideRight, geometry.SideLeft)
	e5.Points = []geometry.Pt{{X: 420, Y: 350}, {X: 420, Y: 605}, {X: 200, Y: 605}}
	e5.Style = domain.EdgeStyle{Width: 2}
	e5.Label = &domain.EdgeLabel{Text: "False", T: 0.5, FontSize: 11}
	e6 := edge("edge_6", "node_process", "node_output", geometry.SideRight, geometry.SideLeft)
	e6.Style = domain.EdgeStyle{Color: "#000", Width: 2}
	e7 := edge("edge_7", "node_input", "node_end", geometry.SideRight, geometry.SideTop)
	e7.Style = domain.EdgeStyle{Color: "#ff0000", Width: 2}
	e7.Label = &domain.EdgeLabel{Text: "Ctrl-D", T: 0.3, FontSize: 14}
	d.Edges = []domain.Edge{e1, e2, e3, e4, e5, e6, e7}
	return d
}
