/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

// Selector is the state owner that enforces node/edge exclusivity. An empty
// id clears the respective selection.
type Selector interface {
	SelectNode(id string)
	SelectEdge(id string)
	Selection() Selection
}

// Coordinator applies the interaction rules on top of a Selector.
type Coordinator struct {
	s Selector
}

func NewCoordinator(s Selector) *Coordinator { return &Coordinator{s: s} }

// Current returns the active selection.
func (c *Coordinator) Current() Selection { return c.s.Selection() }

// SelectNode selects id and clears any edge selection.
func (c *Coordinator) SelectNode(id string) { c.s.SelectNode(id) }

// SelectEdge selects id and clears any node selection.
func (c *Coordinator) SelectEdge(id string) { c.s.SelectEdge(id) }

// ToggleEdge selects id, or clears it when it is already the selected edge.
// It reports whether the edge is selected afterwards.
func (c *Coordinator) ToggleEdge(id string) bool {
	if c.s.Selection().EdgeID() == id {
		c.s.SelectEdge("")
		return false
	}
	c.s.SelectEdge(id)
	return true
}

// Clear drops any selection.
func (c *Coordinator) Clear() {
	switch c.s.Selection().Kind() {
	case KindNode:
		c.s.SelectNode("")
	case KindEdge:
		c.s.SelectEdge("")
	}
}
