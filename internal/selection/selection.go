/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection tracks the single selected node or edge.
package selection

import "fmt"

// Kind tags a Selection.
type Kind int

const (
	KindNone Kind = iota
	KindNode
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "none"
	}
}

// Selection is None, a node or an edge. The zero value is None.
type Selection struct {
	kind Kind
	id   string
}

// None is the empty selection.
func None() Selection { return Selection{} }

// Node selects a node; an empty id yields None.
func Node(id string) Selection {
	if id == "" {
		return None()
	}
	return Selection{kind: KindNode, id: id}
}

// Edge selects an edge; an empty id yields None.
func Edge(id string) Selection {
	if id == "" {
		return None()
	}
	return Selection{kind: KindEdge, id: id}
}

func (s Selection) Kind() Kind   { return s.kind }
func (s Selection) ID() string   { return s.id }
func (s Selection) IsNone() bool { return s.kind == KindNone }

// NodeID returns the selected node id, or "" if a node is not selected.
func (s Selection) NodeID() string {
	if s.kind == KindNode {
		return s.id
	}
	return ""
}

// EdgeID returns the selected edge id, or "" if an edge is not selected.
func (s Selection) EdgeID() string {
	if s.kind == KindEdge {
		return s.id
	}
	return ""
}

func (s Selection) String() string {
	if s.kind == KindNone {
		return "none"
	}
	return fmt.Sprintf("%s:%s", s.kind, s.id)
}

// Visitor handles each variant. Every field must be set.
type Visitor[T any] struct {
	None func() T
	Node func(id string) T
	Edge func(id string) T
}

// Match dispatches s to the matching Visitor function.
func Match[T any](s Selection, v Visitor[T]) T {
	switch s.kind {
	case KindNode:
		return v.Node(s.id)
	case KindEdge:
		return v.Edge(s.id)
	default:
		return v.None()
	}
}
