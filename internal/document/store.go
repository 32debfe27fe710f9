/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document is the in-memory owner of a flowchart's nodes, edges,
// selection and drag flags. A Store is created per open canvas and handed to
// the controllers that mutate it; it is not safe for concurrent use and is
// expected to be driven from the UI goroutine.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"flowcanvas/internal/domain"
	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/selection"
	"flowcanvas/internal/stylefield"
	"flowcanvas/internal/textlayout"
)

// ErrUnknownNode is returned when an edge refers to a node that does not exist.
var ErrUnknownNode = errors.New("unknown node")

// ErrUnknownEdge is returned by operations addressed to a missing edge.
var ErrUnknownEdge = errors.New("unknown edge")

// Store holds one document. Node and edge order is insertion order and is
// significant: hit testing and snapping scan in this order.
type Store struct {
	meta     domain.Document // id, title, timestamps, viewport
	nodes    []domain.Node
	edges    []domain.Edge
	sel      selection.Selection
	dragNode bool
	dragEdge bool
	revision uint64

	now     func() time.Time
	newID   func() string
	measure textlayout.Provider
	log     *slog.Logger
	onEvent []func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator overrides uuid-based ids for AddNode and AddEdge.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

// WithTextProvider sets the font used to auto-size new nodes.
func WithTextProvider(p textlayout.Provider) Option { return func(s *Store) { s.measure = p } }

// New wraps doc. The document's slices are copied.
func New(doc domain.Document, opts ...Option) *Store {
	s := &Store{
		now:     time.Now,
		newID:   uuid.NewString,
		measure: textlayout.BasicProvider{},
		log:     applog.WithComponent("document"),
	}
	for _, o := range opts {
		o(s)
	}
	s.meta = doc
	s.meta.Nodes, s.meta.Edges = nil, nil
	if s.meta.Viewport.Zoom == 0 {
		s.meta.Viewport = geometry.DefaultViewport
	}
	s.nodes = append([]domain.Node(nil), doc.Nodes...)
	s.edges = make([]domain.Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		s.edges = append(s.edges, e.Clone())
	}
	return s
}

// NewEmpty creates a store for a fresh document.
func NewEmpty(title string, opts ...Option) *Store {
	s := New(domain.Document{Title: title}, opts...)
	ts := s.now().UnixMilli()
	s.meta.ID = s.newID()
	s.meta.CreatedAt, s.meta.UpdatedAt = ts, ts
	return s
}

// Document returns a deep snapshot suitable for persistence.
func (s *Store) Document() domain.Document {
	d := s.meta
	d.Nodes = s.Nodes()
	d.Edges = s.Edges()
	return d
}

// ID, Title and Revision describe the document. Revision increases on every
// applied mutation and can be used as a dirty marker.
func (s *Store) ID() string       { return s.meta.ID }
func (s *Store) Title() string    { return s.meta.Title }
func (s *Store) Revision() uint64 { return s.revision }

// SetTitle renames the document.
func (s *Store) SetTitle(title string) {
	s.meta.Title = title
	s.touch(Event{Kind: EventDocument})
}

// Viewport returns the persisted viewport.
func (s *Store) Viewport() geometry.Viewport { return s.meta.Viewport }

// SetViewport records the viewport so it is saved with the document. It does
// not bump the revision.
func (s *Store) SetViewport(v geometry.Viewport) { s.meta.Viewport = v }

// Nodes returns the nodes in document order.
func (s *Store) Nodes() []domain.Node {
	return append([]domain.Node(nil), s.nodes...)
}

// Edges returns the edges in document order.
func (s *Store) Edges() []domain.Edge {
	out := make([]domain.Edge, len(s.edges))
	for i, e := range s.edges {
		out[i] = e.Clone()
	}
	return out
}

// Node looks up a node by id.
func (s *Store) Node(id string) (domain.Node, bool) {
	if i := s.nodeIndex(id); i >= 0 {
		return s.nodes[i], true
	}
	return domain.Node{}, false
}

// Edge looks up an edge by id.
func (s *Store) Edge(id string) (domain.Edge, bool) {
	if i := s.edgeIndex(id); i >= 0 {
		return s.edges[i].Clone(), true
	}
	return domain.Edge{}, false
}

func (s *Store) nodeIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) edgeIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.edges {
		if s.edges[i].ID == id {
			return i
		}
	}
	return -1
}

// touch bumps the revision and timestamp, then notifies subscribers.
func (s *Store) touch(ev Event) {
	s.revision++
	s.meta.UpdatedAt = s.now().UnixMilli()
	s.emit(ev)
}

func (s *Store) emit(ev Event) {
	for _, fn := range s.onEvent {
		fn(ev)
	}
}

func (s *Store) ignored(op, id string) bool {
	s.log.Debug("ignored mutation", slog.String("op", op), slog.String("id", id))
	return false
}

// --- node mutations ---

// UpdateNodePosition moves a node's top-left corner.
func (s *Store) UpdateNodePosition(id string, p geometry.Pt) bool {
	i := s.nodeIndex(id)
	if i < 0 || !p.Finite() {
		return s.ignored("updateNodePosition", id)
	}
	s.nodes[i].Position = p
	s.touch(Event{Kind: EventNode, ID: id})
	return true
}

// UpdateNodeDimensions resizes a node. Non-positive sizes are rejected.
func (s *Store) UpdateNodeDimensions(id string, w, h float64) bool {
	i := s.nodeIndex(id)
	if i < 0 || !(w > 0) || !(h > 0) || !(geometry.Pt{X: w, Y: h}).Finite() {
		return s.ignored("updateNodeDimensions", id)
	}
	s.nodes[i].Width, s.nodes[i].Height = w, h
	s.touch(Event{Kind: EventNode, ID: id})
	return true
}

// UpdateNodeContent replaces a node's text.
func (s *Store) UpdateNodeContent(id, text string) bool {
	i := s.nodeIndex(id)
	if i < 0 {
		return s.ignored("updateNodeContent", id)
	}
	s.nodes[i].Content = text
	s.touch(Event{Kind: EventNode, ID: id})
	return true
}

// UpdateNodeEditing toggles in-place text editing for a node.
func (s *Store) UpdateNodeEditing(id string, editing bool) bool {
	i := s.nodeIndex(id)
	if i < 0 {
		return s.ignored("updateNodeEditing", id)
	}
	s.nodes[i].Editing = editing
	s.touch(Event{Kind: EventNode, ID: id})
	return true
}

// UpdateNodeStyle merges a partial style. Numeric attributes are clamped to
// the ranges the style panel enforces.
func (s *Store) UpdateNodeStyle(id string, patch domain.NodeStylePatch) bool {
	i := s.nodeIndex(id)
	if i < 0 {
		return s.ignored("updateNodeStyle", id)
	}
	st := patch.Apply(s.nodes[i].Style)
	if patch.FontSize != nil {
		st.FontSize = stylefield.NodeFontSize.Clamp(st.FontSize)
	}
	if patch.BorderWidth != nil {
		st.BorderWidth = stylefield.BorderWidth.Clamp(st.BorderWidth)
	}
	if patch.BorderRadius != nil {
		st.BorderRadius = stylefield.BorderRadius.Clamp(st.BorderRadius)
	}
	s.nodes[i].Style = st
	s.touch(Event{Kind: EventNode, ID: id})
	return true
}

// Minimum size of auto-sized nodes and the text padding around content.
const (
	MinNodeWidth  = 140
	MinNodeHeight = 50
	nodePadding   = 16
)

// AddNode inserts a node built from a partial description and returns its
// id. Missing id, shape or size are filled in; size is derived from the
// content at the node's font size.
func (s *Store) AddNode(n domain.Node) string {
	if n.ID == "" || s.nodeIndex(n.ID) >= 0 {
		n.ID = s.newID()
	}
	if n.Shape == "" {
		n.Shape = geometry.ShapeRectangle
	}
	if !n.Position.Finite() {
		n.Position = geometry.Pt{}
	}
	if !(n.Width > 0) || !(n.Height > 0) {
		n.Width, n.Height = s.autoSize(n)
	}
	s.nodes = append(s.nodes, n)
	s.touch(Event{Kind: EventNode, ID: n.ID})
	return n.ID
}

func (s *Store) autoSize(n domain.Node) (float64, float64) {
	size := n.Style.Resolved().FontSize
	tw, th := textlayout.Measure(s.measure, n.Content, size)
	w, h := max(MinNodeWidth, tw+2*nodePadding), max(MinNodeHeight, th+2*nodePadding)
	if n.Shape == geometry.ShapeDiamond {
		// text must fit the inscribed rectangle, which is half the box
		w, h = max(w, 2*(tw+nodePadding)), max(h, 2*(th+nodePadding))
	}
	if n.Width > 0 {
		w = n.Width
	}
	if n.Height > 0 {
		h = n.Height
	}
	return w, h
}

// DeleteNode removes a node. Edge endpoints bound to it become free points at
// the anchor they were attached to, and the selection is cleared if it
// pointed at the node.
func (s *Store) DeleteNode(id string) bool {
	i := s.nodeIndex(id)
	if i < 0 {
		return s.ignored("deleteNode", id)
	}
	bounds := s.nodes[i].Bounds()
	for k := range s.edges {
		e := &s.edges[k]
		for _, w := range []domain.Which{domain.From, domain.To} {
			ep, a := e.End(w)
			if ep.NodeID != id {
				continue
			}
			e.SetEnd(w, domain.PointEndpoint(geometry.ResolveAnchorPoint(bounds, sideOf(a))), nil)
		}
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	if s.sel.NodeID() == id {
		s.sel = selection.None()
		s.emit(Event{Kind: EventSelection})
	}
	s.touch(Event{Kind: EventNode, ID: id, Deleted: true})
	return true
}

// --- edge mutations ---

// AddEdge inserts an edge and returns its id. Node endpoints must exist.
func (s *Store) AddEdge(e domain.Edge) (string, error) {
	for _, ep := range []domain.Endpoint{e.From, e.To} {
		if ep.IsNode() && s.nodeIndex(ep.NodeID) < 0 {
			return "", fmt.Errorf("add edge: %w: %s", ErrUnknownNode, ep.NodeID)
		}
	}
	if e.ID == "" || s.edgeIndex(e.ID) >= 0 {
		e.ID = s.newID()
	}
	if e.Path == "" {
		e.Path = domain.PathStraight
	}
	s.edges = append(s.edges, e.Clone())
	s.touch(Event{Kind: EventEdge, ID: e.ID})
	return e.ID, nil
}

// UpdateEdgeEndpoint rebinds one end of an edge. For a node target, side is
// the anchor to attach to (empty keeps no anchor); for a free point the side
// is dropped. Binding to a missing node is rejected.
func (s *Store) UpdateEdgeEndpoint(id string, which domain.Which, target domain.Endpoint, side geometry.AnchorSide) bool {
	i := s.edgeIndex(id)
	if i < 0 {
		return s.ignored("updateEdgeEndpoint", id)
	}
	var a *domain.Anchor
	if target.IsNode() {
		if s.nodeIndex(target.NodeID) < 0 {
			return s.ignored("updateEdgeEndpoint", target.NodeID)
		}
		if side != "" {
			a = domain.AnchorAt(side)
		}
	} else if !target.Point.Finite() {
		return s.ignored("updateEdgeEndpoint", id)
	}
	s.edges[i].SetEnd(which, target, a)
	s.touch(Event{Kind: EventEdge, ID: id})
	return true
}

// DeleteEdge removes an edge and clears it from the selection.
func (s *Store) DeleteEdge(id string) bool {
	i := s.edgeIndex(id)
	if i < 0 {
		return s.ignored("deleteEdge", id)
	}
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	if s.sel.EdgeID() == id {
		s.sel = selection.None()
		s.emit(Event{Kind: EventSelection})
	}
	s.touch(Event{Kind: EventEdge, ID: id, Deleted: true})
	return true
}

// FlipEdge swaps the two ends of an edge together with their anchors and
// reverses the waypoints.
func (s *Store) FlipEdge(id string) bool {
	i := s.edgeIndex(id)
	if i < 0 {
		return s.ignored("flipEdge", id)
	}
	e := &s.edges[i]
	e.From, e.To = e.To, e.From
	e.FromAnchor, e.ToAnchor = e.ToAnchor, e.FromAnchor
	for l, r := 0, len(e.Points)-1; l < r; l, r = l+1, r-1 {
		e.Points[l], e.Points[r] = e.Points[r], e.Points[l]
	}
	s.touch(Event{Kind: EventEdge, ID: id})
	return true
}

// EdgeStylePatch is a partial edge style update.
type EdgeStylePatch struct {
	Color  *string
	Width  *float64
	Dashed *bool
}

// UpdateEdgeStyle merges a partial style; width is clamped.
func (s *Store) UpdateEdgeStyle(id string, p EdgeStylePatch) bool {
	i := s.edgeIndex(id)
	if i < 0 {
		return s.ignored("updateEdgeStyle", id)
	}
	st := &s.edges[i].Style
	if p.Color != nil {
		st.Color = *p.Color
	}
	if p.Width != nil {
		st.Width = stylefield.EdgeWidth.Clamp(*p.Width)
	}
	if p.Dashed != nil {
		st.Dashed = *p.Dashed
	}
	s.touch(Event{Kind: EventEdge, ID: id})
	return true
}

// UpdateEdgeLabel replaces the label; nil removes it. Position and font size
// are clamped.
func (s *Store) UpdateEdgeLabel(id string, l *domain.EdgeLabel) bool {
	i := s.edgeIndex(id)
	if i < 0 {
		return s.ignored("updateEdgeLabel", id)
	}
	if l == nil {
		s.edges[i].Label = nil
	} else {
		c := *l
		c.T = stylefield.LabelPosition.Clamp(c.T)
		c.FontSize = stylefield.LabelFontSize.Clamp(c.FontSize)
		s.edges[i].Label = &c
	}
	s.touch(Event{Kind: EventEdge, ID: id})
	return true
}

// --- selection ---

// Selection returns the current selection.
func (s *Store) Selection() selection.Selection { return s.sel }

// SelectNode selects a node and clears any edge selection. An empty id
// clears a node selection; unknown ids are ignored.
func (s *Store) SelectNode(id string) {
	if id == "" {
		if s.sel.Kind() == selection.KindNode {
			s.setSelection(selection.None())
		}
		return
	}
	if s.nodeIndex(id) < 0 {
		s.ignored("selectNode", id)
		return
	}
	s.setSelection(selection.Node(id))
}

// SelectEdge selects an edge and clears any node selection. An empty id
// clears an edge selection; unknown ids are ignored.
func (s *Store) SelectEdge(id string) {
	if id == "" {
		if s.sel.Kind() == selection.KindEdge {
			s.setSelection(selection.None())
		}
		return
	}
	if s.edgeIndex(id) < 0 {
		s.ignored("selectEdge", id)
		return
	}
	s.setSelection(selection.Edge(id))
}

func (s *Store) setSelection(sel selection.Selection) {
	if s.sel == sel {
		return
	}
	s.sel = sel
	s.emit(Event{Kind: EventSelection, ID: sel.ID()})
}

// SelectedNode and SelectedEdge return "" when nothing of that kind is selected.
func (s *Store) SelectedNode() string { return s.sel.NodeID() }
func (s *Store) SelectedEdge() string { return s.sel.EdgeID() }

// --- drag flags ---

func (s *Store) SetDraggingNode(v bool) { s.setFlag(&s.dragNode, v) }
func (s *Store) SetDraggingEdge(v bool) { s.setFlag(&s.dragEdge, v) }
func (s *Store) IsDraggingNode() bool   { return s.dragNode }
func (s *Store) IsDraggingEdge() bool   { return s.dragEdge }

func (s *Store) setFlag(f *bool, v bool) {
	if *f == v {
		return
	}
	*f = v
	s.emit(Event{Kind: EventDrag})
}

func sideOf(a *domain.Anchor) geometry.AnchorSide {
	if a == nil {
		return ""
	}
	return a.Side
}
