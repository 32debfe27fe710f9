//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/stylefield"
)

// fieldEntry is an entry bound to a stylefield.Field. Typing only changes
// the displayed text; focus loss or Enter commits it.
type fieldEntry struct {
	widget.Entry
	f *stylefield.Field
}

func newFieldEntry(f *stylefield.Field) *fieldEntry {
	e := &fieldEntry{f: f}
	e.ExtendBaseWidget(e)
	e.SetText(f.Displayed)
	e.OnChanged = func(s string) {
		if f.Focused && s != f.Displayed {
			f.Type(s)
		}
	}
	e.OnSubmitted = func(string) {
		f.Enter()
		e.SetText(f.Displayed)
	}
	return e
}

func (e *fieldEntry) FocusGained() {
	e.f.Focus()
	e.Entry.FocusGained()
}

func (e *fieldEntry) FocusLost() {
	e.Entry.FocusLost()
	e.f.Blur()
	e.SetText(e.f.Displayed)
}

// follow refreshes the entry from the store unless the user is typing.
func (e *fieldEntry) follow(v float64) {
	if e.f.Focused {
		return
	}
	e.f.Sync(v)
	e.SetText(e.f.Displayed)
}

type binding struct {
	entry *fieldEntry
	get   func() (float64, bool)
}

// stylePanel edits the selected node or edge.
type stylePanel struct {
	store    *document.Store
	win      fyne.Window
	box      *fyne.Container
	bindings []binding
	unsub    func()
}

func newStylePanel(store *document.Store, win fyne.Window) *stylePanel {
	p := &stylePanel{store: store, win: win, box: container.NewVBox()}
	p.unsub = store.Subscribe(func(ev document.Event) {
		if ev.Kind == document.EventSelection || ev.Deleted {
			p.rebuild()
			return
		}
		p.follow()
	})
	p.rebuild()
	return p
}

func (p *stylePanel) Object() fyne.CanvasObject { return container.NewVScroll(p.box) }

// Close flushes uncommitted field values and detaches from the store.
func (p *stylePanel) Close() {
	p.closeFields()
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
}

func (p *stylePanel) closeFields() {
	for _, b := range p.bindings {
		b.entry.f.Close()
	}
	p.bindings = nil
}

func (p *stylePanel) follow() {
	for _, b := range p.bindings {
		if v, ok := b.get(); ok {
			b.entry.follow(v)
		}
	}
}

func (p *stylePanel) rebuild() {
	p.closeFields()
	p.box.RemoveAll()
	sel := p.store.Selection()
	switch {
	case sel.NodeID() != "":
		p.buildNode(sel.NodeID())
	case sel.EdgeID() != "":
		p.buildEdge(sel.EdgeID())
	default:
		p.box.Add(widget.NewLabel("Select a node or an edge"))
	}
	p.box.Refresh()
}

func (p *stylePanel) number(label string, r stylefield.Range, get func() (float64, bool), set func(float64)) {
	v, _ := get()
	e := newFieldEntry(stylefield.NewField(r, v, set))
	p.bindings = append(p.bindings, binding{entry: e, get: get})
	p.box.Add(widget.NewForm(widget.NewFormItem(label, e)))
}

func (p *stylePanel) colour(label, current string, set func(string)) {
	btn := widget.NewButton(current, nil)
	btn.OnTapped = func() {
		picker := dialog.NewColorPicker(label, "", func(c color.Color) {
			r, g, b, _ := c.RGBA()
			hex := stylefield.FormatHex(stylefield.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
			btn.SetText(hex)
			set(hex)
		}, p.win)
		picker.Advanced = true
		picker.SetColor(stylefield.MustHex(current, stylefield.RGB{}).RGBA())
		picker.Show()
	}
	hex := widget.NewEntry()
	hex.SetText(current)
	hex.OnChanged = func(s string) {
		// same filter as the picker's text box
		if !stylefield.ValidPartialHex(s) {
			hex.SetText(btn.Text)
		}
	}
	hex.OnSubmitted = func(s string) {
		if c, ok := stylefield.ParseHex(s); ok {
			v := stylefield.FormatHex(c)
			btn.SetText(v)
			set(v)
		}
	}
	p.box.Add(widget.NewForm(widget.NewFormItem(label, container.NewGridWithColumns(2, hex, btn))))
}

func (p *stylePanel) buildNode(id string) {
	n, ok := p.store.Node(id)
	if !ok {
		return
	}
	st := n.Style.Resolved()
	get := func(pick func(domain.NodeStyle) float64) func() (float64, bool) {
		return func() (float64, bool) {
			n, ok := p.store.Node(id)
			return pick(n.Style.Resolved()), ok
		}
	}
	patch := func(pp domain.NodeStylePatch) { p.store.UpdateNodeStyle(id, pp) }

	title := widget.NewLabel("Node " + id)
	title.TextStyle = fyne.TextStyle{Bold: true}
	p.box.Add(title)
	p.number("Font size", stylefield.NodeFontSize, get(func(s domain.NodeStyle) float64 { return s.FontSize }),
		func(v float64) { patch(domain.NodeStylePatch{FontSize: &v}) })
	p.number("Border width", stylefield.BorderWidth, get(func(s domain.NodeStyle) float64 { return s.BorderWidth }),
		func(v float64) { patch(domain.NodeStylePatch{BorderWidth: &v}) })
	p.number("Corner radius", stylefield.BorderRadius, get(func(s domain.NodeStyle) float64 { return s.BorderRadius }),
		func(v float64) { patch(domain.NodeStylePatch{BorderRadius: &v}) })
	p.colour("Background", st.BackgroundColor, func(v string) { patch(domain.NodeStylePatch{BackgroundColor: &v}) })
	p.colour("Border", st.BorderColor, func(v string) { patch(domain.NodeStylePatch{BorderColor: &v}) })
	p.colour("Text", st.TextColor, func(v string) { patch(domain.NodeStylePatch{TextColor: &v}) })
	bold := widget.NewCheck("Bold", func(on bool) {
		w := "normal"
		if on {
			w = "bold"
		}
		patch(domain.NodeStylePatch{FontWeight: &w})
	})
	bold.SetChecked(st.FontWeight == "bold")
	p.box.Add(bold)
	p.box.Add(widget.NewButton("Delete node", func() { p.store.DeleteNode(id) }))
}

func (p *stylePanel) buildEdge(id string) {
	e, ok := p.store.Edge(id)
	if !ok {
		return
	}
	st := e.Style.Resolved()
	label := func() domain.EdgeLabel {
		e, _ := p.store.Edge(id)
		if e.Label == nil {
			return domain.EdgeLabel{T: domain.DefaultLabelT, FontSize: domain.DefaultLabelFontSize}
		}
		return *e.Label
	}
	setLabel := func(edit func(*domain.EdgeLabel)) {
		l := label()
		edit(&l)
		if strings.TrimSpace(l.Text) == "" {
			p.store.UpdateEdgeLabel(id, nil)
			return
		}
		p.store.UpdateEdgeLabel(id, &l)
	}

	title := widget.NewLabel("Edge " + id)
	title.TextStyle = fyne.TextStyle{Bold: true}
	p.box.Add(title)
	p.box.Add(widget.NewLabel(e.From.String() + " -> " + e.To.String()))
	p.number("Width", stylefield.EdgeWidth, func() (float64, bool) {
		e, ok := p.store.Edge(id)
		return e.Style.Resolved().Width, ok
	}, func(v float64) { p.store.UpdateEdgeStyle(id, document.EdgeStylePatch{Width: &v}) })
	p.colour("Colour", st.Color, func(v string) { p.store.UpdateEdgeStyle(id, document.EdgeStylePatch{Color: &v}) })
	dashed := widget.NewCheck("Dashed", func(on bool) { p.store.UpdateEdgeStyle(id, document.EdgeStylePatch{Dashed: &on}) })
	dashed.SetChecked(st.Dashed)
	p.box.Add(dashed)

	text := widget.NewEntry()
	text.SetPlaceHolder("No label")
	text.SetText(label().Text)
	text.OnSubmitted = func(s string) { setLabel(func(l *domain.EdgeLabel) { l.Text = s }) }
	p.box.Add(widget.NewForm(widget.NewFormItem("Label", text)))
	p.number("Label position", stylefield.LabelPosition, func() (float64, bool) { return label().T, true },
		func(v float64) { setLabel(func(l *domain.EdgeLabel) { l.T = v }) })
	p.number("Label size", stylefield.LabelFontSize, func() (float64, bool) { return label().FontSize, true },
		func(v float64) { setLabel(func(l *domain.EdgeLabel) { l.FontSize = v }) })

	p.box.Add(container.NewGridWithColumns(2,
		widget.NewButton("Flip", func() { p.store.FlipEdge(id) }),
		widget.NewButton("Delete edge", func() { p.store.DeleteEdge(id) }),
	))
}
