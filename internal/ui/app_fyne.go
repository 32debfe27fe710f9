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
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	flow "flowcanvas/internal/canvas"
	"flowcanvas/internal/config"
	"flowcanvas/internal/crash"
	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/export"
	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/storage"
	"flowcanvas/internal/telemetry"
)

// session is one open document with its widgets.
type session struct {
	h        *storage.DocHandle // nil until the document is saved to a folder
	store    *document.Store
	fc       *FlowCanvas
	panel    *stylePanel
	savedRev uint64
}

func (s *session) dirty() bool { return s.store.Revision() != s.savedRev }

func (s *session) close() {
	s.panel.Close()
	s.fc.Close()
}

// Run starts the desktop editor. docDir, when set, is opened immediately;
// otherwise the sample flowchart is shown.
func Run(docDir string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	opts := flow.OptionsFrom(cfg.Canvas)

	var cur *session
	defer crash.Recover(func() *storage.DocHandle {
		if cur == nil || cur.h == nil {
			return nil
		}
		cur.h.Doc = cur.store.Document()
		return cur.h
	})

	fyneApp := app.NewWithID("flowcanvas")
	w := fyneApp.NewWindow("FlowCanvas")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	root := container.NewStack()

	setTitle := func() {
		t := cur.store.Title()
		if t == "" {
			t = "Untitled"
		}
		if cur.dirty() {
			t += " *"
		}
		w.SetTitle(t + " - FlowCanvas")
	}

	show := func(doc domain.Document, h *storage.DocHandle) {
		if cur != nil {
			cur.close()
		}
		store := document.New(doc)
		fc := NewFlowCanvas(flow.New(store, opts))
		s := &session{h: h, store: store, fc: fc, panel: newStylePanel(store, w), savedRev: store.Revision()}
		cur = s
		fc.OnChange = setTitle
		fc.OnEdit = func(id, content string) {
			entry := widget.NewMultiLineEntry()
			entry.SetText(content)
			dialog.ShowForm("Edit node", "Save", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
				if ok {
					s.fc.Canvas().CommitEdit(entry.Text)
				} else {
					s.fc.Canvas().CommitEdit(content)
				}
			}, w)
		}
		store.Subscribe(func(document.Event) { setTitle() })
		split := container.NewHSplit(fc, s.panel.Object())
		split.Offset = 0.75
		root.Objects = []fyne.CanvasObject{split}
		root.Refresh()
		setTitle()
	}

	open := func(dir string) {
		abs, _ := filepath.Abs(dir)
		h, err := storage.Open(abs)
		if err != nil {
			l.Error("open failed", slog.String("root", abs), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		show(h.Doc, h)
		addRecentDocument(prefs, abs)
		status.SetText("Opened " + abs)
		telemetry.Event(telemetry.EvDocumentOpened, map[string]any{"nodes": len(h.Doc.Nodes), "edges": len(h.Doc.Edges)})
	}

	save := func(done func()) {
		write := func(h *storage.DocHandle) {
			h.Doc = cur.store.Document()
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			cur.h = h
			cur.savedRev = cur.store.Revision()
			setTitle()
			status.SetText("Saved " + h.Path)
			telemetry.Event(telemetry.EvDocumentSaved, nil)
			if done != nil {
				done()
			}
		}
		if cur.h != nil {
			write(cur.h)
			return
		}
		dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
			if err != nil || u == nil {
				return
			}
			h, err := storage.Init(u.Path(), cur.store.Document())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			addRecentDocument(prefs, h.Root)
			write(h)
		}, w)
	}

	exportAs := func(f export.Format) {
		if cur.h == nil {
			dialog.ShowInformation("Export", "Save the document to a folder first.", w)
			return
		}
		h := *cur.h
		h.Doc = cur.store.Document()
		path, err := export.ToFile(&h, "", f, export.Options{})
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported " + path)
		telemetry.Event(telemetry.EvExported, map[string]any{"format": string(f)})
	}

	newItem := fyne.NewMenuItem("New", func() {
		show(document.NewEmpty("Untitled").Document(), nil)
		status.SetText("New document")
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
			if err != nil || u == nil {
				return
			}
			open(u.Path())
		}, w)
	})
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	refreshRecent := func() {
		var items []*fyne.MenuItem
		for _, p := range loadRecentDocuments(prefs) {
			items = append(items, fyne.NewMenuItem(p, func() { open(p) }))
		}
		recentItem.ChildMenu = fyne.NewMenu("", items...)
		recentItem.Disabled = len(items) == 0
	}
	refreshRecent()
	saveItem := fyne.NewMenuItem("Save", func() { save(refreshRecent) })
	exportItem := fyne.NewMenuItem("Export", nil)
	var exportItems []*fyne.MenuItem
	for _, f := range export.Formats {
		exportItems = append(exportItems, fyne.NewMenuItem(strings.ToUpper(string(f)), func() { exportAs(f) }))
	}
	exportItem.ChildMenu = fyne.NewMenu("", exportItems...)

	addItem := fyne.NewMenuItem("Add Node", func() {
		c := cur.fc.Canvas()
		s := cur.fc.Size()
		at := c.Viewport().ToDocument(flowCentre(s))
		id := cur.store.AddNode(domain.Node{Position: at, Content: "New node"})
		c.Selection().SelectNode(id)
	})
	deleteItem := fyne.NewMenuItem("Delete", func() { cur.fc.Canvas().DeleteSelection() })
	zoomIn := fyne.NewMenuItem("Zoom In", func() { cur.fc.Canvas().ZoomIn(); cur.fc.Refresh() })
	zoomOut := fyne.NewMenuItem("Zoom Out", func() { cur.fc.Canvas().ZoomOut(); cur.fc.Refresh() })
	fitItem := fyne.NewMenuItem("Fit", func() { cur.fc.Fit() })
	resetItem := fyne.NewMenuItem("Actual Size", func() { cur.fc.Canvas().Viewport().Reset(); cur.fc.Refresh() })

	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	zoomIn.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyEqual, Modifier: fyne.KeyModifierShortcutDefault}
	zoomOut.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyMinus, Modifier: fyne.KeyModifierShortcutDefault}
	for _, it := range []*fyne.MenuItem{newItem, openItem, saveItem, zoomIn, zoomOut} {
		w.Canvas().AddShortcut(it.Shortcut, func(fyne.Shortcut) { it.Action() })
	}

	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(), saveItem, exportItem),
		fyne.NewMenu("Edit", addItem, deleteItem),
		fyne.NewMenu("View", zoomIn, zoomOut, fitItem, resetItem),
	))

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if w.Canvas().Focused() != nil {
			return
		}
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			cur.fc.Canvas().DeleteSelection()
		case fyne.KeyEscape:
			cur.fc.Canvas().Selection().Clear()
		}
	})

	if docDir != "" {
		open(docDir)
	}
	if cur == nil {
		show(document.Sample(), nil)
	}

	stop := make(chan struct{})
	if cfg.General.AutosaveSec > 0 {
		go autosave(time.Duration(cfg.General.AutosaveSec)*time.Second, stop, func() {
			fyne.Do(func() {
				if cur != nil && cur.h != nil && cur.dirty() {
					save(nil)
				}
			})
		})
	}

	w.SetCloseIntercept(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
		if cur == nil || !cur.dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save before closing?", func(yes bool) {
			if !yes {
				w.Close()
				return
			}
			save(w.Close)
		}, w)
	})

	w.SetContent(container.NewBorder(nil, status, nil, nil, root))
	telemetry.Event(telemetry.EvUIStarted, nil)
	w.ShowAndRun()
	close(stop)
	if cur != nil {
		cur.close()
	}
	l.Info("UI closed")
	return nil
}

func flowCentre(s fyne.Size) geometry.Pt {
	return geometry.Pt{X: float64(s.Width) / 2, Y: float64(s.Height) / 2}
}

func autosave(every time.Duration, stop <-chan struct{}, tick func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			tick()
		}
	}
}

// Recent documents live in the app preferences as a JSON list, newest first.
const (
	recentPrefsKey = "recent.documents"
	recentMax      = 10
)

func loadRecentDocuments(p fyne.Preferences) []string {
	var items []string
	if raw := p.StringWithFallback(recentPrefsKey, ""); strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, err := os.Stat(filepath.Join(s, storage.DocFileName)); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func addRecentDocument(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	out := []string{abs}
	for _, s := range loadRecentDocuments(p) {
		if !strings.EqualFold(s, abs) {
			out = append(out, s)
		}
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	b, err := json.Marshal(out)
	if err != nil {
		return
	}
	p.SetString(recentPrefsKey, string(b))
}

