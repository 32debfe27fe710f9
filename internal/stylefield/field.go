/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylefield models numeric style inputs as explicit state machines
// and holds the value ranges the editor enforces.
package stylefield

import (
	"math"
	"strconv"
	"strings"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min, Max float64
}

// Clamp pins v into the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Ranges enforced on style values.
var (
	EdgeWidth     = Range{Min: 1, Max: 10}
	LabelPosition = Range{Min: 0, Max: 1}
	LabelFontSize = Range{Min: 8, Max: 72}
	NodeFontSize  = Range{Min: 8, Max: 72}
	BorderWidth   = Range{Min: 1, Max: 10}
	BorderRadius  = Range{Min: 0, Max: 50}
)

// Commit parses text and clamps it into r. ok is false when text is not a
// finite number; the caller must then revert to its committed value.
func Commit(text string, r Range) (v float64, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return r.Clamp(v), true
}

// Format renders v the way a field displays it.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Field is one numeric input bound to a store value.
//
// Typing only changes Displayed. Blur or Enter commits through Commit and
// hands the clamped value to the sink; a parse failure reverts Displayed to
// Committed. While the field is not focused, Sync follows the store. Close
// flushes a value that was typed but never committed.
type Field struct {
	Range     Range
	Displayed string
	Committed float64
	Focused   bool

	pending bool
	sink    func(float64)
}

// NewField creates an unfocused field showing value. sink receives every
// committed value and may be nil.
func NewField(r Range, value float64, sink func(float64)) *Field {
	return &Field{Range: r, Displayed: Format(value), Committed: value, sink: sink}
}

// Focus marks the field as being edited; Sync is ignored until Blur.
func (f *Field) Focus() { f.Focused = true }

// Type replaces the displayed text.
func (f *Field) Type(text string) {
	f.Displayed = text
	f.pending = true
}

// Blur commits and leaves edit mode.
func (f *Field) Blur() (float64, bool) {
	v, ok := f.commit()
	f.Focused = false
	return v, ok
}

// Enter commits without leaving edit mode.
func (f *Field) Enter() (float64, bool) { return f.commit() }

// Sync refreshes the field from the store unless the user is editing it.
func (f *Field) Sync(store float64) {
	if f.Focused {
		return
	}
	f.Committed = store
	f.Displayed = Format(store)
	f.pending = false
}

// Close flushes a pending value. Unparseable pending text is dropped.
func (f *Field) Close() {
	if f.pending {
		f.commit()
	}
}

// Pending reports whether typed text has not been committed yet.
func (f *Field) Pending() bool { return f.pending }

func (f *Field) commit() (float64, bool) {
	f.pending = false
	v, ok := Commit(f.Displayed, f.Range)
	if !ok {
		f.Displayed = Format(f.Committed)
		return f.Committed, false
	}
	f.Committed = v
	f.Displayed = Format(v)
	if f.sink != nil {
		f.sink(v)
	}
	return v, true
}
