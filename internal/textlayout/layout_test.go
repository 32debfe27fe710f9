/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestBasicMeasureScalesWithSize(t *testing.T) {
	w13, h13 := Measure(BasicProvider{}, "Start", 13)
	if w13 != 35 { // 5 glyphs * 7px
		t.Fatalf("width at 13px = %v, want 35", w13)
	}
	if h13 <= 0 {
		t.Fatalf("height should be positive, got %v", h13)
	}
	w26, h26 := Measure(BasicProvider{}, "Start", 26)
	if w26 != 2*w13 || h26 != 2*h13 {
		t.Fatalf("doubling size should double extents: %v,%v vs %v,%v", w26, h26, w13, h13)
	}
}

func TestLayoutWraps(t *testing.T) {
	// each glyph is 7px at 13px size; "Get User Input" = 14 glyphs = 98px
	b := Layout(BasicProvider{}, "Get User Input", 13, 60)
	if len(b.Lines) != 2 || b.Lines[0] != "Get User" || b.Lines[1] != "Input" {
		t.Fatalf("unexpected lines: %q", b.Lines)
	}
	if b.Width != 56 {
		t.Fatalf("width = %v, want 56", b.Width)
	}
}

func TestLayoutKeepsExplicitBreaksAndEmptyText(t *testing.T) {
	b := Layout(nil, "a\n\nb", 13, 0)
	if len(b.Lines) != 3 {
		t.Fatalf("want 3 lines, got %q", b.Lines)
	}
	e := Layout(nil, "", 13, 0)
	if len(e.Lines) != 1 || e.Width != 0 {
		t.Fatalf("empty text should produce one empty line: %+v", e)
	}
}

func TestGoProviderMeasures(t *testing.T) {
	p := &GoProvider{}
	if err := p.Err(); err != nil {
		t.Fatalf("embedded font: %v", err)
	}
	w, h := Measure(p, "Process Input", 14)
	if w <= 0 || h <= 0 {
		t.Fatalf("expected positive extents, got %v x %v", w, h)
	}
	w2, _ := Measure(p, "Process Input Now", 14)
	if w2 <= w {
		t.Fatalf("longer text should be wider: %v <= %v", w2, w)
	}
}
