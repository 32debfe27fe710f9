/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Viewport is the canvas pan/zoom transform: screen = doc*Zoom + (X,Y).
// The JSON form matches the persisted document viewport.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is the identity transform.
var DefaultViewport = Viewport{Zoom: 1}

// Matrix returns the document->screen affine transform.
func (v Viewport) Matrix() Affine2D {
	return Translate(v.X, v.Y).Mul(Scale(v.zoom(), v.zoom()))
}

func (v Viewport) zoom() float64 {
	if v.Zoom == 0 || !isFinite(v.Zoom) {
		return 1
	}
	return v.Zoom
}

// ToDocumentSpace maps a screen point to document space: (screen - translate) / zoom.
func ToDocumentSpace(screen Pt, v Viewport) Pt {
	z := v.zoom()
	return Pt{(screen.X - v.X) / z, (screen.Y - v.Y) / z}
}

// ToScreenSpace maps a document point to screen space: doc*zoom + translate.
func ToScreenSpace(doc Pt, v Viewport) Pt {
	z := v.zoom()
	return Pt{doc.X*z + v.X, doc.Y*z + v.Y}
}
