/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stylefield

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// RGB is an opaque colour.
type RGB struct {
	R, G, B uint8
}

// RGBA converts to the image/color representation.
func (c RGB) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff} }

var partialHex = regexp.MustCompile(`^#[0-9A-Fa-f]{0,6}$`)

// ValidPartialHex reports whether s is acceptable while the user is still
// typing a colour ("#", "#ff", "#ff00aa").
func ValidPartialHex(s string) bool { return partialHex.MatchString(s) }

// ParseHex parses "#rrggbb", "rrggbb" or the short "#rgb" form. On failure it
// returns black and false.
func ParseHex(s string) (RGB, bool) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// MustHex is ParseHex with a fallback colour for unparseable input.
func MustHex(s string, fallback RGB) RGB {
	if c, ok := ParseHex(s); ok {
		return c
	}
	return fallback
}

// FormatHex renders c as lower-case "#rrggbb".
func FormatHex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
