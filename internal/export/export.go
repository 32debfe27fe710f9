/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"flowcanvas/internal/document"
	"flowcanvas/internal/log"
	"flowcanvas/internal/storage"
)

// Format names an output encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
	PDF Format = "pdf"
)

// Formats lists the supported formats in help order.
var Formats = []Format{SVG, PNG, PDF}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want svg, png or pdf)", s)
}

// Render builds the scene of s and encodes it as f.
func Render(w io.Writer, s *document.Store, f Format, opt Options) error {
	sc, err := BuildScene(s, opt)
	if err != nil {
		return err
	}
	switch f {
	case SVG:
		return WriteSVG(w, sc)
	case PNG:
		return WritePNG(w, sc, opt)
	case PDF:
		return WritePDF(w, sc)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// ToFile renders into outPath. A relative path lands under the document's
// exports folder; an empty path uses "<doc id>.<format>".
func ToFile(h *storage.DocHandle, outPath string, f Format, opt Options) (string, error) {
	if h == nil {
		return "", fmt.Errorf("document handle is nil")
	}
	if outPath == "" {
		outPath = h.Doc.ID + "." + string(f)
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(h.Root, storage.ExportsDirName, outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Render(&buf, document.New(h.Doc), f, opt); err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", f, err)
	}
	log.WithComponent("export").Info("exported", "format", string(f), "path", outPath, "bytes", buf.Len())
	return outPath, nil
}

var writeClipboard = clipboard.WriteAll

// ToClipboard copies the SVG rendering of s to the system clipboard.
func ToClipboard(s *document.Store, opt Options) error {
	var buf bytes.Buffer
	if err := Render(&buf, s, SVG, opt); err != nil {
		return err
	}
	if err := writeClipboard(buf.String()); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
