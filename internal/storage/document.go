/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"flowcanvas/internal/domain"
	applog "flowcanvas/internal/log"
)

const (
	DocFileName    = "flowchart.json"
	BackupsDirName = "backups"
	ExportsDirName = "exports"

	// crashPrefix names autosave files written by AutosaveCrashSnapshot.
	crashPrefix = "crash-autosave"
)

var standardSubDirs = []string{
	BackupsDirName,
	ExportsDirName,
}

// DocHandle ties an in-memory document to the folder it was loaded from.
// Root is the document folder, Path the flowchart.json inside it.
type DocHandle struct {
	Root string
	Path string
	Doc  domain.Document
}

// Init creates a document folder at root (creating it if needed), scaffolds the
// standard subfolders and writes doc transactionally.
func Init(root string, doc domain.Document) (*DocHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	h := &DocHandle{Root: root, Path: filepath.Join(root, DocFileName), Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create document root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads the document stored in root. When flowchart.json cannot be read,
// parsed or validated, the latest backup is tried before giving up.
func Open(root string) (*DocHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("root", root))
	path := filepath.Join(root, DocFileName)
	b, err := os.ReadFile(path)
	if err == nil {
		var doc domain.Document
		doc, err = Decode(b)
		if err == nil {
			return &DocHandle{Root: root, Path: path, Doc: doc}, nil
		}
	}
	l.Warn("document unusable, trying backup", slog.Any("err", err))
	doc, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
	}
	l.Info("document restored from backup")
	return &DocHandle{Root: root, Path: path, Doc: *doc}, nil
}

// Decode validates data against the document schema and unmarshals it.
// Schema violations are reported as ErrSchema.
func Decode(data []byte) (domain.Document, error) {
	var doc domain.Document
	if err := Validate(data); err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Encode renders doc in the on-disk form: indented JSON with a trailing newline.
func Encode(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// ReadDocument decodes a standalone document file, e.g. an import.
func ReadDocument(r io.Reader) (domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read document: %w", err)
	}
	return Decode(data)
}

// Save writes h.Doc to disk with transactional semantics, keeping a timestamped
// backup of the previous file. The search index is refreshed afterwards; index
// failures are logged and do not fail the save.
func Save(h *DocHandle) error {
	if h == nil {
		return errors.New("nil DocHandle")
	}
	if h.Root == "" || h.Path == "" {
		return errors.New("invalid DocHandle: missing paths")
	}
	data, err := Encode(h.Doc)
	if err != nil {
		return err
	}

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.Path); statErr == nil {
		bpath := filepath.Join(bdir, backupName(time.Now()))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", DocFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := UpdateIndex(ctx, h.Root, h.Doc); err != nil {
		applog.WithComponent("storage").Warn("index update failed", slog.String("root", h.Root), slog.Any("err", err))
	}
	return nil
}

// SaveAs moves the handle to newRoot, scaffolding it if needed, and saves there.
func SaveAs(h *DocHandle, newRoot string) error {
	if h == nil {
		return errors.New("nil DocHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	h.Root = newRoot
	h.Path = filepath.Join(newRoot, DocFileName)
	return Save(h)
}

// AutosaveCrashSnapshot writes h.Doc next to the backups without touching
// flowchart.json, and returns the path written. It is used from panic recovery,
// so it skips the index and keeps the work minimal.
func AutosaveCrashSnapshot(h *DocHandle) (string, error) {
	if h == nil || h.Root == "" {
		return "", errors.New("invalid DocHandle")
	}
	data, err := Encode(h.Doc)
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s-%s.json", crashPrefix, time.Now().Format("20060102-150405")))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// Backups lists backup files of root's document, oldest first.
func Backups(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, DocFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	// the timestamp in the name sorts lexicographically
	sort.Strings(out)
	return out, nil
}

// backupName includes milliseconds so that two saves within one second keep
// separate backups.
func backupName(t time.Time) string {
	return fmt.Sprintf("%s.%s.bak", DocFileName, t.Format("20060102-150405.000"))
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup walks the backups newest first and returns the first one
// that decodes.
func openFromLatestBackup(root string) (*domain.Document, error) {
	candidates, err := Backups(root)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = fmt.Errorf("read backup: %w", err)
			continue
		}
		doc, err := Decode(b)
		if err != nil {
			lastErr = fmt.Errorf("parse backup %s: %w", filepath.Base(candidates[i]), err)
			continue
		}
		return &doc, nil
	}
	return nil, lastErr
}
