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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flowcanvas/internal/domain"
	applog "flowcanvas/internal/log"
	"flowcanvas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds disposable per-document data under the document root.
	IndexDirName  = ".flowcanvas"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the SQLite layout. Bump it together with a new
	// step in runMigrations.
	schemaVersion = 3
)

// Item types stored in the index.
const (
	ItemTitle     = "title"
	ItemNode      = "node"
	ItemEdgeLabel = "edge_label"
)

// IndexPath returns the index database file of the document in root.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex opens (creating if needed) the index of the document in root,
// enables WAL and brings the schema up to date.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("document root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	path := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at the base layout and migrates forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema so runMigrations can see where it starts
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// migrations holds the statements that take the schema from step-1 to step.
var migrations = map[int][]string{
	2: {
		`CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);`,
		`CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_item);`,
	},
	// fts_items reads its text from items so snippet() has something to quote
	3: {
		`DROP TABLE IF EXISTS fts_items;`,
		createFTS,
		`INSERT INTO fts_items(fts_items) VALUES('rebuild');`,
	},
}

const createFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS fts_items USING fts5(
	text,
	content='items',
	content_rowid='doc_id',
	tokenize = 'unicode61'
);`

// runMigrations applies schema steps up to schemaVersion. Newer databases are
// left alone.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		if err := migrateStep(ctx, db, next, migrations[next]); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func migrateStep(ctx context.Context, db *sql.DB, next int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", next, err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d stmt failed: %w", next, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d update version: %w", next, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d commit: %w", next, err)
	}
	return nil
}

// ensureIndexSchema creates the item table, its external-content FTS5 index and
// the edge link table.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// one row per searchable piece of text: the title, each node, each edge label
		`CREATE TABLE IF NOT EXISTS items (
			doc_id  INTEGER PRIMARY KEY,
			type    TEXT NOT NULL,
			item_id TEXT NOT NULL,
			text    TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_items_type_item ON items(type, item_id);`,
		createFTS,
		// node-to-node connections, used by Neighbours
		`CREATE TABLE IF NOT EXISTS links (
			edge_id   TEXT PRIMARY KEY,
			from_item TEXT,
			to_item   TEXT
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
			INSERT INTO fts_items(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
			INSERT INTO fts_items(fts_items, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE OF text ON items BEGIN
			INSERT INTO fts_items(fts_items, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_items(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex rebuilds the index when it cannot be opened, fails
// quick_check or lacks the item table. It reports whether a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, root string, doc domain.Document) (bool, error) {
	path := IndexPath(root)
	db, err := InitOrOpenIndex(root)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, root, doc); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM items LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, root, doc); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the index into a timestamped file under <index dir>/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty populates the index from doc unless it already has items.
func BuildIndexIfEmpty(ctx context.Context, root string, doc domain.Document) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items;").Scan(&cnt); err != nil {
		return fmt.Errorf("check items count: %w", err)
	}
	if cnt > 0 {
		return nil
	}
	return replaceItems(ctx, db, doc)
}

// UpdateIndex replaces the indexed items with the content of doc.
func UpdateIndex(ctx context.Context, root string, doc domain.Document) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	return replaceItems(ctx, db, doc)
}

// RebuildIndex drops the derived tables, recreates them and repopulates from
// doc. meta and version survive.
func RebuildIndex(ctx context.Context, root string, doc domain.Document) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TRIGGER IF EXISTS items_ai;",
		"DROP TRIGGER IF EXISTS items_ad;",
		"DROP TRIGGER IF EXISTS items_au;",
		"DROP TABLE IF EXISTS links;",
		"DROP TABLE IF EXISTS items;",
		"DROP TABLE IF EXISTS fts_items;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	// dropped tables took their indexes with them
	for step := 2; step <= schemaVersion; step++ {
		for _, q := range migrations[step] {
			if _, err := db.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("recreate indexes: %w", err)
			}
		}
	}
	return replaceItems(ctx, db, doc)
}

// Item is one searchable piece of a document.
type Item struct {
	Type   string
	ItemID string
	Text   string
}

// Items flattens doc into searchable items in document order: the title, then
// node contents, then edge labels. Blank texts are skipped.
func Items(doc domain.Document) []Item {
	out := make([]Item, 0, len(doc.Nodes)+len(doc.Edges)+1)
	if s := strings.TrimSpace(doc.Title); s != "" {
		out = append(out, Item{Type: ItemTitle, ItemID: doc.ID, Text: s})
	}
	for _, n := range doc.Nodes {
		if s := strings.TrimSpace(n.Content); s != "" {
			out = append(out, Item{Type: ItemNode, ItemID: n.ID, Text: s})
		}
	}
	for _, e := range doc.Edges {
		if e.Label == nil {
			continue
		}
		if s := strings.TrimSpace(e.Label.Text); s != "" {
			out = append(out, Item{Type: ItemEdgeLabel, ItemID: e.ID, Text: s})
		}
	}
	return out
}

func replaceItems(ctx context.Context, db *sql.DB, doc domain.Document) error {
	items := Items(doc)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{"DELETE FROM items;", "DELETE FROM links;"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear index: %w", err)
		}
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO items(type, item_id, text) VALUES(?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, it := range items {
		if _, err := ins.ExecContext(ctx, it.Type, it.ItemID, it.Text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert item: %w", err)
		}
	}
	link, err := tx.PrepareContext(ctx, "INSERT INTO links(edge_id, from_item, to_item) VALUES(?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare link: %w", err)
	}
	defer link.Close()
	for _, e := range doc.Edges {
		if _, err := link.ExecContext(ctx, e.ID, nullable(e.From.NodeID), nullable(e.To.NodeID)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert link: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
