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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flowcanvas/internal/document"

	_ "modernc.org/sqlite"
)

func openRaw(t *testing.T, root string) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(IndexPath(root)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIndexInitCreatesWALAndTables(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root, document.Sample()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
	db := openRaw(t, root)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','items','fts_items','links')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 5 {
		t.Fatalf("expected 5 tables, got %d", cnt)
	}
	var schema int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema=%d want %d", schema, schemaVersion)
	}
	// title + 6 nodes + 3 labels
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&cnt); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if cnt != 10 {
		t.Fatalf("expected 10 items, got %d", cnt)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO items(doc_id, type, item_id, text) VALUES(10001,'node','extra','hello world');`); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	var fts int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fts_items WHERE fts_items MATCH 'hello'").Scan(&fts); err != nil {
		t.Fatalf("fts query: %v", err)
	}
	if fts == 0 {
		t.Fatalf("expected FTS trigger to index inserted item")
	}
}

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	doc := document.Sample()
	if _, err := Init(root, doc); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := os.WriteFile(IndexPath(root), []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, doc)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	res, err := Search(ctx, root, SearchQuery{Text: "Start"})
	if err != nil || len(res) != 1 || res[0].ItemID != "node_start" {
		t.Fatalf("search after rebuild: %v %+v", err, res)
	}
	entries, _ := os.ReadDir(filepath.Join(root, IndexDirName, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected index backup file")
	}
}

func TestDetectAndRebuildIndex_HealthyIsLeftAlone(t *testing.T) {
	root := t.TempDir()
	doc := document.Sample()
	if _, err := Init(root, doc); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(context.Background(), root, doc)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}

func TestBuildIndexIfEmptyKeepsExistingItems(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	doc := document.Sample()
	if err := BuildIndexIfEmpty(ctx, root, doc); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	doc.Nodes[0].Content = "Begin"
	if err := BuildIndexIfEmpty(ctx, root, doc); err != nil {
		t.Fatalf("BuildIndexIfEmpty second: %v", err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "Begin"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("populated index should not be rebuilt, got %+v", res)
	}
	if err := RebuildIndex(ctx, root, doc); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	res, err = Search(ctx, root, SearchQuery{Text: "Begin"})
	if err != nil || len(res) != 1 {
		t.Fatalf("expected rebuilt index to find Begin: %v %+v", err, res)
	}
}

// TestMigrations_UpgradeFromV1 seeds a base-layout database with a contentless
// FTS table and checks that opening it adds the lookup indexes and rebuilds the
// FTS table so snippets of existing rows work.
func TestMigrations_UpgradeFromV1(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Dir(IndexPath(root)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	db := openRaw(t, root)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE IF NOT EXISTS items (doc_id INTEGER PRIMARY KEY, type TEXT NOT NULL, item_id TEXT NOT NULL, text TEXT);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_items USING fts5(text, content='', tokenize='unicode61');`,
		`CREATE TABLE IF NOT EXISTS links (edge_id TEXT PRIMARY KEY, from_item TEXT, to_item TEXT);`,
		`INSERT INTO items(doc_id, type, item_id, text) VALUES(1, 'node', 'n1', 'hello world');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	mdb, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer mdb.Close()
	var schema int
	if err := mdb.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, schema)
	}
	var cnt int
	if err := mdb.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_items_type','idx_links_to')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected both indexes after migration, got %d", cnt)
	}
	var snip string
	if err := mdb.QueryRowContext(ctx, `SELECT snippet(fts_items, 0, '[', ']', '…', 10) FROM fts_items WHERE fts_items MATCH 'hello'`).Scan(&snip); err != nil {
		t.Fatalf("snippet after migration: %v", err)
	}
	if snip != "[hello] world" {
		t.Fatalf("snippet = %q", snip)
	}
}

func TestInitOrOpenIndexRequiresRoot(t *testing.T) {
	if _, err := InitOrOpenIndex(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
