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
	"strings"
)

// SearchQuery describes a text search over a document.
// Text uses SQLite FTS5 syntax (terms, quoted phrases, AND/OR/NOT). Types
// restricts results to item types (ItemNode, ItemEdgeLabel, ItemTitle).
// Limit defaults to 100.
type SearchQuery struct {
	Text   string
	Types  []string
	Limit  int
	Offset int
}

// SearchResult is a single matching item. Snippet marks the hit with [ ] when
// Text was given.
type SearchResult struct {
	DocID   int64
	Type    string
	ItemID  string
	Snippet string
}

// Search runs q against the index of the document in root. An empty Text lists
// items in index order with the type filter applied.
func Search(ctx context.Context, root string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("document root is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT i.doc_id, i.type, i.item_id, snippet(fts_items, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_items JOIN items i ON fts_items.rowid = i.doc_id\n")
		sb.WriteString("WHERE fts_items MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT i.doc_id, i.type, i.item_id, ''\n")
		sb.WriteString("FROM items i\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND i.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY i.doc_id\nLIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.ItemID, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Link is an indexed edge. From or To is empty when that end is a free point.
type Link struct {
	EdgeID string
	From   string
	To     string
}

// Connections returns the indexed edges with nodeID at either end, ordered by
// edge id.
func Connections(ctx context.Context, root, nodeID string) ([]Link, error) {
	if strings.TrimSpace(nodeID) == "" {
		return nil, errors.New("node id is required")
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT edge_id, COALESCE(from_item,''), COALESCE(to_item,'')
		FROM links WHERE from_item = ? OR to_item = ?
		ORDER BY edge_id`, nodeID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("connections query: %w", err)
	}
	defer rows.Close()
	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.EdgeID, &l.From, &l.To); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
