/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"flowcanvas/internal/domain"
	"flowcanvas/internal/storage"
)

// OpenPG connects to Postgres through the pgx stdlib driver, pings it and
// applies the embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// PGRepository stores documents as JSONB with a tsvector item table for search.
type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository { return &PGRepository{db: db} }

func (p *PGRepository) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PGRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, title, version, updated_at,
		CASE WHEN jsonb_typeof(body->'nodes') = 'array' THEN jsonb_array_length(body->'nodes') ELSE 0 END,
		CASE WHEN jsonb_typeof(body->'edges') = 'array' THEN jsonb_array_length(body->'edges') ELSE 0 END
		FROM documents ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.Version, &s.UpdatedAt, &s.Nodes, &s.Edges); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PGRepository) Get(ctx context.Context, id string) (Record, error) {
	r := Record{ID: id}
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT version, updated_at, owner, body FROM documents WHERE id = $1`, id).
		Scan(&r.Version, &r.UpdatedAt, &r.Owner, &body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Record{}, ErrNotFound
	case err != nil:
		return Record{}, fmt.Errorf("get document: %w", err)
	}
	if err := json.Unmarshal(body, &r.Document); err != nil {
		return Record{}, fmt.Errorf("decode document body: %w", err)
	}
	return r, nil
}

func (p *PGRepository) Put(ctx context.Context, doc domain.Document, owner string, ifVersion int64) (Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("marshal document: %w", err)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = $1 FOR UPDATE`, doc.ID).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("lock document: %w", err)
	}
	if ifVersion > 0 {
		if cur == 0 {
			return Record{}, ErrNotFound
		}
		if cur != ifVersion {
			return Record{}, ErrConflict
		}
	}
	r := Record{ID: doc.ID, Version: cur + 1, Owner: owner, Document: doc}
	err = tx.QueryRowContext(ctx, `INSERT INTO documents (id, title, body, version, owner)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body,
			version = EXCLUDED.version, owner = EXCLUDED.owner, updated_at = now()
		RETURNING updated_at`, doc.ID, doc.Title, string(body), r.Version, owner).Scan(&r.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("upsert document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_items WHERE doc_id = $1`, doc.ID); err != nil {
		return Record{}, fmt.Errorf("clear items: %w", err)
	}
	for _, it := range storage.Items(doc) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO doc_items (doc_id, item_type, item_id, raw_text) VALUES ($1, $2, $3, $4)`,
			doc.ID, it.Type, it.ItemID, it.Text); err != nil {
			return Record{}, fmt.Errorf("insert item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit put: %w", err)
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (p *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGRepository) Search(ctx context.Context, id string, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return SearchPG(ctx, p.db, id, q)
}

// pingTimeout bounds readiness probes.
const pingTimeout = 2 * time.Second
