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
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"flowcanvas/internal/domain"
	"flowcanvas/internal/storage"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("version conflict")
)

// Summary is the list projection of a stored document.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
}

// Record is a stored document with its server-side metadata.
type Record struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Owner     string          `json:"owner"`
	Document  domain.Document `json:"document"`
}

// Repository stores documents for the HTTP server.
//
// Put with ifVersion 0 creates or overwrites. A positive ifVersion must equal
// the stored version or the put fails with ErrConflict (ErrNotFound when the
// document does not exist). Every successful put increments the version.
type Repository interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, doc domain.Document, owner string, ifVersion int64) (Record, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, id string, q storage.SearchQuery) ([]storage.SearchResult, error)
}

// MemoryRepository keeps documents in process memory. It backs `serve --memory`
// and the handler tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]Record
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: map[string]Record{}, now: time.Now}
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }

func (m *MemoryRepository) List(context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.docs))
	for _, r := range m.docs {
		out = append(out, summarize(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func summarize(r Record) Summary {
	return Summary{
		ID: r.ID, Title: r.Document.Title, Version: r.Version, UpdatedAt: r.UpdatedAt,
		Nodes: len(r.Document.Nodes), Edges: len(r.Document.Edges),
	}
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.docs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepository) Put(_ context.Context, doc domain.Document, owner string, ifVersion int64) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.docs[doc.ID]
	if ifVersion > 0 {
		if !exists {
			return Record{}, ErrNotFound
		}
		if cur.Version != ifVersion {
			return Record{}, ErrConflict
		}
	}
	r := Record{ID: doc.ID, Version: cur.Version + 1, UpdatedAt: m.now().UTC(), Owner: owner, Document: doc}
	m.docs[doc.ID] = r
	return r, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// Search matches items containing every whitespace-separated term,
// case-insensitively. It does not understand FTS operators.
func (m *MemoryRepository) Search(_ context.Context, id string, q storage.SearchQuery) ([]storage.SearchResult, error) {
	m.mu.RLock()
	r, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	terms := strings.Fields(strings.ToLower(q.Text))
	var out []storage.SearchResult
	for i, it := range storage.Items(r.Document) {
		if len(q.Types) > 0 && !contains(q.Types, it.Type) {
			continue
		}
		lower := strings.ToLower(it.Text)
		match := true
		for _, t := range terms {
			if !strings.Contains(lower, t) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		res := storage.SearchResult{DocID: int64(i + 1), Type: it.Type, ItemID: it.ItemID}
		if len(terms) > 0 {
			res.Snippet = highlight(it.Text, terms[0])
		}
		out = append(out, res)
	}
	return page(out, q.Limit, q.Offset), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// highlight brackets the first case-insensitive occurrence of term.
func highlight(text, term string) string {
	i := strings.Index(strings.ToLower(text), term)
	if i < 0 || i+len(term) > len(text) {
		return text
	}
	return text[:i] + "[" + text[i:i+len(term)] + "]" + text[i+len(term):]
}

func page(in []storage.SearchResult, limit, offset int) []storage.SearchResult {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if len(in) > limit {
		in = in[:limit]
	}
	return in
}
