/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flowcanvas/internal/domain"
	"flowcanvas/internal/storage"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// Client talks to a document server.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient normalizes baseURL (trailing slash dropped). A non-positive timeout
// means 10s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends body (JSON-encoded unless it is already []byte) and decodes the
// response into dest when dest is non-nil.
func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, body any, dest any) error {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	var base error
	switch resp.StatusCode {
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	default:
		base = errors.New(resp.Status)
	}
	if body.Error != "" {
		return fmt.Errorf("server %s %s: %w: %s", method, path, base, body.Error)
	}
	return fmt.Errorf("server %s %s: %w", method, path, base)
}

// RequestToken asks the server for a bearer token and stores it on the client.
func (c *Client) RequestToken(ctx context.Context, subject, key string, ttl time.Duration) (string, time.Time, error) {
	req := tokenRequest{Subject: subject, TTLSeconds: int64(ttl / time.Second), Key: key}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", nil, req, &resp); err != nil {
		return "", time.Time{}, err
	}
	c.Token = resp.Token
	return resp.Token, resp.ExpiresAt, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]Summary, error) {
	var list []Summary
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutDocument uploads doc. A positive ifVersion is sent as If-Match.
func (c *Client) PutDocument(ctx context.Context, doc domain.Document, ifVersion int64) (*Record, error) {
	data, err := storage.Encode(doc)
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	if ifVersion > 0 {
		hdr.Set("If-Match", strconv.FormatInt(ifVersion, 10))
	}
	var rec Record
	if err := c.do(ctx, http.MethodPut, "/api/documents/"+url.PathEscape(doc.ID), hdr, data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Search(ctx context.Context, id string, q storage.SearchQuery) ([]storage.SearchResult, error) {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	for _, t := range q.Types {
		v.Add("type", t)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/api/documents/" + url.PathEscape(id) + "/search"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	var res []storage.SearchResult
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}
