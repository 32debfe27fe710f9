/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists flowchart documents.
// A document lives in its own folder as flowchart.json, written transactionally with
// timestamped backups under backups/. Opening validates the file against the embedded
// JSON schema and falls back to the latest backup when the file is unreadable.
// A per-folder SQLite index at <folder>/.flowcanvas/index.sqlite serves text search over
// node content and edge labels; it is derived from flowchart.json and can be rebuilt at any time.
package storage
