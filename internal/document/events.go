/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

// EventKind classifies store notifications.
type EventKind int

const (
	EventNode EventKind = iota + 1
	EventEdge
	EventSelection
	EventDrag
	EventDocument
)

// Event is delivered to subscribers after a change has been applied.
type Event struct {
	Kind    EventKind
	ID      string
	Deleted bool
}

// Subscribe registers fn for every change and returns a function that
// removes it. Callbacks run synchronously and must not subscribe or
// unsubscribe from within the callback.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.onEvent = append(s.onEvent, fn)
	idx := len(s.onEvent) - 1
	done := false
	return func() {
		if done {
			return
		}
		done = true
		s.onEvent[idx] = func(Event) {}
	}
}
