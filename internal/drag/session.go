/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag implements pointer-driven node moves and edge endpoint drags.
//
// Every drag runs inside a session owned by a Tracker. A Tracker allows one
// session at a time across all controllers that share it: beginning a new
// session force-ends the previous one, and a session's end callback runs
// exactly once however the session terminates.
package drag

import (
	"log/slog"

	"flowcanvas/internal/geometry"
	applog "flowcanvas/internal/log"
)

// Source is the input device that started a session. Only events from the
// same source are routed to it.
type Source int

const (
	Mouse Source = iota
	Touch
)

func (s Source) String() string {
	if s == Touch {
		return "touch"
	}
	return "mouse"
}

// Token identifies a session. The zero Token never names a live session.
type Token uint64

type session struct {
	token  Token
	source Source
	onMove func(geometry.Pt)
	onEnd  func()
}

// Tracker is the single drag-session owner for one canvas.
type Tracker struct {
	active    *session
	next      Token
	listeners int
	log       *slog.Logger
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{log: applog.WithComponent("drag")}
}

// listenersPerSession is the move and the end listener a session attaches.
const listenersPerSession = 2

// Begin starts a session for src. Any active session is ended first. onMove
// receives pointer positions in screen space; onEnd runs once when the
// session ends. Either callback may be nil.
func (t *Tracker) Begin(src Source, onMove func(geometry.Pt), onEnd func()) Token {
	if t.active != nil {
		t.log.Debug("force-ending previous drag session", slog.Uint64("token", uint64(t.active.token)))
		t.finish(t.active)
	}
	t.next++
	t.active = &session{token: t.next, source: src, onMove: onMove, onEnd: onEnd}
	t.listeners += listenersPerSession
	return t.next
}

// End ends the session named by tok. Stale tokens are ignored.
func (t *Tracker) End(tok Token) bool {
	if t.active == nil || t.active.token != tok {
		return false
	}
	t.finish(t.active)
	return true
}

// Cancel ends whatever session is active, for teardown paths.
func (t *Tracker) Cancel() {
	if t.active != nil {
		t.finish(t.active)
	}
}

// Move routes a pointer move from src to the active session. If the move
// handler panics the session is ended before the panic propagates.
func (t *Tracker) Move(src Source, p geometry.Pt) bool {
	s := t.active
	if s == nil || s.source != src {
		return false
	}
	if s.onMove == nil {
		return true
	}
	done := false
	defer func() {
		if !done && t.active == s {
			t.finish(s)
		}
	}()
	s.onMove(p)
	done = true
	return true
}

// Release routes a pointer up, touch end or touch cancel from src.
func (t *Tracker) Release(src Source) bool {
	s := t.active
	if s == nil || s.source != src {
		return false
	}
	t.finish(s)
	return true
}

// Active reports whether a session is running and returns its token.
func (t *Tracker) Active() (Token, bool) {
	if t.active == nil {
		return 0, false
	}
	return t.active.token, true
}

// Listeners is the number of attached global listeners; zero when idle.
func (t *Tracker) Listeners() int { return t.listeners }

// finish detaches s before running its end callback so that re-entrant
// calls to End from inside onEnd are harmless.
func (t *Tracker) finish(s *session) {
	if t.active != s {
		return
	}
	t.active = nil
	t.listeners -= listenersPerSession
	if s.onEnd != nil {
		s.onEnd()
	}
}
