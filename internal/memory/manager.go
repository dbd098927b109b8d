// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memory keeps per-session conversation state: a bounded ring of
// prior turns plus accumulated session facts. State lives in memory only;
// completed sessions can be exported through the transcript archiver.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// Transcript is an exportable copy of one session.
type Transcript struct {
	SessionID string            `json:"session_id"`
	Turns     []prompt.Message  `json:"turns"`
	Facts     map[string]string `json:"facts,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type session struct {
	turns     []prompt.Message
	facts     map[string]string
	updatedAt time.Time
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	maxTurns int
	ttl      time.Duration
}

// NewManager creates a manager keeping at most maxTurns messages per
// session and evicting sessions idle longer than ttl.
func NewManager(maxTurns int, ttl time.Duration) *Manager {
	if maxTurns <= 0 {
		maxTurns = 80
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		ttl:      ttl,
	}
}

func (m *Manager) get(id string) *session {
	s, ok := m.sessions[id]
	if !ok {
		s = &session{facts: make(map[string]string)}
		m.sessions[id] = s
	}
	return s
}

// Append records one exchange on the session.
func (m *Manager) Append(sessionID, userMsg, assistantMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(sessionID)
	s.turns = append(s.turns,
		prompt.Message{Role: "user", Content: userMsg},
		prompt.Message{Role: "assistant", Content: assistantMsg},
	)
	if len(s.turns) > m.maxTurns {
		s.turns = s.turns[len(s.turns)-m.maxTurns:]
	}
	s.updatedAt = time.Now()
}

// History returns a copy of the session's turns, oldest first.
func (m *Manager) History(sessionID string) []prompt.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]prompt.Message, len(s.turns))
	copy(out, s.turns)
	return out
}

// SetFact stores one session fact.
func (m *Manager) SetFact(sessionID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.get(sessionID)
	s.facts[key] = value
	s.updatedAt = time.Now()
}

// Facts returns a copy of the session's facts.
func (m *Manager) Facts(sessionID string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok || len(s.facts) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.facts))
	for k, v := range s.facts {
		out[k] = v
	}
	return out
}

// Transcript exports a copy of the session for archiving. The second
// return value is false when the session does not exist.
func (m *Manager) Transcript(sessionID string) (Transcript, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Transcript{}, false
	}

	t := Transcript{
		SessionID: sessionID,
		Turns:     make([]prompt.Message, len(s.turns)),
		UpdatedAt: s.updatedAt,
	}
	copy(t.Turns, s.turns)
	if len(s.facts) > 0 {
		t.Facts = make(map[string]string, len(s.facts))
		for k, v := range s.facts {
			t.Facts[k] = v
		}
	}
	return t, true
}

// Sweep evicts idle sessions every ttl/2 until the context is cancelled.
func (m *Manager) Sweep(ctx context.Context) {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, s := range m.sessions {
				if now.Sub(s.updatedAt) > m.ttl {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
