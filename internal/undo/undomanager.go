/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps deck-level undo/redo history. Entries are whole slide
// lists; the scene is copy-on-write so holding them is cheap, but a byte
// estimate is still tracked to cap memory on large decks.
package undo

import (
	"encoding/json"
	"sync"
	"time"

	"pitchdeck/internal/domain"
)

// Snapshot is one restorable deck state.
// TS is when the snapshot was captured.
type Snapshot struct {
	Slides  []domain.Slide
	Current int
	TS      time.Time
	size    int
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxDepth limits the number of undo steps (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces states recorded within the interval into one
	// step, so a drag gesture undoes as a whole.
	MinInterval time.Duration
}

// Manager records the state before each change. It is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       []Snapshot
	redo       []Snapshot
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// Record stores prev, the state a change is about to replace. Records within
// MinInterval of the previous one keep the older state and only extend its
// timestamp. Any record clears the redo stack.
func (m *Manager) Record(prev Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo = nil
	if n := len(m.undo); n > 0 && prev.TS.Sub(m.undo[n-1].TS) < m.cfg.MinInterval {
		m.undo[n-1].TS = prev.TS
		return
	}
	prev.size = estimate(prev.Slides)
	m.undo = append(m.undo, prev)
	m.totalBytes += prev.size
	m.enforceCapsLocked()
}

// Undo returns the state to restore and moves present onto the redo stack.
func (m *Manager) Undo(present Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalBytes -= s.size
	m.redo = append(m.redo, present)
	return s, true
}

// Redo returns the state undone last and moves present back onto the undo stack.
func (m *Manager) Redo(present Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.redo[n-1]
	m.redo = m.redo[:n-1]
	present.size = estimate(present.Slides)
	m.undo = append(m.undo, present)
	m.totalBytes += present.size
	m.enforceCapsLocked()
	return s, true
}

// CanUndo and CanRedo drive the toolbar state.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Clear drops all history, e.g. after hydrating a deck from the server.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo, m.totalBytes = nil, nil, 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, undoDepth int, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) enforceCapsLocked() {
	drop := 0
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		drop = len(m.undo) - m.cfg.MaxDepth
	}
	bytes := m.totalBytes
	for i := 0; i < drop; i++ {
		bytes -= m.undo[i].size
	}
	// keep at least the newest step even if it alone exceeds the cap
	for bytes > m.cfg.MaxBytes && drop < len(m.undo)-1 {
		bytes -= m.undo[drop].size
		drop++
	}
	if drop > 0 {
		m.undo = append([]Snapshot{}, m.undo[drop:]...)
		m.totalBytes = bytes
	}
}

func estimate(slides []domain.Slide) int {
	b, err := json.Marshal(slides)
	if err != nil {
		return 0
	}
	return len(b)
}
