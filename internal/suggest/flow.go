/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pitchdeck/internal/domain"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/scene"
)

// Flow is the suggestion panel: request candidates, preview them, and
// either take one or throw them all away. It is safe for concurrent use.
type Flow struct {
	mu         sync.Mutex
	gen        Generator
	sc         *scene.Scene
	open       bool
	candidates []Candidate
	preview    int
	seq        uint64
	onSelect   func(Candidate)
	l          *slog.Logger
}

func NewFlow(g Generator, sc *scene.Scene) *Flow {
	return &Flow{gen: g, sc: sc, l: applog.WithComponent("suggest")}
}

// OnSelect registers a callback invoked after a candidate was applied.
func (f *Flow) OnSelect(fn func(Candidate)) {
	f.mu.Lock()
	f.onSelect = fn
	f.mu.Unlock()
}

// Open shows the panel at the prompt.
func (f *Flow) Open() {
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
}

func (f *Flow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Request replaces the current candidates with fresh ones for prompt. The
// result is dropped if Cancel, Close or another Request ran in the meantime.
func (f *Flow) Request(ctx context.Context, prompt string) ([]Candidate, error) {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.open = true
	f.mu.Unlock()

	cands, err := Generate(ctx, f.gen, prompt)
	if err != nil {
		f.l.Warn("suggestion request failed", slog.Any("err", err))
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq || !f.open {
		return nil, ErrSuperseded
	}
	f.candidates = cands
	f.preview = 0
	return copyCandidates(cands), nil
}

// Candidates returns the pending candidates, if any.
func (f *Flow) Candidates() []Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyCandidates(f.candidates)
}

// Preview marks candidate i as the one shown large and returns it.
func (f *Flow) Preview(i int) (Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.candidates) {
		return Candidate{}, fmt.Errorf("preview %d: %w", i, ErrNoCandidate)
	}
	f.preview = i
	return copyCandidate(f.candidates[i]), nil
}

// Select replaces the whole deck with candidate i, shows its first slide and
// closes the panel.
func (f *Flow) Select(i int) (Candidate, error) {
	f.mu.Lock()
	if i < 0 || i >= len(f.candidates) {
		f.mu.Unlock()
		return Candidate{}, fmt.Errorf("select %d: %w", i, ErrNoCandidate)
	}
	c := copyCandidate(f.candidates[i])
	if err := f.sc.ReplaceAll(c.Slides); err != nil {
		f.mu.Unlock()
		return Candidate{}, fmt.Errorf("select %d: %w", i, err)
	}
	f.candidates = nil
	f.open = false
	f.seq++
	fn := f.onSelect
	f.mu.Unlock()
	f.l.Info("suggestion applied", slog.String("candidate", c.ID), slog.Int("slides", len(c.Slides)))
	if fn != nil {
		fn(c)
	}
	return c, nil
}

// Cancel discards the candidates and returns to the prompt. The deck is not
// touched.
func (f *Flow) Cancel() {
	f.mu.Lock()
	f.candidates = nil
	f.preview = 0
	f.seq++
	f.mu.Unlock()
}

// Close hides the panel and discards everything pending.
func (f *Flow) Close() {
	f.Cancel()
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

func copyCandidates(in []Candidate) []Candidate {
	if in == nil {
		return nil
	}
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = copyCandidate(c)
	}
	return out
}

func copyCandidate(c Candidate) Candidate {
	c.Slides = domain.CloneSlides(c.Slides)
	return c
}
