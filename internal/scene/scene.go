/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the editable deck: an ordered slide list plus the
// index of the slide being edited. Every mutation builds a new slide list
// (copy-on-write), so a Snapshot handed to a listener never changes under it.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
	applog "pitchdeck/internal/log"
)

var (
	ErrLastSlide       = errors.New("a deck must keep at least one slide")
	ErrIndexOutOfRange = errors.New("slide index out of range")
	ErrItemNotFound    = errors.New("item not found on current slide")
	ErrUnknownField    = errors.New("unknown slide field")
	ErrFieldType       = errors.New("wrong value type for slide field")
	ErrWrongKind       = errors.New("element has the wrong kind for this operation")
	ErrEmptyDeck       = errors.New("deck must not be empty")

	ErrDeckFull = domain.ErrTooManySlides
	ErrTooLong  = domain.ErrTooLong
)

// Snapshot is an immutable view of the scene. Slides must not be modified.
type Snapshot struct {
	Slides  []domain.Slide
	Current int
	Rev     uint64
}

// CurrentSlide returns the slide at Current.
func (s Snapshot) CurrentSlide() domain.Slide { return s.Slides[s.Current] }

// Listener observes every successful mutation.
type Listener func(Snapshot)

// Scene is safe for concurrent use. Listeners run on the mutating goroutine
// after the lock has been released.
type Scene struct {
	mu        sync.Mutex
	slides    []domain.Slide
	current   int
	rev       uint64
	listeners map[int]Listener
	nextSub   int
	rnd       func() float64
	l         *slog.Logger
}

// New creates a scene from slides. An empty list yields the default
// one-slide deck using the catalog's default template.
func New(slides []domain.Slide) *Scene {
	sc := &Scene{
		listeners: make(map[int]Listener),
		rnd:       rand.Float64,
		l:         applog.WithComponent("scene"),
	}
	if len(slides) == 0 {
		slides = DefaultDeck(catalog.DefaultTemplate().ID)
	}
	sc.slides = domain.SanitizeSlides(slides)
	return sc
}

// DefaultDeck returns the single title slide a brand new deck starts with.
func DefaultDeck(template string) []domain.Slide {
	s := domain.NewSlide(domain.SlideTitle, template)
	s.Title = "My Pitch Deck"
	s.Content = "Your tagline goes here"
	return []domain.Slide{s}
}

// Subscribe registers l and returns a function that removes it.
func (sc *Scene) Subscribe(l Listener) (unsubscribe func()) {
	sc.mu.Lock()
	id := sc.nextSub
	sc.nextSub++
	sc.listeners[id] = l
	sc.mu.Unlock()
	return func() {
		sc.mu.Lock()
		delete(sc.listeners, id)
		sc.mu.Unlock()
	}
}

// Snapshot returns the current immutable view.
func (sc *Scene) Snapshot() Snapshot {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.snapshotLocked()
}

// Slides returns a deep copy of the slide list.
func (sc *Scene) Slides() []domain.Slide {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return domain.CloneSlides(sc.slides)
}

func (sc *Scene) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.slides)
}

func (sc *Scene) Current() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// CurrentSlide returns a deep copy of the slide being edited.
func (sc *Scene) CurrentSlide() domain.Slide {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.slides[sc.current].Clone()
}

// Media looks up a media item on the current slide.
func (sc *Scene) Media(id string) (domain.Media, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, m := range sc.slides[sc.current].Media {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Media{}, false
}

// Element looks up an element on the current slide.
func (sc *Scene) Element(id string) (domain.Element, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, e := range sc.slides[sc.current].Elements {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Element{}, false
}

func (sc *Scene) snapshotLocked() Snapshot {
	return Snapshot{Slides: sc.slides, Current: sc.current, Rev: sc.rev}
}

// commit installs a new slide list and notifies listeners. The caller holds
// the lock; commit releases it.
func (sc *Scene) commit(slides []domain.Slide, current int) Snapshot {
	sc.slides = slides
	sc.current = current
	sc.rev++
	snap := sc.snapshotLocked()
	ls := make([]Listener, 0, len(sc.listeners))
	for i := 0; i < sc.nextSub; i++ {
		if l, ok := sc.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	sc.mu.Unlock()
	for _, l := range ls {
		l(snap)
	}
	return snap
}

// editCurrent copies the slide list and the current slide's item lists, lets
// fn modify the copy, and commits it unless fn fails.
func (sc *Scene) editCurrent(op string, fn func(s *domain.Slide) error) error {
	sc.mu.Lock()
	next := append([]domain.Slide(nil), sc.slides...)
	s := next[sc.current]
	s.Media = append([]domain.Media(nil), s.Media...)
	s.Elements = append([]domain.Element(nil), s.Elements...)
	s.Normalize()
	err := fn(&s)
	if err == nil {
		err = s.Check()
	}
	if err != nil {
		sc.mu.Unlock()
		sc.l.Debug("edit rejected", slog.String("op", op), slog.Any("err", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	next[sc.current] = s
	sc.commit(next, sc.current)
	return nil
}

// ReplaceAll swaps the whole deck and selects the first slide. A deck that
// breaks the shared limits is refused as a whole.
func (sc *Scene) ReplaceAll(slides []domain.Slide) error {
	if len(slides) == 0 {
		return fmt.Errorf("replace: %w", ErrEmptyDeck)
	}
	next := domain.SanitizeSlides(slides)
	if err := domain.CheckSlides(next); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	sc.mu.Lock()
	sc.commit(next, 0)
	sc.l.Debug("scene replaced", slog.Int("slides", len(next)))
	return nil
}

// Restore installs a previously captured state, e.g. from undo history.
// The current index is clamped into the restored deck.
func (sc *Scene) Restore(snap Snapshot) error {
	if len(snap.Slides) == 0 {
		return fmt.Errorf("restore: %w", ErrEmptyDeck)
	}
	cur := min(max(snap.Current, 0), len(snap.Slides)-1)
	sc.mu.Lock()
	sc.commit(snap.Slides, cur)
	return nil
}
