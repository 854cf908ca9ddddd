/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autosave persists the deck in the background. Scene changes are
// debounced; when the editor goes quiet the whole slide list is sent to the
// backend, creating the deck on the first save and replacing its slides on
// every later one.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pitchdeck/internal/domain"
	applog "pitchdeck/internal/log"
)

// Defaults used when Options leaves a value zero.
const (
	DefaultDebounce       = 1500 * time.Millisecond
	DefaultHydrationGrace = 500 * time.Millisecond
	DefaultRetryBackoff   = 500 * time.Millisecond
)

// ErrClosed is returned by saves attempted after Close.
var ErrClosed = errors.New("autosave: pipeline closed")

// Persister stores decks. CreateDeck returns the id of the new deck.
type Persister interface {
	CreateDeck(ctx context.Context, projectID, template string, slides []domain.Slide) (string, error)
	UpdateDeck(ctx context.Context, projectID, deckID string, slides []domain.Slide) error
}

// DeckFinder is implemented by persisters that can look up the deck a
// project already has. The pipeline uses it when a create call reports
// that the deck exists, e.g. after a lost response or a save from another
// editor.
type DeckFinder interface {
	GetDeck(ctx context.Context, projectID string) (*domain.Deck, error)
}

// permanent is implemented by errors that retrying cannot fix.
type permanent interface{ Permanent() bool }

// conflict is implemented by errors that mean the deck already exists.
type conflict interface{ Conflict() bool }

// Status drives the save indicator.
type Status int

const (
	StatusSaved Status = iota
	StatusPending
	StatusSaving
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Options struct {
	Debounce       time.Duration
	HydrationGrace time.Duration
	// Retries is how many times a failed save is retried with exponential
	// backoff before giving up until the next change.
	Retries      int
	RetryBackoff time.Duration
	// Template is used for the create call when the first slide has none.
	Template string
	// OnStatus is called after every status change, outside any lock.
	OnStatus func(Status, error)
	// OnCreated is called once the backend assigned a deck id.
	OnCreated func(deckID string)
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	p         Persister
	projectID string
	opts      Options
	l         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	task   *Task
	grace  *Task

	// sendMu serializes requests so a deck is never created twice.
	sendMu sync.Mutex

	mu          sync.Mutex
	deckID      string
	latest      []domain.Slide
	hasChanges  bool
	initialLoad bool
	changeSeq   uint64
	gen         uint64
	status      Status
	lastErr     error
	closed      bool
}

// New returns a pipeline that ignores changes until Hydrated has been called
// and the hydration grace period has passed.
func New(p Persister, projectID string, opts Options) *Pipeline {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.HydrationGrace <= 0 {
		opts.HydrationGrace = DefaultHydrationGrace
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	ctx, cancel := context.WithCancel(applog.ContextWithProject(context.Background(), projectID))
	pl := &Pipeline{
		p:           p,
		projectID:   projectID,
		opts:        opts,
		l:           applog.WithComponent("autosave"),
		ctx:         ctx,
		cancel:      cancel,
		initialLoad: true,
	}
	pl.task = NewTask(opts.Debounce, pl.fire)
	pl.grace = NewTask(opts.HydrationGrace, pl.endInitialLoad)
	return pl
}

// Hydrated records the deck the editor was loaded with (empty when the
// project has none yet) and starts the hydration grace timer.
func (pl *Pipeline) Hydrated(deckID string, slides []domain.Slide) {
	pl.mu.Lock()
	pl.deckID = deckID
	pl.latest = slides
	pl.initialLoad = true
	pl.hasChanges = false
	pl.mu.Unlock()
	pl.grace.Arm()
}

func (pl *Pipeline) endInitialLoad() {
	pl.mu.Lock()
	pl.initialLoad = false
	pl.mu.Unlock()
}

// Notify records a new slide list and restarts the debounce timer.
// Changes during the initial load are hydration echoes and are ignored.
func (pl *Pipeline) Notify(slides []domain.Slide) {
	pl.mu.Lock()
	if pl.closed || pl.initialLoad {
		pl.mu.Unlock()
		return
	}
	pl.latest = slides
	pl.hasChanges = true
	pl.changeSeq++
	st, err := pl.setStatusLocked(StatusPending, nil)
	pl.mu.Unlock()
	pl.report(st, err)
	pl.task.Arm()
}

// Adopt records slides as an unsaved change even during the initial load.
// Used when the editor restores a local draft over the hydrated deck.
func (pl *Pipeline) Adopt(slides []domain.Slide) {
	pl.grace.Cancel()
	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return
	}
	pl.initialLoad = false
	pl.mu.Unlock()
	pl.Notify(slides)
}

// SaveNow cancels any pending debounced save and persists immediately.
func (pl *Pipeline) SaveNow(ctx context.Context) error {
	pl.task.Cancel()
	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return ErrClosed
	}
	pl.gen++
	gen := pl.gen
	pl.mu.Unlock()
	ctx, cancel := mergeCancel(ctx, pl.ctx)
	defer cancel()
	return pl.persist(ctx, gen)
}

func (pl *Pipeline) fire() {
	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return
	}
	pl.gen++
	gen := pl.gen
	pl.mu.Unlock()
	if err := pl.persist(pl.ctx, gen); err != nil && !errors.Is(err, ErrClosed) {
		pl.l.Warn("autosave failed", slog.Any("err", err))
	}
}

// Close cancels pending work. Requests in flight are aborted and their
// results discarded.
func (pl *Pipeline) Close() {
	pl.mu.Lock()
	pl.closed = true
	pl.mu.Unlock()
	pl.task.Cancel()
	pl.grace.Cancel()
	pl.cancel()
}

func (pl *Pipeline) HasChanges() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.hasChanges
}

func (pl *Pipeline) DeckID() string {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.deckID
}

// Status returns the indicator state and the last save error, if any.
func (pl *Pipeline) Status() (Status, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.status, pl.lastErr
}

func (pl *Pipeline) persist(ctx context.Context, gen uint64) error {
	pl.sendMu.Lock()
	defer pl.sendMu.Unlock()

	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return ErrClosed
	}
	if gen != pl.gen {
		// a newer save carries a newer slide list
		pl.mu.Unlock()
		return nil
	}
	slides, deckID, seq := pl.latest, pl.deckID, pl.changeSeq
	st, serr := pl.setStatusLocked(StatusSaving, nil)
	pl.mu.Unlock()
	pl.report(st, serr)

	l := applog.WithOperation(pl.l, "persist").With(slog.Uint64("gen", gen), slog.Int("slides", len(slides)))
	known, created, err := pl.send(ctx, l, deckID, slides)

	pl.mu.Lock()
	if pl.closed {
		pl.mu.Unlock()
		return ErrClosed
	}
	if known != "" {
		pl.deckID = known
	}
	current := gen == pl.gen
	if err != nil {
		st, serr = pl.status, pl.lastErr
		if current {
			st, serr = pl.setStatusLocked(StatusError, err)
		}
		pl.mu.Unlock()
		pl.report(st, serr)
		l.ErrorContext(ctx, "save failed", slog.Bool("current", current), slog.Any("err", err))
		return err
	}
	if current && seq == pl.changeSeq {
		pl.hasChanges = false
		st, serr = pl.setStatusLocked(StatusSaved, nil)
	} else {
		st, serr = pl.status, pl.lastErr
	}
	pl.mu.Unlock()
	pl.report(st, serr)
	if created && pl.opts.OnCreated != nil {
		pl.opts.OnCreated(known)
	}
	l.DebugContext(ctx, "saved", slog.Bool("current", current))
	return nil
}

// send issues the create or update call, retrying transient failures.
// It returns the deck id it learned (empty when unchanged) and whether this
// call created the deck. A create that collides with an existing deck is
// turned into an update of that deck.
func (pl *Pipeline) send(ctx context.Context, l *slog.Logger, deckID string, slides []domain.Slide) (string, bool, error) {
	var known string
	var err error
	for attempt := 0; ; attempt++ {
		if deckID == "" {
			var id string
			id, err = pl.p.CreateDeck(ctx, pl.projectID, pl.templateFor(slides), slides)
			if err == nil {
				return id, true, nil
			}
			if isConflict(err) {
				if id, ferr := pl.existingDeck(ctx); ferr != nil {
					l.Warn("deck exists but could not be looked up", slog.Any("err", ferr))
				} else if id != "" {
					l.Info("deck already exists, updating it", slog.String("deck", id))
					deckID, known = id, id
					err = pl.p.UpdateDeck(ctx, pl.projectID, deckID, slides)
					if err == nil {
						return known, false, nil
					}
				}
			}
		} else {
			err = pl.p.UpdateDeck(ctx, pl.projectID, deckID, slides)
			if err == nil {
				return known, false, nil
			}
		}
		if attempt >= pl.opts.Retries || !retryable(err) {
			return known, false, err
		}
		wait := pl.opts.RetryBackoff << attempt
		l.Info("retrying save", slog.Int("attempt", attempt+1), slog.Duration("wait", wait), slog.Any("err", err))
		select {
		case <-ctx.Done():
			return known, false, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (pl *Pipeline) existingDeck(ctx context.Context) (string, error) {
	f, ok := pl.p.(DeckFinder)
	if !ok {
		return "", nil
	}
	d, err := f.GetDeck(ctx, pl.projectID)
	if err != nil || d == nil {
		return "", err
	}
	return d.ID, nil
}

func isConflict(err error) bool {
	var c conflict
	return errors.As(err, &c) && c.Conflict()
}

func (pl *Pipeline) templateFor(slides []domain.Slide) string {
	if len(slides) > 0 && slides[0].Template != "" {
		return slides[0].Template
	}
	return pl.opts.Template
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p permanent
	if errors.As(err, &p) && p.Permanent() {
		return false
	}
	return true
}

func (pl *Pipeline) setStatusLocked(s Status, err error) (Status, error) {
	pl.status = s
	pl.lastErr = err
	return s, err
}

func (pl *Pipeline) report(s Status, err error) {
	if pl.opts.OnStatus != nil {
		pl.opts.OnStatus(s, err)
	}
}

// mergeCancel returns a context derived from ctx that is also cancelled
// when other is.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
