/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor wires the canvas components into one editing session for a
// project: scene, interaction, history, autosave, presentation, suggestions
// and the local draft store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"pitchdeck/internal/autosave"
	"pitchdeck/internal/catalog"
	"pitchdeck/internal/config"
	"pitchdeck/internal/crash"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/interaction"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/present"
	"pitchdeck/internal/scene"
	"pitchdeck/internal/storage"
	"pitchdeck/internal/suggest"
	"pitchdeck/internal/telemetry"
	"pitchdeck/internal/undo"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("editor session closed")

// DefaultKeepDrafts is how many local drafts are kept per project.
const DefaultKeepDrafts = 20

// Backend loads and stores decks. *backend.Client implements it.
type Backend interface {
	autosave.Persister
	Hydrate(ctx context.Context, projectID string) (domain.Project, *domain.Deck, error)
}

type Options struct {
	ProjectID string
	Backend   Backend
	// Generator defaults to the local generator.
	Generator suggest.Generator
	// Drafts is optional; without it nothing is cached locally.
	Drafts     *storage.Drafts
	KeepDrafts int
	Editor     config.EditorConfig
	// HistoryInterval coalesces edits closer together than this into one
	// undo step.
	HistoryInterval time.Duration
	OnNotice        func(Notice)
	OnStatus        func(autosave.Status, error)
}

// Session is safe for concurrent use. Components are exported for the
// operations the session does not wrap.
type Session struct {
	Scene      *scene.Scene
	Controller *interaction.Controller
	History    *undo.Manager
	Autosave   *autosave.Pipeline
	Presenter  *present.Presenter
	Suggest    *suggest.Flow

	opts   Options
	l      *slog.Logger
	unsub  func()
	manual atomic.Bool

	// histMu serializes hydrate, undo, redo and draft restores so the
	// listener mode belongs to the mutation that set it.
	histMu sync.Mutex

	mu       sync.Mutex
	mode     changeMode
	last     scene.Snapshot
	project  domain.Project
	hydrated bool
	closed   bool
}

// changeMode tells the scene listener what a mutation means.
type changeMode struct {
	record bool // push the previous state to history
	notify bool // hand the new slides to autosave
}

var (
	modeEdit    = changeMode{record: true, notify: true}
	modeHydrate = changeMode{}
	modeHistory = changeMode{notify: true}
	modeDraft   = changeMode{record: true}
)

// New builds a session showing the default deck. Call Hydrate to load the
// project from the backend.
func New(opts Options) (*Session, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("editor: project id is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("editor: backend is required")
	}
	if opts.Generator == nil {
		opts.Generator = suggest.LocalGenerator{}
	}
	if opts.KeepDrafts <= 0 {
		opts.KeepDrafts = DefaultKeepDrafts
	}
	if opts.HistoryInterval <= 0 {
		opts.HistoryInterval = 300 * time.Millisecond
	}

	s := &Session{
		opts: opts,
		l:    applog.WithComponent("editor").With(slog.String(applog.ProjectIDKey, opts.ProjectID)),
		mode: modeEdit,
	}
	s.Scene = scene.New(nil)
	s.last = s.Scene.Snapshot()
	s.Controller = interaction.NewController(s.Scene)
	s.History = undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxDepth:    opts.Editor.HistoryDepth,
		MinInterval: opts.HistoryInterval,
	})
	s.Autosave = autosave.New(opts.Backend, opts.ProjectID, autosave.Options{
		Debounce:       opts.Editor.Debounce(),
		HydrationGrace: opts.Editor.HydrationGrace(),
		Retries:        opts.Editor.AutosaveRetries,
		Template:       catalog.DefaultTemplate().ID,
		OnStatus:       s.onStatus,
		OnCreated:      s.onCreated,
	})
	s.Presenter = present.New(sceneSource{s.Scene})
	s.Presenter.OnEnter(telemetry.PresentationStarted)
	s.Suggest = suggest.NewFlow(opts.Generator, s.Scene)
	s.unsub = s.Scene.Subscribe(s.onChange)
	return s, nil
}

// sceneSource lets the presenter read the live deck.
type sceneSource struct{ sc *scene.Scene }

func (s sceneSource) PresentSlides() []domain.Slide { return s.sc.Slides() }

// Hydrate loads the project and its deck. A project without a deck keeps
// the default deck; the first change creates it on the server.
func (s *Session) Hydrate(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	ctx = applog.ContextWithProject(ctx, s.opts.ProjectID)
	project, deck, err := s.opts.Backend.Hydrate(ctx, s.opts.ProjectID)
	if err != nil {
		s.l.ErrorContext(ctx, "hydrate failed", slog.Any("err", err))
		return s.Report(err)
	}

	slides := scene.DefaultDeck(catalog.DefaultTemplate().ID)
	deckID := ""
	if deck != nil && len(deck.Slides) > 0 {
		slides, deckID = deck.Slides, deck.ID
	}

	s.histMu.Lock()
	defer s.histMu.Unlock()
	if err := s.apply(modeHydrate, func() error { return s.Scene.ReplaceAll(slides) }); err != nil {
		return s.Report(err)
	}
	s.History.Clear()
	s.Controller.Reset()
	s.Autosave.Hydrated(deckID, s.Scene.Slides())

	s.mu.Lock()
	s.project = project
	s.hydrated = true
	s.mu.Unlock()
	s.l.InfoContext(ctx, "deck loaded", slog.String(applog.DeckIDKey, deckID), slog.Int("slides", s.Scene.Len()))
	return nil
}

// apply runs fn with the listener in mode m.
func (s *Session) apply(m changeMode, fn func() error) error {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.mode = modeEdit
		s.mu.Unlock()
	}()
	return fn()
}

func (s *Session) onChange(snap scene.Snapshot) {
	s.mu.Lock()
	if s.closed || snap.Rev <= s.last.Rev {
		s.mu.Unlock()
		return
	}
	prev := s.last
	s.last = snap
	m := s.mode
	s.mu.Unlock()

	if prev.Current != snap.Current || currentID(prev) != currentID(snap) {
		s.Controller.Reset()
	}
	if sameSlides(prev.Slides, snap.Slides) {
		// selection only
		return
	}
	if m.record {
		s.History.Record(undo.Snapshot{Slides: prev.Slides, Current: prev.Current, TS: time.Now()})
	}
	if m.notify {
		s.Autosave.Notify(snap.Slides)
	}
}

func currentID(s scene.Snapshot) string {
	if s.Current < 0 || s.Current >= len(s.Slides) {
		return ""
	}
	return s.Slides[s.Current].ID
}

// sameSlides reports whether a and b are the same immutable list.
func sameSlides(a, b []domain.Slide) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

// Undo restores the state before the last change. It reports whether there
// was anything to undo.
func (s *Session) Undo() bool {
	return s.travel(s.History.Undo)
}

// Redo re-applies the change undone last.
func (s *Session) Redo() bool {
	return s.travel(s.History.Redo)
}

func (s *Session) travel(step func(undo.Snapshot) (undo.Snapshot, bool)) bool {
	if s.isClosed() {
		return false
	}
	s.histMu.Lock()
	defer s.histMu.Unlock()
	cur := s.Scene.Snapshot()
	to, ok := step(undo.Snapshot{Slides: cur.Slides, Current: cur.Current, TS: time.Now()})
	if !ok {
		return false
	}
	err := s.apply(modeHistory, func() error {
		return s.Scene.Restore(scene.Snapshot{Slides: to.Slides, Current: to.Current})
	})
	if err != nil {
		_ = s.Report(err)
		return false
	}
	return true
}

// PendingDraft returns a local draft newer than anything the server
// confirmed, or nil.
func (s *Session) PendingDraft(ctx context.Context) (*storage.Draft, error) {
	if s.opts.Drafts == nil {
		return nil, nil
	}
	return s.opts.Drafts.Pending(ctx, s.opts.ProjectID)
}

// RestoreDraft shows the draft's slides and schedules them for saving. The
// restore itself can be undone.
func (s *Session) RestoreDraft(ctx context.Context, d *storage.Draft) error {
	if d == nil || len(d.Slides) == 0 {
		return s.Report(fmt.Errorf("restore draft: %w", scene.ErrEmptyDeck))
	}
	if s.isClosed() {
		return ErrClosed
	}
	s.histMu.Lock()
	err := s.apply(modeDraft, func() error { return s.Scene.ReplaceAll(d.Slides) })
	s.histMu.Unlock()
	if err != nil {
		return s.Report(err)
	}
	s.Autosave.Adopt(s.Scene.Slides())
	s.l.InfoContext(ctx, "draft restored", slog.Int64("draft", d.ID), slog.String("reason", d.Reason))
	return nil
}

// DiscardDraft marks d and everything older as handled.
func (s *Session) DiscardDraft(ctx context.Context, d *storage.Draft) error {
	if s.opts.Drafts == nil || d == nil {
		return nil
	}
	_, err := s.opts.Drafts.MarkSynced(ctx, s.opts.ProjectID, d.TS)
	return err
}

// Save persists the deck now, ahead of the debounce timer.
func (s *Session) Save(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.mu.Lock()
	hydrated := s.hydrated
	s.mu.Unlock()
	if hydrated {
		// edits made during the hydration grace period are not queued yet
		s.Autosave.Adopt(s.Scene.Slides())
	}
	s.manual.Store(true)
	defer s.manual.Store(false)
	if err := s.Autosave.SaveNow(ctx); err != nil {
		return s.Report(err)
	}
	return nil
}

func (s *Session) onStatus(st autosave.Status, err error) {
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(st, err)
	}
	switch st {
	case autosave.StatusError:
		s.writeDraft(storage.ReasonSaveFailed)
		if s.opts.OnNotice != nil {
			n := NoticeFor(err)
			n.Message = "Saving failed; your changes are kept locally. " + n.Message
			s.opts.OnNotice(n)
		}
	case autosave.StatusSaved:
		telemetry.DeckSaved(s.Scene.Len(), s.manual.Load())
		s.markSynced()
	}
}

func (s *Session) onCreated(deckID string) {
	slides := s.Scene.Slides()
	tmpl := catalog.DefaultTemplate().ID
	if len(slides) > 0 && slides[0].Template != "" {
		tmpl = slides[0].Template
	}
	telemetry.DeckCreated(tmpl, len(slides))
	s.l.Info("deck created", slog.String(applog.DeckIDKey, deckID))
}

// draft captures the current slides for the local store.
func (s *Session) draft(reason string) storage.Draft {
	return storage.Draft{
		ProjectID: s.opts.ProjectID,
		DeckID:    s.Autosave.DeckID(),
		Slides:    s.Scene.Slides(),
		Reason:    reason,
	}
}

func (s *Session) writeDraft(reason string) {
	if s.opts.Drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.opts.Drafts.Save(ctx, s.draft(reason)); err != nil {
		s.l.Warn("write draft failed", slog.String("reason", reason), slog.Any("err", err))
	}
}

// markSynced records the saved deck locally and retires older drafts.
func (s *Session) markSynced() {
	if s.opts.Drafts == nil || s.Autosave.HasChanges() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d := s.draft(storage.ReasonSaved)
	d.Synced = true
	d.TS = time.Now()
	if _, err := s.opts.Drafts.MarkSynced(ctx, s.opts.ProjectID, d.TS); err != nil {
		s.l.Warn("mark drafts synced failed", slog.Any("err", err))
		return
	}
	if _, err := s.opts.Drafts.Save(ctx, d); err != nil {
		s.l.Warn("write saved draft failed", slog.Any("err", err))
		return
	}
	if _, err := s.opts.Drafts.Prune(ctx, s.opts.ProjectID, s.opts.KeepDrafts); err != nil {
		s.l.Warn("prune drafts failed", slog.Any("err", err))
	}
}

// Report forwards err to the notice callback and returns it unchanged.
func (s *Session) Report(err error) error {
	if err == nil || errors.Is(err, suggest.ErrSuperseded) {
		return err
	}
	if s.opts.OnNotice != nil {
		s.opts.OnNotice(NoticeFor(err))
	}
	return err
}

func (s *Session) DeleteSlide() error           { return s.Report(s.Scene.DeleteSlide()) }
func (s *Session) SelectSlide(i int) error      { return s.Report(s.Scene.SelectSlide(i)) }
func (s *Session) MoveSlide(from, to int) error { return s.Report(s.Scene.MoveSlide(from, to)) }

func (s *Session) AddSlide() (domain.Slide, error) {
	sl, err := s.Scene.AddSlide()
	return sl, s.Report(err)
}

func (s *Session) DuplicateSlide() (domain.Slide, error) {
	sl, err := s.Scene.DuplicateSlide()
	return sl, s.Report(err)
}

// AddIcon places the catalog icon with the given id on the current slide.
func (s *Session) AddIcon(iconID string) (domain.Element, error) {
	ic, ok := catalog.IconByID(iconID)
	if !ok {
		return domain.Element{}, s.Report(fmt.Errorf("icon %q: %w", iconID, scene.ErrItemNotFound))
	}
	e, err := s.Scene.AddElement(ic, domain.ElementIcon)
	return e, s.Report(err)
}

// Present starts the presentation at the slide being edited.
func (s *Session) Present() {
	s.Controller.Reset()
	s.Presenter.Enter(s.Scene.Current())
}

// RequestSuggestions asks the generator for three decks.
func (s *Session) RequestSuggestions(ctx context.Context, prompt string) ([]suggest.Candidate, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	cands, err := s.Suggest.Request(ctx, prompt)
	return cands, s.Report(err)
}

// SelectSuggestion replaces the deck with candidate i. The replacement is
// one undo step and is saved like any other change.
func (s *Session) SelectSuggestion(i int) (suggest.Candidate, error) {
	c, err := s.Suggest.Select(i)
	if err != nil {
		return c, s.Report(err)
	}
	telemetry.SuggestionSelected(i)
	return c, nil
}

// Project returns the project loaded by Hydrate.
func (s *Session) Project() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Deck returns the deck as currently edited.
func (s *Session) Deck() domain.Deck {
	slides := s.Scene.Slides()
	tmpl := ""
	if len(slides) > 0 {
		tmpl = slides[0].Template
	}
	return domain.Deck{ID: s.Autosave.DeckID(), ProjectID: s.opts.ProjectID, Template: tmpl, Slides: slides}
}

// CrashHandle lets crash.Recover dump unsaved slides. Reports go next to the
// drafts database.
func (s *Session) CrashHandle() *crash.Handle {
	h := &crash.Handle{Drafts: s.opts.Drafts, Snapshot: s.crashSnapshot}
	if s.opts.Drafts != nil {
		h.Dir = filepath.Dir(s.opts.Drafts.Path())
	}
	return h
}

func (s *Session) crashSnapshot() (storage.Draft, bool) {
	s.mu.Lock()
	hydrated := s.hydrated
	s.mu.Unlock()
	if !hydrated || !s.Autosave.HasChanges() {
		return storage.Draft{}, false
	}
	return s.draft(storage.ReasonCrash), true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close leaves the editor. Pending saves are cancelled and in-flight results
// discarded; unsaved changes are kept as a local draft.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hydrated := s.hydrated
	s.mu.Unlock()

	dirty := s.Autosave.HasChanges()
	s.Autosave.Close()
	s.Suggest.Close()
	s.Presenter.Exit()
	s.unsub()
	if dirty && hydrated {
		s.writeDraft(storage.ReasonClosed)
	}
	s.l.Info("session closed", slog.Bool("unsaved", dirty))
}
