/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/domain"
)

type call struct {
	op     string
	deckID string
	slides []domain.Slide
}

type fakePersister struct {
	mu    sync.Mutex
	calls []call
	fail  []error // consumed one per call
	block chan struct{}
}

func (f *fakePersister) next(c call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	var err error
	if len(f.fail) > 0 {
		err, f.fail = f.fail[0], f.fail[1:]
	}
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakePersister) CreateDeck(_ context.Context, _, _ string, slides []domain.Slide) (string, error) {
	if err := f.next(call{op: "create", slides: slides}); err != nil {
		return "", err
	}
	return "deck-1", nil
}

func (f *fakePersister) UpdateDeck(_ context.Context, _, deckID string, slides []domain.Slide) error {
	return f.next(call{op: "update", deckID: deckID, slides: slides})
}

func (f *fakePersister) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type permErr struct{}

func (permErr) Error() string   { return "bad request" }
func (permErr) Permanent() bool { return true }

type conflictErr struct{}

func (conflictErr) Error() string   { return "deck already exists" }
func (conflictErr) Permanent() bool { return true }
func (conflictErr) Conflict() bool  { return true }

// findingPersister knows the deck another editor created.
type findingPersister struct {
	*fakePersister
	existing string
}

func (f findingPersister) GetDeck(context.Context, string) (*domain.Deck, error) {
	if f.existing == "" {
		return nil, nil
	}
	return &domain.Deck{ID: f.existing}, nil
}

func slidesTitled(title string) []domain.Slide {
	s := domain.NewSlide(domain.SlideContent, "ocean")
	s.Title = title
	return []domain.Slide{s}
}

func ready(t *testing.T, pl *Pipeline) {
	t.Helper()
	require.Eventually(t, func() bool {
		pl.mu.Lock()
		defer pl.mu.Unlock()
		return !pl.initialLoad
	}, time.Second, time.Millisecond)
}

func newPipeline(t *testing.T, f *fakePersister, opts Options) *Pipeline {
	t.Helper()
	if opts.HydrationGrace == 0 {
		opts.HydrationGrace = time.Millisecond
	}
	pl := New(f, "p1", opts)
	t.Cleanup(pl.Close)
	return pl
}

func TestDebounceCoalescesBurst(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: 40 * time.Millisecond})
	pl.Hydrated("", nil)
	ready(t, pl)

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		pl.Notify(slidesTitled(title))
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, pl.HasChanges())
	require.Eventually(t, func() bool { return len(f.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	calls := f.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].op)
	assert.Equal(t, "e", calls[0].slides[0].Title)
	require.Eventually(t, func() bool { return !pl.HasChanges() }, time.Second, time.Millisecond)
	assert.Equal(t, "deck-1", pl.DeckID())
	st, err := pl.Status()
	assert.Equal(t, StatusSaved, st)
	assert.NoError(t, err)
}

func TestHydrationEchoIgnored(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: 10 * time.Millisecond, HydrationGrace: 200 * time.Millisecond})
	pl.Hydrated("deck-9", slidesTitled("loaded"))
	pl.Notify(slidesTitled("loaded"))
	assert.False(t, pl.HasChanges())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.snapshot())
}

func TestAdoptDuringInitialLoad(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: 10 * time.Millisecond, HydrationGrace: time.Hour})
	pl.Hydrated("deck-9", slidesTitled("server"))
	pl.Adopt(slidesTitled("draft"))
	assert.True(t, pl.HasChanges())
	require.Eventually(t, func() bool { return len(f.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	calls := f.snapshot()
	assert.Equal(t, "update", calls[0].op)
	assert.Equal(t, "draft", calls[0].slides[0].Title)
}

func TestCreateThenUpdate(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: time.Hour})
	pl.Hydrated("", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("one"))
	require.NoError(t, pl.SaveNow(context.Background()))
	pl.Notify(slidesTitled("two"))
	require.NoError(t, pl.SaveNow(context.Background()))

	calls := f.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "create", calls[0].op)
	assert.Equal(t, "update", calls[1].op)
	assert.Equal(t, "deck-1", calls[1].deckID)
	assert.False(t, pl.HasChanges())
}

func TestSamePayloadTwiceStillClears(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: time.Hour})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)
	s := slidesTitled("same")
	for i := 0; i < 2; i++ {
		pl.Notify(s)
		assert.True(t, pl.HasChanges())
		require.NoError(t, pl.SaveNow(context.Background()))
		assert.False(t, pl.HasChanges())
	}
	assert.Len(t, f.snapshot(), 2)
}

func TestFailureKeepsChanges(t *testing.T) {
	f := &fakePersister{fail: []error{errors.New("boom")}}
	var statuses []Status
	var smu sync.Mutex
	pl := newPipeline(t, f, Options{Debounce: time.Hour, OnStatus: func(s Status, _ error) {
		smu.Lock()
		statuses = append(statuses, s)
		smu.Unlock()
	}})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("x"))
	err := pl.SaveNow(context.Background())
	require.Error(t, err)
	assert.True(t, pl.HasChanges())
	st, lastErr := pl.Status()
	assert.Equal(t, StatusError, st)
	assert.EqualError(t, lastErr, "boom")

	require.NoError(t, pl.SaveNow(context.Background()))
	assert.False(t, pl.HasChanges())
	smu.Lock()
	defer smu.Unlock()
	assert.Equal(t, []Status{StatusPending, StatusSaving, StatusError, StatusSaving, StatusSaved}, statuses)
}

func TestSaveNowSupersedesPendingDebounce(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: 30 * time.Millisecond})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("x"))
	require.NoError(t, pl.SaveNow(context.Background()))
	time.Sleep(80 * time.Millisecond)
	assert.Len(t, f.snapshot(), 1)
}

func TestOverlappingSavesCreateOnce(t *testing.T) {
	f := &fakePersister{block: make(chan struct{})}
	var created atomic.Int32
	pl := newPipeline(t, f, Options{Debounce: time.Hour, OnCreated: func(string) { created.Add(1) }})
	pl.Hydrated("", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("first"))
	errs := make(chan error, 2)
	go func() { errs <- pl.SaveNow(context.Background()) }()
	require.Eventually(t, func() bool { return len(f.snapshot()) == 1 }, time.Second, time.Millisecond)

	pl.Notify(slidesTitled("second"))
	go func() { errs <- pl.SaveNow(context.Background()) }()
	// let the second save queue up behind the first
	time.Sleep(20 * time.Millisecond)
	close(f.block)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	calls := f.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "create", calls[0].op)
	assert.Equal(t, "update", calls[1].op)
	assert.Equal(t, "second", calls[1].slides[0].Title)
	assert.Equal(t, int32(1), created.Load())
	assert.False(t, pl.HasChanges())
}

func TestStaleGenerationIsSkipped(t *testing.T) {
	f := &fakePersister{}
	pl := newPipeline(t, f, Options{Debounce: time.Hour})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)
	pl.Notify(slidesTitled("x"))

	pl.mu.Lock()
	pl.gen = 5
	pl.mu.Unlock()
	require.NoError(t, pl.persist(context.Background(), 4))
	assert.Empty(t, f.snapshot())
	assert.True(t, pl.HasChanges())
}

func TestRetries(t *testing.T) {
	f := &fakePersister{fail: []error{errors.New("net"), errors.New("net")}}
	pl := newPipeline(t, f, Options{Debounce: time.Hour, Retries: 2, RetryBackoff: time.Millisecond})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)
	pl.Notify(slidesTitled("x"))
	require.NoError(t, pl.SaveNow(context.Background()))
	assert.Len(t, f.snapshot(), 3)

	f2 := &fakePersister{fail: []error{permErr{}}}
	pl2 := newPipeline(t, f2, Options{Debounce: time.Hour, Retries: 3, RetryBackoff: time.Millisecond})
	pl2.Hydrated("deck-1", nil)
	ready(t, pl2)
	pl2.Notify(slidesTitled("x"))
	require.Error(t, pl2.SaveNow(context.Background()))
	assert.Len(t, f2.snapshot(), 1)
}

func TestCloseCancelsPending(t *testing.T) {
	f := &fakePersister{}
	pl := New(f, "p1", Options{Debounce: 20 * time.Millisecond, HydrationGrace: time.Millisecond})
	pl.Hydrated("deck-1", nil)
	ready(t, pl)
	pl.Notify(slidesTitled("x"))
	pl.Close()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, f.snapshot())
	assert.ErrorIs(t, pl.SaveNow(context.Background()), ErrClosed)
	pl.Notify(slidesTitled("y"))
	assert.False(t, pl.task.Pending())
}

func TestTaskArmCancel(t *testing.T) {
	var n atomic.Int32
	task := NewTask(20*time.Millisecond, func() { n.Add(1) })
	task.Arm()
	task.Arm()
	assert.True(t, task.Pending())
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, task.Pending())

	task.Arm()
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestCreateConflictSwitchesToUpdate(t *testing.T) {
	f := &fakePersister{fail: []error{conflictErr{}}}
	var created []string
	pl := New(findingPersister{fakePersister: f, existing: "deck-9"}, "p1", Options{
		HydrationGrace: time.Millisecond,
		OnCreated:      func(id string) { created = append(created, id) },
	})
	t.Cleanup(pl.Close)
	pl.Hydrated("", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("a"))
	require.NoError(t, pl.SaveNow(t.Context()))
	assert.Equal(t, "deck-9", pl.DeckID())
	assert.False(t, pl.HasChanges())
	assert.Empty(t, created)

	pl.Notify(slidesTitled("b"))
	require.NoError(t, pl.SaveNow(t.Context()))
	calls := f.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"create", "update", "update"}, []string{calls[0].op, calls[1].op, calls[2].op})
	assert.Equal(t, "deck-9", calls[1].deckID)
	assert.Equal(t, "b", calls[2].slides[0].Title)
}

func TestCreateConflictWithoutLookupFails(t *testing.T) {
	f := &fakePersister{fail: []error{conflictErr{}}}
	pl := newPipeline(t, f, Options{})
	pl.Hydrated("", nil)
	ready(t, pl)

	pl.Notify(slidesTitled("a"))
	require.Error(t, pl.SaveNow(t.Context()))
	assert.Empty(t, pl.DeckID())
	assert.True(t, pl.HasChanges())
}
