/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/autosave"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/scene"
	"pitchdeck/internal/suggest"
)

var (
	_ autosave.Persister = (*Client)(nil)
	_ suggest.Generator  = (*Client)(nil)
)

func newClientTest(t *testing.T) *Client {
	t.Helper()
	store := NewMemoryStore()
	_, err := store.CreateProject(t.Context(), domain.Project{ID: "p1", Name: "Acme", Description: "bakery robots"})
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(store, testSecret, suggest.LocalGenerator{}, nil).WithDevTokens().Handler())
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "")
	tok, exp, err := c.IssueToken(t.Context(), "client-test", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	c.Token = tok
	return c
}

func TestClient_CreateThenUpdate(t *testing.T) {
	c := newClientTest(t)
	ctx := t.Context()

	_, d, err := c.Hydrate(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, d)

	id, err := c.CreateDeck(ctx, "p1", "modern-blue", testSlides("Acme"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = c.CreateDeck(ctx, "p1", "modern-blue", testSlides("Acme"))
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, c.UpdateDeck(ctx, "p1", id, testSlides("Acme", "Team")))

	p, d, err := c.Hydrate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	require.Len(t, d.Slides, 2)
	assert.Equal(t, "Team", d.Slides[1].Title)
	assert.NotNil(t, d.Slides[1].Media)
}

func TestClient_Errors(t *testing.T) {
	c := newClientTest(t)
	ctx := t.Context()

	_, _, err := c.Hydrate(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.UpdateDeck(ctx, "p1", "", testSlides("x"))
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.True(t, he.Permanent())

	c.Token = "bad"
	_, err = c.GetProject(ctx, "p1")
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Contains(t, he.Error(), "invalid token")
}

func TestClient_Generate(t *testing.T) {
	c := newClientTest(t)
	cands, err := suggest.Generate(t.Context(), c, "Solar panels for balconies")
	require.NoError(t, err)
	assert.Len(t, cands, suggest.CandidateCount)

	_, err = c.Generate(t.Context(), "")
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestHTTPError_Permanent(t *testing.T) {
	assert.False(t, (&HTTPError{Status: 500}).Permanent())
	assert.False(t, (&HTTPError{Status: 429}).Permanent())
	assert.True(t, (&HTTPError{Status: 422}).Permanent())
	assert.ErrorIs(t, &HTTPError{Status: 409}, ErrConflict)
	assert.NotErrorIs(t, &HTTPError{Status: 500}, ErrNotFound)
}

func TestClient_SceneAtLimitsIsAccepted(t *testing.T) {
	c := newClientTest(t)
	ctx := t.Context()

	sc := scene.New(nil)
	require.NoError(t, sc.UpdateSlide(0, scene.FieldType, "section"))
	require.NoError(t, sc.UpdateSlide(0, scene.FieldTitle, strings.Repeat("é", domain.MaxTitleLen)))
	require.NoError(t, sc.UpdateSlide(0, scene.FieldContent, strings.Repeat("x", domain.MaxContentLen)))
	require.NoError(t, sc.UpdateSlide(0, scene.FieldTitleStyle, &domain.TextStyle{FontSize: domain.Float(0), Align: domain.String("middle")}))
	_, err := sc.AddMedia(domain.Media{URL: strings.Repeat("u", domain.MaxURLLen)})
	require.NoError(t, err)
	e, err := sc.AddTextBlock()
	require.NoError(t, err)
	require.NoError(t, sc.UpdateTextElement(e.ID, domain.ElementPatch{Text: domain.String(strings.Repeat("t", domain.MaxTextLen))}))
	for sc.Len() < domain.MaxSlides {
		_, err := sc.AddSlide()
		require.NoError(t, err)
	}

	// one past each limit is refused by the scene and never reaches the server
	_, err = sc.AddSlide()
	assert.ErrorIs(t, err, scene.ErrDeckFull)
	_, err = sc.DuplicateSlide()
	assert.ErrorIs(t, err, scene.ErrDeckFull)
	assert.ErrorIs(t, sc.UpdateSlide(0, scene.FieldTitle, strings.Repeat("x", domain.MaxTitleLen+1)), scene.ErrTooLong)
	assert.ErrorIs(t, sc.UpdateSlide(0, scene.FieldContent, strings.Repeat("x", domain.MaxContentLen+1)), scene.ErrTooLong)
	require.NoError(t, sc.SelectSlide(0))
	assert.ErrorIs(t, sc.UpdateTextElement(e.ID, domain.ElementPatch{Text: domain.String(strings.Repeat("t", domain.MaxTextLen+1))}), scene.ErrTooLong)
	_, err = sc.AddMedia(domain.Media{URL: strings.Repeat("u", domain.MaxURLLen+1)})
	assert.ErrorIs(t, err, scene.ErrTooLong)
	_, err = sc.AddMedia(domain.Media{Type: "gif"})
	assert.ErrorIs(t, err, domain.ErrBadKind)
	require.Len(t, sc.Slides(), domain.MaxSlides)

	id, err := c.CreateDeck(ctx, "p1", "modern-blue", sc.Slides())
	require.NoError(t, err)
	require.NoError(t, c.UpdateDeck(ctx, "p1", id, sc.Slides()))

	_, d, err := c.Hydrate(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Len(t, d.Slides, domain.MaxSlides)
	assert.Equal(t, domain.SlideType("section"), d.Slides[0].Type)
}

func TestClient_AutosaveAdoptsDeckCreatedElsewhere(t *testing.T) {
	c := newClientTest(t)
	ctx := t.Context()

	pl := autosave.New(c, "p1", autosave.Options{HydrationGrace: time.Hour})
	t.Cleanup(pl.Close)
	pl.Hydrated("", nil)

	other, err := c.CreateDeck(ctx, "p1", "modern-blue", testSlides("From another tab"))
	require.NoError(t, err)

	for _, title := range []string{"Mine", "Mine again"} {
		pl.Adopt(testSlides(title))
		require.NoError(t, pl.SaveNow(ctx))
		assert.Equal(t, other, pl.DeckID())
		assert.False(t, pl.HasChanges())

		_, d, err := c.Hydrate(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, title, d.Slides[0].Title)
	}
}
