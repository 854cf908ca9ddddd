/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/backend"
	"pitchdeck/internal/config"
	"pitchdeck/internal/crash"
	"pitchdeck/internal/domain"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/present"
	"pitchdeck/internal/storage"
	"pitchdeck/internal/suggest"
)

func testApp(t *testing.T, input string) (*app, *strings.Builder) {
	t.Helper()
	t.Setenv("PDK_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("OPENAI_API_KEY", "unused")
	var out strings.Builder
	return &app{
		cfg:   config.Defaults(),
		out:   &out,
		in:    strings.NewReader(input),
		l:     applog.WithComponent("cli"),
		crash: &crash.Handle{},
	}, &out
}

func deckFile(t *testing.T, titles ...string) string {
	t.Helper()
	deck := domain.Deck{ID: "d1", ProjectID: "p1", Template: "modern-blue"}
	for _, title := range titles {
		s := domain.NewSlide(domain.SlideContent, "modern-blue")
		s.Title = title
		deck.Slides = append(deck.Slides, s)
	}
	path := filepath.Join(t.TempDir(), "acme"+storage.DeckFileExt)
	require.NoError(t, storage.SaveDeckFile(path, domain.Project{ID: "p1", Name: "Acme"}, deck))
	return path
}

func TestParseSlides(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1", want: []int{0}},
		{in: "1, 3-5", want: []int{0, 2, 3, 4}},
		{in: "2-2", want: []int{1}},
		{in: "0", wantErr: true},
		{in: "3-1", wantErr: true},
		{in: "a", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseSlides(tc.in)
			if tc.wantErr {
				var ue usageError
				require.ErrorAs(t, err, &ue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadDeckFromFile(t *testing.T) {
	a, _ := testApp(t, "")
	path := deckFile(t, "Intro", "Problem")

	p, d, err := loadDeck(t.Context(), a, path, "")
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)
	require.Len(t, d.Slides, 2)
	assert.Equal(t, "Problem", d.Slides[1].Title)

	_, _, err = loadDeck(t.Context(), a, path, "p1")
	var ue usageError
	assert.ErrorAs(t, err, &ue)
	_, _, err = loadDeck(t.Context(), a, "", "")
	assert.ErrorAs(t, err, &ue)
}

func TestRunTemplates(t *testing.T) {
	a, out := testApp(t, "")
	require.NoError(t, runTemplates(t.Context(), a, nil))
	assert.Contains(t, out.String(), "modern-blue")
	assert.Contains(t, out.String(), "startup-orange")

	a, out = testApp(t, "")
	require.NoError(t, runTemplates(t.Context(), a, []string{"-icons"}))
	assert.Contains(t, out.String(), "rocket")
}

func TestPlayback(t *testing.T) {
	p := present.New(present.SlideList(deckOf("One", "Two", "Three")))
	p.Enter(0)
	var out strings.Builder
	sc := bufio.NewScanner(strings.NewReader("n\nN\nn\nbogus\np\nq\n"))
	require.NoError(t, playback(t.Context(), p, sc, &out))
	assert.False(t, p.Presenting())

	got := out.String()
	assert.Contains(t, got, "1/3")
	assert.Contains(t, got, "3/3")
	assert.Equal(t, 1, p.Index(), "q leaves from the second slide")
}

func TestPlaybackEndsWithInput(t *testing.T) {
	p := present.New(present.SlideList(deckOf("One")))
	p.Enter(0)
	var out strings.Builder
	require.NoError(t, playback(t.Context(), p, bufio.NewScanner(strings.NewReader("")), &out))
	assert.False(t, p.Presenting())
}

func TestRunPresentFromFile(t *testing.T) {
	a, out := testApp(t, "G\nq\n")
	path := deckFile(t, "Intro", "Problem", "Ask")
	require.NoError(t, runPresent(t.Context(), a, []string{"-file", path, "-start", "2"}))
	assert.Contains(t, out.String(), "2/3")
	assert.Contains(t, out.String(), "Ask")
}

func TestListDrafts(t *testing.T) {
	d, err := storage.OpenDrafts(storage.DraftsPath(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	var out strings.Builder
	require.NoError(t, listDrafts(t.Context(), d, "", 10, &out))
	assert.Contains(t, out.String(), "no unsaved drafts")

	_, err = d.Save(t.Context(), storage.Draft{ProjectID: "p1", Slides: deckOf("A", "B"), Reason: storage.ReasonCrash})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, listDrafts(t.Context(), d, "", 10, &out))
	assert.Equal(t, "p1\n", out.String())

	out.Reset()
	require.NoError(t, listDrafts(t.Context(), d, "p1", 10, &out))
	assert.Contains(t, out.String(), "crash")
	assert.Contains(t, out.String(), "2 slides")

	assert.Error(t, listDrafts(t.Context(), d, "other", 10, &out))
}

func TestEditAgainstServer(t *testing.T) {
	srv := httptest.NewServer(backend.NewServer(backend.NewMemoryStore(), "secret", suggest.LocalGenerator{}, nil).WithDevTokens().Handler())
	t.Cleanup(srv.Close)
	client := backend.NewClient(srv.URL, "")
	tok, _, err := client.IssueToken(t.Context(), "tester", time.Hour)
	require.NoError(t, err)
	client.Token = tok
	_, err = client.CreateProject(t.Context(), domain.Project{ID: "p1", Name: "Acme"})
	require.NoError(t, err)

	input := strings.Join([]string{
		"undo",
		"title Acme Rockets",
		"icon rocket",
		"add",
		`content one\ntwo`,
		"show",
		"bogus",
		"go 9",
		"save",
		"quit",
	}, "\n") + "\n"
	a, out := testApp(t, input)
	a.cfg.Backend.BaseURL = srv.URL
	a.token = tok
	require.NoError(t, runEdit(t.Context(), a, []string{"-project", "p1"}))

	got := out.String()
	assert.Contains(t, got, `Editing "Acme"`)
	assert.Contains(t, got, "nothing to undo")
	assert.Contains(t, got, `unknown command "bogus"`)
	assert.Contains(t, got, "! That slide does not exist.")
	assert.Contains(t, got, "saved")
	assert.NotNil(t, a.crash.Snapshot, "the crash handle follows the session")

	deck, err := client.GetDeck(t.Context(), "p1")
	require.NoError(t, err)
	require.NotNil(t, deck)
	require.Len(t, deck.Slides, 2)
	assert.Equal(t, "Acme Rockets", deck.Slides[0].Title)
	require.Len(t, deck.Slides[0].Elements, 1)
	assert.Equal(t, "rocket", deck.Slides[0].Elements[0].ElementID)
	assert.Equal(t, "one\ntwo", deck.Slides[1].Content)
}

func TestEditRequiresProject(t *testing.T) {
	a, _ := testApp(t, "")
	var ue usageError
	assert.ErrorAs(t, runEdit(t.Context(), a, nil), &ue)
}

func deckOf(titles ...string) []domain.Slide {
	var out []domain.Slide
	for _, title := range titles {
		s := domain.NewSlide(domain.SlideContent, "modern-blue")
		s.Title = title
		out = append(out, s)
	}
	return out
}

func TestRunImportToFile(t *testing.T) {
	a, out := testApp(t, "# Acme\nRockets for everyone\n# Problem\n- Too expensive\nicon: rocket\n")
	path := filepath.Join(t.TempDir(), "acme"+storage.DeckFileExt)
	require.NoError(t, runImport(t.Context(), a, []string{"-in", "-", "-out", path, "-template", "dark-elegant"}))
	assert.Contains(t, out.String(), "2 slides imported")

	df, err := storage.OpenDeckFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", df.Project.Name)
	require.Len(t, df.Deck.Slides, 2)
	assert.Equal(t, "dark-elegant", df.Deck.Slides[1].Template)
	assert.Equal(t, "• Too expensive", df.Deck.Slides[1].Content)
}

func TestRunImportFlags(t *testing.T) {
	a, _ := testApp(t, "")
	var ue usageError
	assert.ErrorAs(t, runImport(t.Context(), a, []string{"-out", "x"}), &ue)
	assert.ErrorAs(t, runImport(t.Context(), a, []string{"-in", "-"}), &ue)

	a, _ = testApp(t, "; nothing but a note\n")
	assert.Error(t, runImport(t.Context(), a, []string{"-in", "-", "-out", filepath.Join(t.TempDir(), "x.deck.json")}))
}

func TestRunImportIntoProject(t *testing.T) {
	srv := httptest.NewServer(backend.NewServer(backend.NewMemoryStore(), "secret", suggest.LocalGenerator{}, nil).WithDevTokens().Handler())
	t.Cleanup(srv.Close)
	client := backend.NewClient(srv.URL, "")
	tok, _, err := client.IssueToken(t.Context(), "tester", time.Hour)
	require.NoError(t, err)
	client.Token = tok
	_, err = client.CreateProject(t.Context(), domain.Project{ID: "p1", Name: "Acme"})
	require.NoError(t, err)

	for _, input := range []string{"# First\n", "# Second\n# Third\n"} {
		a, _ := testApp(t, input)
		a.cfg.Backend.BaseURL = srv.URL
		a.token = tok
		require.NoError(t, runImport(t.Context(), a, []string{"-in", "-", "-project", "p1"}))
	}
	deck, err := client.GetDeck(t.Context(), "p1")
	require.NoError(t, err)
	require.NotNil(t, deck)
	require.Len(t, deck.Slides, 2)
	assert.Equal(t, "Second", deck.Slides[0].Title)
}
