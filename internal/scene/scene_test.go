/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
)

func deckOf(n int) []domain.Slide {
	out := make([]domain.Slide, n)
	for i := range out {
		out[i] = domain.NewSlide(domain.SlideContent, "ocean")
		out[i].Title = string(rune('A' + i))
	}
	return out
}

func TestNewEmptyUsesDefaultDeck(t *testing.T) {
	sc := New(nil)
	require.Equal(t, 1, sc.Len())
	s := sc.CurrentSlide()
	assert.Equal(t, domain.SlideTitle, s.Type)
	assert.Equal(t, catalog.DefaultTemplate().ID, s.Template)
	assert.NotNil(t, s.Media)
	assert.NotNil(t, s.Elements)
}

func TestDeleteLastSlideRejected(t *testing.T) {
	sc := New(deckOf(1))
	calls := 0
	sc.Subscribe(func(Snapshot) { calls++ })
	err := sc.DeleteSlide()
	require.ErrorIs(t, err, ErrLastSlide)
	assert.Equal(t, 1, sc.Len())
	assert.Zero(t, calls)
}

func TestDeleteSlideClampsCurrent(t *testing.T) {
	for _, start := range []int{0, 1, 2, 3} {
		sc := New(deckOf(4))
		require.NoError(t, sc.SelectSlide(start))
		removed := sc.CurrentSlide().ID
		require.NoError(t, sc.DeleteSlide())
		assert.Equal(t, 3, sc.Len())
		assert.Equal(t, max(0, start-1), sc.Current(), "start %d", start)
		for _, s := range sc.Slides() {
			assert.NotEqual(t, removed, s.ID)
		}
	}
}

func TestAddSlideInheritsTemplateAndBecomesCurrent(t *testing.T) {
	sc := New(deckOf(3))
	require.NoError(t, sc.SelectSlide(1))
	added, err := sc.AddSlide()
	require.NoError(t, err)
	assert.Equal(t, 4, sc.Len())
	assert.Equal(t, 2, sc.Current())
	assert.Equal(t, "ocean", added.Template)
	assert.Equal(t, added.ID, sc.Slides()[2].ID)
	assert.NotEqual(t, sc.Slides()[1].ID, added.ID)
}

func TestDuplicateIsDeep(t *testing.T) {
	sc := New(deckOf(1))
	m, err := sc.AddMedia(domain.Media{URL: "https://example.com/a.png"})
	require.NoError(t, err)
	ic, _ := catalog.IconByID("rocket")
	e, err := sc.AddElement(ic, domain.ElementIcon)
	require.NoError(t, err)

	dup, err := sc.DuplicateSlide()
	require.NoError(t, err)
	require.Equal(t, 2, sc.Len())
	assert.Equal(t, 1, sc.Current())
	require.Len(t, dup.Media, 1)
	require.Len(t, dup.Elements, 1)
	assert.NotEqual(t, m.ID, dup.Media[0].ID)
	assert.NotEqual(t, e.ID, dup.Elements[0].ID)

	// editing the copy leaves the original alone
	require.NoError(t, sc.UpdateMediaPosition(dup.Media[0].ID, 0, 0))
	orig := sc.Slides()[0]
	assert.Equal(t, m.X, orig.Media[0].X)
}

func TestUpdateSlideOutOfRange(t *testing.T) {
	sc := New(deckOf(2))
	err := sc.UpdateSlide(5, FieldTitle, "x")
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	err = sc.UpdateSlide(-1, FieldTitle, "x")
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestUpdateSlideFields(t *testing.T) {
	sc := New(deckOf(2))
	require.NoError(t, sc.UpdateSlide(1, FieldTitle, "Traction"))
	require.NoError(t, sc.UpdateSlide(1, FieldType, "title"))
	require.NoError(t, sc.UpdateSlide(1, FieldCustomColors, &domain.Colors{BG: "#000", Text: "#fff", Accent: "#f00"}))
	require.NoError(t, sc.UpdateSlide(1, FieldTitleStyle, &domain.TextStyle{FontSize: domain.Float(60)}))
	s := sc.Slides()[1]
	assert.Equal(t, "Traction", s.Title)
	assert.Equal(t, domain.SlideTitle, s.Type)
	assert.Equal(t, "#000", s.CustomColors.BG)
	assert.Equal(t, 60.0, *s.TitleStyle.FontSize)
	assert.Equal(t, 0, sc.Current())

	assert.ErrorIs(t, sc.UpdateSlide(0, "subtitle", "x"), ErrUnknownField)
	assert.ErrorIs(t, sc.UpdateSlide(0, FieldTitle, 42), ErrFieldType)
	require.NoError(t, sc.UpdateSlide(1, FieldCustomColors, nil))
	assert.Nil(t, sc.Slides()[1].CustomColors)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	sc := New(deckOf(1))
	before := sc.Snapshot()
	_, err := sc.AddMedia(domain.Media{})
	require.NoError(t, err)
	assert.Empty(t, before.Slides[0].Media)
	after := sc.Snapshot()
	assert.Len(t, after.Slides[0].Media, 1)
	assert.Greater(t, after.Rev, before.Rev)
}

func TestListenersSeeEveryMutation(t *testing.T) {
	sc := New(deckOf(1))
	var got []int
	unsub := sc.Subscribe(func(s Snapshot) { got = append(got, len(s.Slides)) })
	sc.AddSlide()
	sc.AddSlide()
	require.NoError(t, sc.DeleteSlide())
	unsub()
	sc.AddSlide()
	assert.Equal(t, []int{2, 3, 2}, got)
}

func TestElementPatchIsPartial(t *testing.T) {
	sc := New(deckOf(1))
	e, err := sc.AddTextBlock()
	require.NoError(t, err)
	require.NoError(t, sc.UpdateTextElement(e.ID, domain.ElementPatch{Text: domain.String("Hello")}))
	got, ok := sc.Element(e.ID)
	require.True(t, ok)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, e.X, got.X)
	assert.Equal(t, domain.DefaultTextFontSize, got.FontSize)
	assert.NotEmpty(t, got.Color)

	assert.ErrorIs(t, sc.UpdateTextElement(e.ID, domain.ElementPatch{Size: domain.Float(20)}), ErrWrongKind)
	assert.ErrorIs(t, sc.UpdateElementProps("missing", domain.ElementPatch{}), ErrItemNotFound)
	assert.ErrorIs(t, sc.DeleteMedia("missing"), ErrItemNotFound)
}

func TestAddIconPlacement(t *testing.T) {
	sc := New(deckOf(1))
	ic, _ := catalog.IconByID("rocket")
	for i := 0; i < 50; i++ {
		e, err := sc.AddElement(ic, domain.ElementIcon)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, e.X, 20.0)
		assert.LessOrEqual(t, e.X, 60.0)
		assert.GreaterOrEqual(t, e.Y, 20.0)
		assert.LessOrEqual(t, e.Y, 60.0)
		assert.Equal(t, domain.DefaultIconSize, e.Size)
		assert.Equal(t, "rocket", e.ElementID)
		assert.Equal(t, ic.DefaultColor, e.Color)
	}
	_, err := sc.AddElement(ic, "sticker")
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestZOrder(t *testing.T) {
	sc := New(deckOf(1))
	a, _ := sc.AddTextBlock()
	b, _ := sc.AddTextBlock()
	c, _ := sc.AddTextBlock()
	ids := func() []string {
		var out []string
		for _, e := range sc.CurrentSlide().Elements {
			out = append(out, e.ID)
		}
		return out
	}
	require.NoError(t, sc.BringToFront(a.ID))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, ids())
	require.NoError(t, sc.SendToBack(c.ID))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids())
}

func TestMoveSlide(t *testing.T) {
	sc := New(deckOf(4))
	require.NoError(t, sc.MoveSlide(0, 3))
	var titles string
	for _, s := range sc.Slides() {
		titles += s.Title
	}
	assert.Equal(t, "BCDA", titles)
	assert.Equal(t, 3, sc.Current())
	assert.ErrorIs(t, sc.MoveSlide(0, 9), ErrIndexOutOfRange)
}

func TestMoveTextBlockMaterializesDefaults(t *testing.T) {
	sc := New(deckOf(1))
	require.NoError(t, sc.MoveTextBlock(FieldContent, geometry.Pt{X: 2, Y: 100}))
	st := sc.CurrentSlide().ContentStyle
	require.NotNil(t, st)
	assert.Equal(t, 7.0, *st.X)
	assert.Equal(t, 90.0, *st.Y)
	assert.Nil(t, sc.CurrentSlide().TitleStyle)
}

func TestReplaceAll(t *testing.T) {
	sc := New(deckOf(5))
	require.NoError(t, sc.SelectSlide(4))
	assert.ErrorIs(t, sc.ReplaceAll(nil), ErrEmptyDeck)
	assert.Equal(t, 5, sc.Len())
	require.NoError(t, sc.ReplaceAll(deckOf(3)))
	assert.Equal(t, 3, sc.Len())
	assert.Equal(t, 0, sc.Current())
}

func TestEditsStopAtSharedLimits(t *testing.T) {
	sc := New(deckOf(1))
	calls := 0
	sc.Subscribe(func(Snapshot) { calls++ })

	assert.ErrorIs(t, sc.UpdateSlide(0, FieldTitle, strings.Repeat("x", domain.MaxTitleLen+1)), ErrTooLong)
	assert.ErrorIs(t, sc.UpdateSlide(0, FieldContent, strings.Repeat("x", domain.MaxContentLen+1)), ErrTooLong)
	e, err := sc.AddTextBlock()
	require.NoError(t, err)
	calls = 0
	long := domain.ElementPatch{Text: domain.String(strings.Repeat("x", domain.MaxTextLen+1))}
	assert.ErrorIs(t, sc.UpdateTextElement(e.ID, long), ErrTooLong)
	assert.Zero(t, calls, "rejected edits publish nothing")
	assert.Equal(t, "A", sc.CurrentSlide().Title)

	require.NoError(t, sc.ReplaceAll(deckOf(domain.MaxSlides-1)))
	_, err = sc.AddSlide()
	require.NoError(t, err)
	_, err = sc.AddSlide()
	assert.ErrorIs(t, err, ErrDeckFull)
	_, err = sc.DuplicateSlide()
	assert.ErrorIs(t, err, ErrDeckFull)
	assert.Equal(t, domain.MaxSlides, sc.Len())

	assert.ErrorIs(t, sc.ReplaceAll(deckOf(domain.MaxSlides+1)), ErrDeckFull)
	assert.Equal(t, domain.MaxSlides, sc.Len())
}

func TestNaNFontSizeFallsBackToMinimum(t *testing.T) {
	sc := New(deckOf(1))
	e, err := sc.AddTextBlock()
	require.NoError(t, err)
	require.NoError(t, sc.UpdateElementProps(e.ID, domain.ElementPatch{FontSize: domain.Float(math.NaN())}))
	got, ok := sc.Element(e.ID)
	require.True(t, ok)
	assert.Equal(t, geometry.FontMinSize, got.FontSize)
}

func TestItemInvariantsHoldUnderRandomEdits(t *testing.T) {
	sc := New(deckOf(1))
	r := rand.New(rand.NewPCG(1, 2))
	sc.rnd = r.Float64
	m, _ := sc.AddMedia(domain.Media{})
	ic, _ := catalog.IconByID("star")
	e, _ := sc.AddElement(ic, domain.ElementIcon)
	span := func() float64 { return r.Float64()*400 - 200 }
	for i := 0; i < 2000; i++ {
		switch r.IntN(4) {
		case 0:
			require.NoError(t, sc.UpdateMediaPosition(m.ID, span(), span()))
		case 1:
			require.NoError(t, sc.UpdateMediaSize(m.ID, span(), span()))
		case 2:
			require.NoError(t, sc.UpdateElementProps(e.ID, domain.ElementPatch{X: domain.Float(span()), Y: domain.Float(span())}))
		case 3:
			require.NoError(t, sc.UpdateElementProps(e.ID, domain.ElementPatch{Size: domain.Float(span() * 2)}))
		}
		s := sc.CurrentSlide()
		mm, ee := s.Media[0], s.Elements[0]
		require.True(t, mm.Width >= 10 && mm.Width <= 90 && mm.Height >= 10 && mm.Height <= 90 &&
			mm.X >= 0 && mm.X <= 100-mm.Width && mm.Y >= 0 && mm.Y <= 100-mm.Height,
			"media out of bounds after step %d: %+v", i, mm)
		require.True(t, ee.X >= 0 && ee.X <= 90 && ee.Y >= 0 && ee.Y <= 90 && ee.Size >= 16 && ee.Size <= 200,
			"element out of bounds after step %d: %+v", i, ee)
	}
}
