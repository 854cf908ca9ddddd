/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
	"pitchdeck/internal/scene"
)

var canvas500 = geometry.Size{W: 500, H: 500}

func setup(t *testing.T) (*scene.Scene, *Controller) {
	t.Helper()
	sc := scene.New(nil)
	return sc, NewController(sc)
}

func addIcon(t *testing.T, sc *scene.Scene, id string) domain.Element {
	t.Helper()
	ic, ok := catalog.IconByID(id)
	require.True(t, ok)
	e, err := sc.AddElement(ic, domain.ElementIcon)
	require.NoError(t, err)
	return e
}

func TestDragIconByPixels(t *testing.T) {
	sc, c := setup(t)
	e := addIcon(t, sc, "rocket")

	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{X: 100, Y: 100}, canvas500))
	require.NoError(t, c.PointerMove(geometry.Pt{X: 150, Y: 150}))
	c.PointerUp()

	got, _ := sc.Element(e.ID)
	assert.InDelta(t, min(e.X+10, 90), got.X, 1e-9)
	assert.InDelta(t, min(e.Y+10, 90), got.Y, 1e-9)
	assert.Equal(t, "idle", c.State().Name())
	assert.Equal(t, Selection{ElementID: e.ID}, c.Selection())
}

func TestDragAccumulatesPerEvent(t *testing.T) {
	sc, c := setup(t)
	e := addIcon(t, sc, "star")
	require.NoError(t, sc.UpdateElementProps(e.ID, domain.ElementPatch{X: domain.Float(85), Y: domain.Float(10)}))

	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	// push past the right edge, then come back: clamping happens per event
	require.NoError(t, c.PointerMove(geometry.Pt{X: 100}))
	require.NoError(t, c.PointerMove(geometry.Pt{X: 50}))
	got, _ := sc.Element(e.ID)
	assert.InDelta(t, 80.0, got.X, 1e-9)
	d := c.State().(Dragging)
	assert.Equal(t, geometry.Pt{X: 50}, d.Origin)
}

func TestPointerMoveWhileIdleIsNoop(t *testing.T) {
	sc, c := setup(t)
	before := sc.Snapshot().Rev
	require.NoError(t, c.PointerMove(geometry.Pt{X: 300, Y: 300}))
	assert.Equal(t, before, sc.Snapshot().Rev)
}

func TestSelectionIsExclusive(t *testing.T) {
	sc, c := setup(t)
	m, err := sc.AddMedia(domain.Media{URL: "u"})
	require.NoError(t, err)
	e := addIcon(t, sc, "target")

	require.NoError(t, c.PointerDown(Media(m.ID), geometry.Pt{}, canvas500))
	c.PointerUp()
	assert.Equal(t, Selection{MediaID: m.ID}, c.Selection())
	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	c.PointerLeave()
	assert.Equal(t, Selection{ElementID: e.ID}, c.Selection())
	assert.Equal(t, "idle", c.State().Name())

	c.ClickCanvas()
	assert.True(t, c.Selection().Empty())
}

func TestPointerDownUnknownTarget(t *testing.T) {
	_, c := setup(t)
	err := c.PointerDown(Element("ghost"), geometry.Pt{}, canvas500)
	assert.ErrorIs(t, err, scene.ErrItemNotFound)
	assert.Equal(t, "idle", c.State().Name())
}

func TestResizeIconFromTopLeft(t *testing.T) {
	sc, c := setup(t)
	e := addIcon(t, sc, "rocket")
	require.NoError(t, c.HandleDown(Element(e.ID), KindResize, geometry.HandleTopLeft, geometry.Pt{X: 200, Y: 200}, canvas500))
	// moving up-left grows the icon from the top-left handle
	require.NoError(t, c.PointerMove(geometry.Pt{X: 150, Y: 175}))
	got, _ := sc.Element(e.ID)
	assert.InDelta(t, domain.DefaultIconSize+10, got.Size, 1e-9)
	c.PointerUp()
	assert.Equal(t, "idle", c.State().Name())
}

func TestResizeMediaAndClamp(t *testing.T) {
	sc, c := setup(t)
	m, err := sc.AddMedia(domain.Media{X: 50, Y: 50, Width: 30, Height: 30})
	require.NoError(t, err)
	require.NoError(t, c.HandleDown(Media(m.ID), KindResize, geometry.HandleBottomRight, geometry.Pt{}, canvas500))
	require.NoError(t, c.PointerMove(geometry.Pt{X: 100, Y: -1000}))
	got, _ := sc.Media(m.ID)
	assert.InDelta(t, 50.0, got.Width, 1e-9)
	assert.InDelta(t, 10.0, got.Height, 1e-9)
	assert.LessOrEqual(t, got.X+got.Width, 100.0)
}

func TestTextResize(t *testing.T) {
	sc, c := setup(t)
	e, err := sc.AddTextBlock()
	require.NoError(t, err)
	require.Error(t, c.HandleDown(Element(e.ID), KindResize, geometry.HandleBottomRight, geometry.Pt{}, canvas500))
	require.NoError(t, c.HandleDown(Element(e.ID), KindTextResize, geometry.Handle{}, geometry.Pt{}, canvas500))
	require.NoError(t, c.PointerMove(geometry.Pt{X: 100}))
	got, _ := sc.Element(e.ID)
	assert.Equal(t, 34.0, got.FontSize)

	require.NoError(t, c.HandleDown(TitleBlock, KindTextResize, geometry.Handle{}, geometry.Pt{}, canvas500))
	require.NoError(t, c.PointerMove(geometry.Pt{X: -5000}))
	st := sc.CurrentSlide().TitleStyle
	require.NotNil(t, st)
	assert.Equal(t, 8.0, *st.FontSize)
}

func TestDragTitleBlock(t *testing.T) {
	sc, c := setup(t)
	require.NoError(t, c.PointerDown(TitleBlock, geometry.Pt{}, canvas500))
	require.NoError(t, c.PointerMove(geometry.Pt{X: 25, Y: -100}))
	st := sc.CurrentSlide().TitleStyle
	require.NotNil(t, st)
	assert.InDelta(t, 10.0, *st.X, 1e-9)
	assert.InDelta(t, 0.0, *st.Y, 1e-9)
	assert.Equal(t, Selection{Block: scene.FieldTitle}, c.Selection())
}

func TestDoubleClickTextEntersEditing(t *testing.T) {
	sc, c := setup(t)
	e, _ := sc.AddTextBlock()
	icon := addIcon(t, sc, "rocket")

	assert.ErrorIs(t, c.DoubleClickText(icon.ID), ErrNotText)
	require.NoError(t, c.DoubleClickText(e.ID))
	assert.Equal(t, EditingText{ElementID: e.ID}, c.State())
	assert.Equal(t, PanelText, c.Panel())

	// pressing inside the edited element keeps editing
	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	assert.Equal(t, EditingText{ElementID: e.ID}, c.State())
	// pressing elsewhere leaves it
	require.NoError(t, c.PointerDown(Element(icon.ID), geometry.Pt{}, canvas500))
	assert.Equal(t, "dragging", c.State().Name())
}

func TestEditSlideField(t *testing.T) {
	_, c := setup(t)
	require.NoError(t, c.EditSlideField(scene.FieldContent))
	assert.Equal(t, EditingSlideField{Field: scene.FieldContent}, c.State())
	assert.ErrorIs(t, c.EditSlideField(scene.FieldTemplate), scene.ErrUnknownField)
	// typing keys do not delete the selection while editing
	require.NoError(t, c.KeyDown(KeyBackspace))
	c.ClickCanvas()
	assert.Equal(t, "idle", c.State().Name())
}

func TestDeleteAndNudgeKeys(t *testing.T) {
	sc, c := setup(t)
	e := addIcon(t, sc, "rocket")
	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	c.PointerUp()

	require.NoError(t, c.KeyDown(KeyRight))
	require.NoError(t, c.KeyDown(KeyDown))
	got, _ := sc.Element(e.ID)
	assert.InDelta(t, e.X+1, got.X, 1e-9)
	assert.InDelta(t, e.Y+1, got.Y, 1e-9)

	require.NoError(t, c.KeyDown(KeyDelete))
	_, ok := sc.Element(e.ID)
	assert.False(t, ok)
	assert.True(t, c.Selection().Empty())
}

func TestVanishedTargetEndsGesture(t *testing.T) {
	sc, c := setup(t)
	e := addIcon(t, sc, "rocket")
	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	require.NoError(t, sc.DeleteElement(e.ID))
	err := c.PointerMove(geometry.Pt{X: 10})
	assert.ErrorIs(t, err, scene.ErrItemNotFound)
	assert.Equal(t, "idle", c.State().Name())
}

func TestGuidesWhileDragging(t *testing.T) {
	sc, c := setup(t)
	_, err := sc.AddMedia(domain.Media{URL: "https://example.com/a.png", X: 30, Y: 30, Width: 40, Height: 40})
	require.NoError(t, err)
	e := addIcon(t, sc, "rocket")
	require.NoError(t, sc.UpdateElementProps(e.ID, domain.ElementPatch{X: domain.Float(40), Y: domain.Float(10)}))
	assert.Empty(t, c.Guides(), "no guides while idle")

	require.NoError(t, c.PointerDown(Element(e.ID), geometry.Pt{}, canvas500))
	assert.Empty(t, c.Guides())
	require.NoError(t, c.PointerMove(geometry.Pt{X: 49, Y: 0}))
	g := c.Guides()
	require.Len(t, g, 1)
	assert.Equal(t, geometry.Vertical, g[0].Orientation)
	assert.InDelta(t, 50, g[0].Pos, 1e-9)

	c.PointerUp()
	assert.Empty(t, c.Guides())
}
