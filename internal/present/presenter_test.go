/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package present

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
)

func threeSlides() SlideList {
	out := make(SlideList, 3)
	for i := range out {
		out[i] = domain.NewSlide(domain.SlideContent, "sunset")
	}
	out[2].CustomColors = &domain.Colors{BG: "#000000", Text: "#ffffff", Accent: "#ff0000"}
	return out
}

func TestNavigationBoundaries(t *testing.T) {
	p := New(threeSlides())
	p.Enter(0)
	require.True(t, p.Presenting())
	assert.True(t, p.HandleKey(KeyLeft))
	assert.Equal(t, 0, p.Index())

	p.Exit()
	p.Enter(2)
	assert.True(t, p.HandleKey(KeyRight))
	assert.Equal(t, 2, p.Index())
	assert.True(t, p.HandleKey(KeySpace))
	assert.Equal(t, 2, p.Index())

	p.HandleKey(KeyHome)
	assert.Equal(t, 0, p.Index())
	p.HandleKey(KeySpace)
	assert.Equal(t, 1, p.Index())
	p.HandleKey(KeyEnd)
	assert.Equal(t, 2, p.Index())
}

func TestKeysIgnoredWhenNotPresenting(t *testing.T) {
	p := New(threeSlides())
	assert.False(t, p.HandleKey(KeyRight))
	assert.Equal(t, 0, p.Index())
	_, ok := p.Current()
	assert.False(t, ok)

	p.Enter(1)
	assert.True(t, p.HandleKey(KeyEscape))
	assert.False(t, p.Presenting())
	assert.False(t, p.HandleKey(KeyLeft))
	assert.Equal(t, 1, p.Index())
}

func TestCurrentResolvesColors(t *testing.T) {
	slides := threeSlides()
	p := New(slides)
	var entered int
	p.OnEnter(func(n int) { entered = n })
	p.Enter(7)
	assert.Equal(t, 3, entered)
	f, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, 2, f.Index)
	assert.Equal(t, "#000000", f.Colors.BG)
	assert.Equal(t, "#ffffff", f.Title.Color)

	p.HandleKey(KeyLeft)
	f, _ = p.Current()
	sunset, _ := catalog.TemplateByID("sunset")
	assert.Equal(t, sunset.Colors, f.Colors)
	assert.Equal(t, 48.0, f.Title.FontSize)
}

func TestEmptySourceDoesNotPresent(t *testing.T) {
	p := New(SlideList{})
	p.Enter(0)
	assert.False(t, p.Presenting())
}
