/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuidesCenterOnCanvas(t *testing.T) {
	g := Guides(R(40.2, 10, 20, 20), []Rect{Canvas}, 0)
	assert.Equal(t, []Guide{{Orientation: Vertical, Kind: GuideCenter, Pos: 50, From: 0, To: 100}}, g)
}

func TestGuidesEdgesAgainstAnchor(t *testing.T) {
	anchor := R(60, 30, 10, 10)
	// left edge of the moving rect meets the anchor's right edge; tops align
	g := Guides(R(70.3, 30.1, 10, 4), []Rect{anchor}, 0.5)
	require.Len(t, g, 2)
	assert.Equal(t, Vertical, g[0].Orientation)
	assert.Equal(t, GuideEdge, g[0].Kind)
	assert.Equal(t, 70.0, g[0].Pos)
	assert.Equal(t, Horizontal, g[1].Orientation)
	assert.Equal(t, 30.0, g[1].Pos)
	assert.Equal(t, 60.0, g[1].From)
	assert.Equal(t, 80.3, g[1].To)
}

func TestGuidesPrefersClosest(t *testing.T) {
	far := R(20.4, 80, 0, 0)
	near := R(20.1, 90, 0, 0)
	g := Guides(R(20, 0, 0, 0), []Rect{far, near}, 0.5)
	require.Len(t, g, 1)
	assert.Equal(t, 20.1, g[0].Pos)
}

func TestGuidesNoneOutsideTolerance(t *testing.T) {
	assert.Empty(t, Guides(R(12, 12, 5, 5), []Rect{R(30, 30, 5, 5)}, 1))
}
