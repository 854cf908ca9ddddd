/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Alignment guides shown while an item is dragged. They are feedback only:
// the dragged item is never moved onto a guide.

import "math"

// DefaultGuideTolerance is how close (in percentage points) two features
// must be to count as aligned.
const DefaultGuideTolerance = 0.5

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

type GuideKind string

const (
	GuideEdge   GuideKind = "edge"
	GuideCenter GuideKind = "center"
)

// Guide is a line at Pos (x for vertical guides, y for horizontal ones)
// spanning From..To along the other axis.
type Guide struct {
	Orientation Orientation
	Kind        GuideKind
	Pos         float64
	From, To    float64
}

// Canvas is the whole slide in percentage space.
var Canvas = Rect{W: CanvasMax, H: CanvasMax}

// Guides returns at most one vertical and one horizontal guide: the anchor
// feature closest to an edge or the center of moving, within tol. Points are
// passed as zero-size rects.
func Guides(moving Rect, anchors []Rect, tol float64) []Guide {
	if tol <= 0 {
		tol = DefaultGuideTolerance
	}
	bestX, bestY := math.Inf(1), math.Inf(1)
	var gx, gy Guide
	mx := [3]float64{moving.X, moving.X + moving.W/2, moving.X + moving.W}
	my := [3]float64{moving.Y, moving.Y + moving.H/2, moving.Y + moving.H}
	for _, a := range anchors {
		ax := [3]float64{a.X, a.X + a.W/2, a.X + a.W}
		ay := [3]float64{a.Y, a.Y + a.H/2, a.Y + a.H}
		for i, m := range mx {
			for j, v := range ax {
				if d := math.Abs(m - v); d <= tol && d < bestX {
					bestX = d
					gx = vertical(v, moving, a, kindOf(i, j))
				}
			}
		}
		for i, m := range my {
			for j, v := range ay {
				if d := math.Abs(m - v); d <= tol && d < bestY {
					bestY = d
					gy = horizontal(v, moving, a, kindOf(i, j))
				}
			}
		}
	}
	var out []Guide
	if !math.IsInf(bestX, 1) {
		out = append(out, gx)
	}
	if !math.IsInf(bestY, 1) {
		out = append(out, gy)
	}
	return out
}

// kindOf names the alignment of feature i of the moving rect with feature j
// of the anchor; index 1 is the center.
func kindOf(i, j int) GuideKind {
	if i == 1 && j == 1 {
		return GuideCenter
	}
	return GuideEdge
}

func vertical(x float64, a, b Rect, k GuideKind) Guide {
	return Guide{
		Orientation: Vertical,
		Kind:        k,
		Pos:         FloatRound(x, 3),
		From:        FloatRound(min(a.Y, b.Y), 3),
		To:          FloatRound(max(a.Y+a.H, b.Y+b.H), 3),
	}
}

func horizontal(y float64, a, b Rect, k GuideKind) Guide {
	return Guide{
		Orientation: Horizontal,
		Kind:        k,
		Pos:         FloatRound(y, 3),
		From:        FloatRound(min(a.X, b.X), 3),
		To:          FloatRound(max(a.X+a.W, b.X+b.W), 3),
	}
}
