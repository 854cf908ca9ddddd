/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry implements the percentage-space math behind direct
// manipulation on the slide canvas. Positions and sizes are expressed as
// 0..100 values relative to the canvas, so layout is independent of the
// on-screen pixel size. Out-of-range input is never an error; every
// operation clamps.
package geometry

import "math"

// Canvas limits, all in percentage points except the pixel-sized icon and font bounds.
const (
	CanvasMax        = 100.0
	ElementMax       = 90.0
	MediaMinSize     = 10.0
	MediaMaxSize     = 90.0
	IconMinSize      = 16.0
	IconMaxSize      = 200.0
	FontMinSize      = 8.0
	FontMaxSize      = 200.0
	textResizeFactor = 0.5
)

// Pt is a 2D point or delta.
type Pt struct{ X, Y float64 }

// Size is a width/height pair, typically the canvas size in pixels.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Scale maps a percentage rect onto a pixel surface of the given size.
func (r Rect) Scale(s Size) Rect {
	return Rect{X: r.X * s.W / 100, Y: r.Y * s.H / 100, W: r.W * s.W / 100, H: r.H * s.H / 100}
}

// Clamp limits v to [lo, hi]. NaN maps to lo; an inverted range collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if hi < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToPercent converts a pointer delta in pixels into a percentage-space delta
// for a canvas of the given pixel size. A degenerate canvas yields no movement.
func ToPercent(d Pt, canvas Size) Pt {
	var out Pt
	if canvas.W > 0 {
		out.X = d.X / canvas.W * 100
	}
	if canvas.H > 0 {
		out.Y = d.Y / canvas.H * 100
	}
	return out
}

// DragMedia moves a media box by d, keeping the whole box on the canvas.
func DragMedia(r Rect, d Pt) Rect {
	r.X = Clamp(r.X+d.X, 0, CanvasMax-r.W)
	r.Y = Clamp(r.Y+d.Y, 0, CanvasMax-r.H)
	return r
}

// ResizeMedia grows or shrinks a media box on both axes independently.
// The position is re-clamped so the box never leaves the canvas.
func ResizeMedia(r Rect, d Pt) Rect {
	r.W = Clamp(r.W+d.X, MediaMinSize, MediaMaxSize)
	r.H = Clamp(r.H+d.Y, MediaMinSize, MediaMaxSize)
	return ClampMedia(r)
}

// ClampMedia forces a media box into its invariant: size in [10,90] and the
// box fully inside the canvas.
func ClampMedia(r Rect) Rect {
	r.W = Clamp(r.W, MediaMinSize, MediaMaxSize)
	r.H = Clamp(r.H, MediaMinSize, MediaMaxSize)
	r.X = Clamp(r.X, 0, CanvasMax-r.W)
	r.Y = Clamp(r.Y, 0, CanvasMax-r.H)
	return r
}

// DragElement moves an element anchor; elements keep 10 points of headroom
// on the right and bottom edge.
func DragElement(p Pt, d Pt) Pt {
	return ClampElement(Pt{X: p.X + d.X, Y: p.Y + d.Y})
}

// ClampElement forces an element anchor into [0,90] on both axes.
func ClampElement(p Pt) Pt {
	return Pt{X: Clamp(p.X, 0, ElementMax), Y: Clamp(p.Y, 0, ElementMax)}
}

// Handle identifies a resize handle by the direction in which dragging it
// grows the target. The zero value is treated as the bottom-right corner.
type Handle struct{ SignX, SignY int }

var (
	HandleTopLeft     = Handle{SignX: -1, SignY: -1}
	HandleTopRight    = Handle{SignX: 1, SignY: -1}
	HandleBottomLeft  = Handle{SignX: -1, SignY: 1}
	HandleBottomRight = Handle{SignX: 1, SignY: 1}
)

func (h Handle) normalized() Handle {
	if h.SignX == 0 && h.SignY == 0 {
		return HandleBottomRight
	}
	return h
}

// ResizeIcon scales an icon from a corner handle. The size delta is the
// dominant axis of the movement, signed so that dragging away from the icon
// grows it regardless of which corner was grabbed.
func ResizeIcon(size float64, d Pt, h Handle) float64 {
	h = h.normalized()
	dx := d.X * float64(h.SignX)
	dy := d.Y * float64(h.SignY)
	delta := dx
	if math.Abs(dy) > math.Abs(dx) {
		delta = dy
	}
	return ClampIconSize(size + delta)
}

func ClampIconSize(size float64) float64 { return Clamp(size, IconMinSize, IconMaxSize) }

// ResizeText adjusts a font size from the font-size handle: half a point per
// percentage point of horizontal movement, rounded to an integer.
func ResizeText(fontSize float64, d Pt) float64 {
	return ClampFontSize(fontSize + d.X*textResizeFactor)
}

// ClampFontSize rounds and bounds a font size.
func ClampFontSize(fs float64) float64 {
	return math.Round(Clamp(fs, FontMinSize, FontMaxSize))
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
