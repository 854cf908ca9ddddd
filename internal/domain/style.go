/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "pitchdeck/internal/geometry"

// EffectiveStyle is a TextStyle with every field materialized.
// An empty Color means "use the slide's resolved text color".
type EffectiveStyle struct {
	X, Y          float64
	FontSize      float64
	FontWeight    string
	FontFamily    string
	Color         string
	Italic        bool
	Underline     bool
	Strikethrough bool
	Align         string
}

// Defaults for the slide title and content blocks.
var (
	TitleDefaults = EffectiveStyle{
		X: 5, Y: 10, FontSize: 48, FontWeight: "bold", FontFamily: DefaultFontFamily, Align: "left",
	}
	ContentDefaults = EffectiveStyle{
		X: 5, Y: 30, FontSize: 24, FontWeight: "normal", FontFamily: DefaultFontFamily, Align: "left",
	}
)

// Effective resolves s against def. A nil style yields def.
func (s *TextStyle) Effective(def EffectiveStyle) EffectiveStyle {
	out := def
	if s == nil {
		return out
	}
	setF(&out.X, s.X)
	setF(&out.Y, s.Y)
	setF(&out.FontSize, s.FontSize)
	setS(&out.FontWeight, s.FontWeight)
	setS(&out.FontFamily, s.FontFamily)
	setS(&out.Color, s.Color)
	setB(&out.Italic, s.Italic)
	setB(&out.Underline, s.Underline)
	setB(&out.Strikethrough, s.Strikethrough)
	setS(&out.Align, s.Align)
	return out
}

// Clone deep-copies the style.
func (s *TextStyle) Clone() *TextStyle {
	if s == nil {
		return nil
	}
	out := &TextStyle{}
	if s.X != nil {
		out.X = Float(*s.X)
	}
	if s.Y != nil {
		out.Y = Float(*s.Y)
	}
	if s.FontSize != nil {
		out.FontSize = Float(*s.FontSize)
	}
	if s.FontWeight != nil {
		out.FontWeight = String(*s.FontWeight)
	}
	if s.FontFamily != nil {
		out.FontFamily = String(*s.FontFamily)
	}
	if s.Color != nil {
		out.Color = String(*s.Color)
	}
	if s.Italic != nil {
		out.Italic = Bool(*s.Italic)
	}
	if s.Underline != nil {
		out.Underline = Bool(*s.Underline)
	}
	if s.Strikethrough != nil {
		out.Strikethrough = Bool(*s.Strikethrough)
	}
	if s.Align != nil {
		out.Align = String(*s.Align)
	}
	return out
}

// WithPos returns a copy of s placed at p, materializing nothing else.
func (s *TextStyle) WithPos(p geometry.Pt) *TextStyle {
	out := s.Clone()
	if out == nil {
		out = &TextStyle{}
	}
	out.X = Float(p.X)
	out.Y = Float(p.Y)
	return out
}

func (s *TextStyle) clampPos() *TextStyle {
	out := s.Clone()
	if out.X != nil {
		out.X = Float(geometry.Clamp(*out.X, 0, geometry.ElementMax))
	}
	if out.Y != nil {
		out.Y = Float(geometry.Clamp(*out.Y, 0, geometry.ElementMax))
	}
	return out
}
