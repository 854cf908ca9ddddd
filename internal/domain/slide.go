/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"pitchdeck/internal/geometry"
)

// Defaults applied to elements created without explicit values.
const (
	DefaultIconSize     = 48.0
	DefaultTextFontSize = 24.0
	DefaultFontFamily   = "Inter"
)

var (
	idMu      sync.Mutex
	lastStamp int64
	// now is swapped in tests.
	now = time.Now
)

// NewSlideID returns a timestamp-based slide id (unix milliseconds) that is
// strictly increasing within the process, even for calls in the same millisecond.
func NewSlideID() string {
	idMu.Lock()
	defer idMu.Unlock()
	stamp := now().UnixMilli()
	if stamp <= lastStamp {
		stamp = lastStamp + 1
	}
	lastStamp = stamp
	return strconv.FormatInt(stamp, 10)
}

// NewItemID returns a fresh id for media and elements.
func NewItemID() string { return uuid.NewString() }

// NewSlide returns an empty slide of the given type referencing template.
func NewSlide(typ SlideType, template string) Slide {
	return Slide{
		ID:       NewSlideID(),
		Type:     typ,
		Template: template,
		Media:    []Media{},
		Elements: []Element{},
	}
}

// Normalize replaces nil lists with empty ones so renderers never see null.
func (s *Slide) Normalize() {
	if s.Media == nil {
		s.Media = []Media{}
	}
	if s.Elements == nil {
		s.Elements = []Element{}
	}
	if s.Type == "" {
		s.Type = SlideContent
	}
}

// Clone returns a deep copy; the copy shares no slices or pointers with s.
func (s Slide) Clone() Slide {
	out := s
	out.TitleStyle = s.TitleStyle.Clone()
	out.ContentStyle = s.ContentStyle.Clone()
	if s.CustomColors != nil {
		c := *s.CustomColors
		out.CustomColors = &c
	}
	out.Media = append(make([]Media, 0, len(s.Media)), s.Media...)
	out.Elements = append(make([]Element, 0, len(s.Elements)), s.Elements...)
	return out
}

// Sanitize normalizes s and clamps every positioned item into its invariant.
func (s *Slide) Sanitize() {
	s.Normalize()
	for i, m := range s.Media {
		if m.Type == "" {
			m.Type = MediaImage
		}
		s.Media[i] = m.WithBox(geometry.ClampMedia(m.Box()))
	}
	for i, e := range s.Elements {
		s.Elements[i] = SanitizeElement(e)
	}
	if s.TitleStyle != nil {
		s.TitleStyle = s.TitleStyle.clampPos()
	}
	if s.ContentStyle != nil {
		s.ContentStyle = s.ContentStyle.clampPos()
	}
}

// SanitizeElement clamps an element's anchor and size fields.
func SanitizeElement(e Element) Element {
	e = e.WithPos(geometry.ClampElement(e.Pos()))
	switch e.Type {
	case ElementIcon:
		if e.Size == 0 {
			e.Size = DefaultIconSize
		}
		e.Size = geometry.ClampIconSize(e.Size)
	default:
		if e.FontSize == 0 {
			e.FontSize = DefaultTextFontSize
		}
		// text has no upper bound outside of resizing
		e.FontSize = geometry.Clamp(e.FontSize, geometry.FontMinSize, math.Inf(1))
	}
	return e
}

// CloneSlides deep-copies a slide list.
func CloneSlides(in []Slide) []Slide {
	if in == nil {
		return nil
	}
	out := make([]Slide, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// SanitizeSlides returns a deep, normalized and clamped copy of the list.
func SanitizeSlides(in []Slide) []Slide {
	out := CloneSlides(in)
	if out == nil {
		out = []Slide{}
	}
	for i := range out {
		out[i].Sanitize()
	}
	return out
}

// ElementPatch is a partial update; nil fields are left untouched.
type ElementPatch struct {
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
	Color         *string  `json:"color,omitempty"`
	Text          *string  `json:"text,omitempty"`
	FontSize      *float64 `json:"fontSize,omitempty"`
	FontWeight    *string  `json:"fontWeight,omitempty"`
	FontFamily    *string  `json:"fontFamily,omitempty"`
	Italic        *bool    `json:"italic,omitempty"`
	Underline     *bool    `json:"underline,omitempty"`
	Strikethrough *bool    `json:"strikethrough,omitempty"`
	Align         *string  `json:"align,omitempty"`
	Rotation      *float64 `json:"rotation,omitempty"`
	Effect        *string  `json:"effect,omitempty"`
	Animation     *string  `json:"animation,omitempty"`
	ElementID     *string  `json:"elementId,omitempty"`
	Size          *float64 `json:"size,omitempty"`
}

// Apply merges the patch onto e.
func (p ElementPatch) Apply(e Element) Element {
	setF(&e.X, p.X)
	setF(&e.Y, p.Y)
	setS(&e.Color, p.Color)
	setS(&e.Text, p.Text)
	setF(&e.FontSize, p.FontSize)
	setS(&e.FontWeight, p.FontWeight)
	setS(&e.FontFamily, p.FontFamily)
	setB(&e.Italic, p.Italic)
	setB(&e.Underline, p.Underline)
	setB(&e.Strikethrough, p.Strikethrough)
	setS(&e.Align, p.Align)
	setF(&e.Rotation, p.Rotation)
	setS(&e.Effect, p.Effect)
	setS(&e.Animation, p.Animation)
	setS(&e.ElementID, p.ElementID)
	setF(&e.Size, p.Size)
	return e
}

// TextOnly reports whether the patch touches only fields a text element owns.
func (p ElementPatch) TextOnly() bool { return p.ElementID == nil && p.Size == nil }

func setF(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setS(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setB(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Float, String and Bool build optional fields.
func Float(v float64) *float64 { return &v }
func String(v string) *string  { return &v }
func Bool(v bool) *bool        { return &v }
