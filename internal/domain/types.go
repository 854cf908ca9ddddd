/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the pitch deck document model exchanged with the backend.
// The JSON shape is the wire format: slides are persisted and returned
// verbatim, so field names follow the web client's camelCase.

import (
	"time"

	"pitchdeck/internal/geometry"
)

// Project is the read-only projection of the owning business project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Deck is the ordered set of slides for one project.
// It is created on first save and replaced wholesale on every later save.
type Deck struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId,omitempty"`
	Template  string    `json:"template,omitempty"`
	Slides    []Slide   `json:"slides"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type SlideType string

const (
	SlideTitle   SlideType = "title"
	SlideContent SlideType = "content"
)

// Slide is one page of the deck. Media and Elements are never nil once
// normalized; element order is draw order (later entries on top).
type Slide struct {
	ID           string     `json:"id"`
	Type         SlideType  `json:"type"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	TitleStyle   *TextStyle `json:"titleStyle,omitempty"`
	ContentStyle *TextStyle `json:"contentStyle,omitempty"`
	Template     string     `json:"template,omitempty"`
	CustomColors *Colors    `json:"customColors,omitempty"`
	Media        []Media    `json:"media"`
	Elements     []Element  `json:"elements"`
}

// Colors is a background/text/accent triple of CSS colors.
type Colors struct {
	BG     string `json:"bg"`
	Text   string `json:"text"`
	Accent string `json:"accent"`
}

// TextStyle positions and decorates a slide's title or content block.
// Every field is optional; see EffectiveStyle for the defaults.
type TextStyle struct {
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
	FontSize      *float64 `json:"fontSize,omitempty"`
	FontWeight    *string  `json:"fontWeight,omitempty"`
	FontFamily    *string  `json:"fontFamily,omitempty"`
	Color         *string  `json:"color,omitempty"`
	Italic        *bool    `json:"italic,omitempty"`
	Underline     *bool    `json:"underline,omitempty"`
	Strikethrough *bool    `json:"strikethrough,omitempty"`
	Align         *string  `json:"align,omitempty"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is an image or video placed on a slide. Geometry is in percent of the canvas.
type Media struct {
	ID      string    `json:"id"`
	Type    MediaType `json:"type"`
	URL     string    `json:"url"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	IsEmbed bool      `json:"isEmbed,omitempty"`
	IsLocal bool      `json:"isLocal,omitempty"`
}

// Box returns the media geometry as a percentage rect.
func (m Media) Box() geometry.Rect { return geometry.R(m.X, m.Y, m.Width, m.Height) }

// WithBox returns a copy of m with the given geometry.
func (m Media) WithBox(r geometry.Rect) Media {
	m.X, m.Y, m.Width, m.Height = r.X, r.Y, r.W, r.H
	return m
}

type ElementType string

const (
	ElementText ElementType = "text"
	ElementIcon ElementType = "icon"
)

// Element is a free text block or a catalog icon layered on a slide.
// Text fields are used when Type is text; ElementID and Size when Type is icon.
type Element struct {
	ID    string      `json:"id"`
	Type  ElementType `json:"type"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Color string      `json:"color,omitempty"`

	Text          string  `json:"text,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontWeight    string  `json:"fontWeight,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty"`
	Italic        bool    `json:"italic,omitempty"`
	Underline     bool    `json:"underline,omitempty"`
	Strikethrough bool    `json:"strikethrough,omitempty"`
	Align         string  `json:"align,omitempty"`
	Rotation      float64 `json:"rotation,omitempty"`
	Effect        string  `json:"effect,omitempty"`
	Animation     string  `json:"animation,omitempty"`

	ElementID string  `json:"elementId,omitempty"`
	Size      float64 `json:"size,omitempty"`
}

// Pos returns the element anchor.
func (e Element) Pos() geometry.Pt { return geometry.Pt{X: e.X, Y: e.Y} }

// WithPos returns a copy of e moved to p.
func (e Element) WithPos(p geometry.Pt) Element {
	e.X, e.Y = p.X, p.Y
	return e
}
