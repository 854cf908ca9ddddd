/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package outline turns a plain text outline into slides.
//
// Each heading ("# Title" or "Slide: Title") starts a slide. Lines below it
// become the slide content; "- " and "* " items become bullets and lines
// indented by two or more spaces continue the previous line. A few "key:
// value" directives (template, type, icon, image, video) set properties of
// the slide instead of adding content. Lines starting with ';' are speaker
// notes and are kept out of the deck.
package outline

import "fmt"

// Outline is a parsed outline with one section per slide.
type Outline struct {
	Sections []Section
}

type Section struct {
	Title  string
	LineNo int
	Lines  []Line
}

// LineType indicates the kind of an outline line.
type LineType int

const (
	LineText LineType = iota
	LineBullet
	LineDirective
	LineNote
)

// Line is one logical line (continuations folded in) of a section. Key is
// set for directives only.
type Line struct {
	Type   LineType
	Key    string
	Text   string
	LineNo int // 1-based
}

// Error is a problem at a position in the outline. Parsing and building keep
// going after an error.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message) }
