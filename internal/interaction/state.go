/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interaction turns pointer and keyboard input on the slide canvas
// into scene mutations. The editor is always in exactly one State; what is
// selected is tracked separately in a Selection.
package interaction

import (
	"fmt"

	"pitchdeck/internal/geometry"
	"pitchdeck/internal/scene"
)

// TargetKind says what a pointer landed on.
type TargetKind int

const (
	TargetMedia TargetKind = iota + 1
	TargetElement
	TargetTitle
	TargetContent
)

func (k TargetKind) String() string {
	switch k {
	case TargetMedia:
		return "media"
	case TargetElement:
		return "element"
	case TargetTitle:
		return "title"
	case TargetContent:
		return "content"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// Target is a draggable thing on the current slide. ID is empty for the
// title and content blocks.
type Target struct {
	Kind TargetKind
	ID   string
}

func Media(id string) Target   { return Target{Kind: TargetMedia, ID: id} }
func Element(id string) Target { return Target{Kind: TargetElement, ID: id} }

var (
	TitleBlock   = Target{Kind: TargetTitle}
	ContentBlock = Target{Kind: TargetContent}
)

func (t Target) field() scene.Field {
	if t.Kind == TargetTitle {
		return scene.FieldTitle
	}
	return scene.FieldContent
}

// ResizeKind tags which handle started a resize.
type ResizeKind string

const (
	// KindResize is the box handle of media and icons.
	KindResize ResizeKind = "resize"
	// KindTextResize is the font-size handle of text.
	KindTextResize ResizeKind = "textResize"
)

// State is one of Idle, Dragging, Resizing, EditingText, EditingSlideField.
type State interface {
	Name() string
	state()
}

type Idle struct{}

// Dragging moves Target with the pointer. Origin is the last pointer
// position seen, in pixels.
type Dragging struct {
	Target Target
	Origin geometry.Pt
	Canvas geometry.Size
}

type Resizing struct {
	Target Target
	Kind   ResizeKind
	Handle geometry.Handle
	Origin geometry.Pt
	Canvas geometry.Size
}

// EditingText is in-place editing of a free text element.
type EditingText struct{ ElementID string }

// EditingSlideField is inline editing of the slide title or content.
type EditingSlideField struct{ Field scene.Field }

func (Idle) Name() string              { return "idle" }
func (Dragging) Name() string          { return "dragging" }
func (Resizing) Name() string          { return "resizing" }
func (EditingText) Name() string       { return "editingText" }
func (EditingSlideField) Name() string { return "editingSlideField" }

func (Idle) state()              {}
func (Dragging) state()          {}
func (Resizing) state()          {}
func (EditingText) state()       {}
func (EditingSlideField) state() {}

// Selection holds at most one selected item. Block is set when the title or
// content block is selected.
type Selection struct {
	MediaID   string
	ElementID string
	Block     scene.Field
}

func (s Selection) Empty() bool { return s == Selection{} }

func selectionFor(t Target) Selection {
	switch t.Kind {
	case TargetMedia:
		return Selection{MediaID: t.ID}
	case TargetElement:
		return Selection{ElementID: t.ID}
	default:
		return Selection{Block: t.field()}
	}
}

// Panel is the active tool panel of the editor sidebar.
type Panel string

const (
	PanelSlides    Panel = "slides"
	PanelTemplates Panel = "templates"
	PanelText      Panel = "text"
	PanelElements  Panel = "elements"
	PanelMedia     Panel = "media"
	PanelAI        Panel = "ai"
)
