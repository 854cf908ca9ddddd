/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/scene"
)

var (
	ErrUnsupported = errors.New("operation not supported for this target")
	ErrNotText     = errors.New("element is not a text element")
)

// Key is a keyboard key the canvas reacts to.
type Key string

const (
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
	KeyLeft      Key = "ArrowLeft"
	KeyRight     Key = "ArrowRight"
	KeyUp        Key = "ArrowUp"
	KeyDown      Key = "ArrowDown"
)

// nudgeStep is how far an arrow key moves the selection, in percentage points.
const nudgeStep = 1.0

// Controller is safe for concurrent use; input is applied in call order.
type Controller struct {
	mu    sync.Mutex
	sc    *scene.Scene
	state State
	sel   Selection
	panel Panel
	l     *slog.Logger
}

func NewController(sc *scene.Scene) *Controller {
	return &Controller{sc: sc, state: Idle{}, panel: PanelSlides, l: applog.WithComponent("interaction")}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

func (c *Controller) Panel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

func (c *Controller) SetPanel(p Panel) {
	c.mu.Lock()
	c.panel = p
	c.mu.Unlock()
}

// Reset drops any gesture, edit and selection, e.g. when another slide is
// shown or the whole deck was replaced.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = Idle{}
	c.sel = Selection{}
	c.mu.Unlock()
}

// PointerDown starts dragging t. The target becomes the only selection.
// Pressing on the text element being edited keeps the edit going.
func (c *Controller) PointerDown(t Target, at geometry.Pt, canvas geometry.Size) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkTarget(t); err != nil {
		return err
	}
	if ed, ok := c.state.(EditingText); ok && t.Kind == TargetElement && ed.ElementID == t.ID {
		return nil
	}
	c.sel = selectionFor(t)
	c.state = Dragging{Target: t, Origin: at, Canvas: canvas}
	return nil
}

// HandleDown starts a resize from one of the target's handles.
func (c *Controller) HandleDown(t Target, kind ResizeKind, h geometry.Handle, at geometry.Pt, canvas geometry.Size) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkTarget(t); err != nil {
		return err
	}
	if err := c.checkResize(t, kind); err != nil {
		return err
	}
	c.sel = selectionFor(t)
	c.state = Resizing{Target: t, Kind: kind, Handle: h, Origin: at, Canvas: canvas}
	return nil
}

// PointerMove applies the movement since the last event to the active
// gesture and re-captures the origin. Without a gesture it does nothing.
func (c *Controller) PointerMove(at geometry.Pt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	switch st := c.state.(type) {
	case Dragging:
		err = c.drag(st.Target, geometry.ToPercent(delta(st.Origin, at), st.Canvas))
		st.Origin = at
		c.state = st
	case Resizing:
		err = c.resize(st, geometry.ToPercent(delta(st.Origin, at), st.Canvas))
		st.Origin = at
		c.state = st
	default:
		return nil
	}
	if errors.Is(err, scene.ErrItemNotFound) {
		// the target went away under the pointer
		c.l.Debug("gesture target vanished", slog.String("state", c.state.Name()))
		c.state = Idle{}
		c.sel = Selection{}
	}
	return err
}

// PointerUp ends any drag or resize.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case Dragging, Resizing:
		c.state = Idle{}
	}
}

// PointerLeave behaves like PointerUp when the pointer leaves the canvas.
func (c *Controller) PointerLeave() { c.PointerUp() }

// ClickCanvas is a click on empty canvas: it clears selection and ends any edit.
func (c *Controller) ClickCanvas() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = Selection{}
	c.state = Idle{}
}

// DoubleClickText enters in-place editing of a text element and shows the
// text tool panel.
func (c *Controller) DoubleClickText(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sc.Element(id)
	if !ok {
		return fmt.Errorf("edit text %s: %w", id, scene.ErrItemNotFound)
	}
	if e.Type != domain.ElementText {
		return fmt.Errorf("edit text %s: %w", id, ErrNotText)
	}
	c.sel = Selection{ElementID: id}
	c.state = EditingText{ElementID: id}
	c.panel = PanelText
	return nil
}

// EditSlideField enters inline editing of the slide title or content.
func (c *Controller) EditSlideField(f scene.Field) error {
	if f != scene.FieldTitle && f != scene.FieldContent {
		return fmt.Errorf("edit slide field %q: %w", f, scene.ErrUnknownField)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = Selection{Block: f}
	c.state = EditingSlideField{Field: f}
	return nil
}

// KeyDown handles canvas shortcuts. Keys are ignored while text is being
// typed.
func (c *Controller) KeyDown(k Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case EditingText, EditingSlideField:
		if k == KeyEscape {
			c.state = Idle{}
		}
		return nil
	}
	switch k {
	case KeyEscape:
		c.sel = Selection{}
		c.state = Idle{}
		return nil
	case KeyDelete, KeyBackspace:
		return c.deleteSelection()
	case KeyLeft:
		return c.nudge(geometry.Pt{X: -nudgeStep})
	case KeyRight:
		return c.nudge(geometry.Pt{X: nudgeStep})
	case KeyUp:
		return c.nudge(geometry.Pt{Y: -nudgeStep})
	case KeyDown:
		return c.nudge(geometry.Pt{Y: nudgeStep})
	}
	return nil
}

func (c *Controller) deleteSelection() error {
	var err error
	switch {
	case c.sel.MediaID != "":
		err = c.sc.DeleteMedia(c.sel.MediaID)
	case c.sel.ElementID != "":
		err = c.sc.DeleteElement(c.sel.ElementID)
	default:
		return nil
	}
	c.sel = Selection{}
	c.state = Idle{}
	return err
}

func (c *Controller) nudge(d geometry.Pt) error {
	switch {
	case c.sel.MediaID != "":
		return c.drag(Media(c.sel.MediaID), d)
	case c.sel.ElementID != "":
		return c.drag(Element(c.sel.ElementID), d)
	case c.sel.Block == scene.FieldTitle:
		return c.drag(TitleBlock, d)
	case c.sel.Block == scene.FieldContent:
		return c.drag(ContentBlock, d)
	}
	return nil
}

func (c *Controller) checkTarget(t Target) error {
	switch t.Kind {
	case TargetMedia:
		if _, ok := c.sc.Media(t.ID); !ok {
			return fmt.Errorf("media %s: %w", t.ID, scene.ErrItemNotFound)
		}
	case TargetElement:
		if _, ok := c.sc.Element(t.ID); !ok {
			return fmt.Errorf("element %s: %w", t.ID, scene.ErrItemNotFound)
		}
	case TargetTitle, TargetContent:
	default:
		return fmt.Errorf("target %v: %w", t.Kind, ErrUnsupported)
	}
	return nil
}

func (c *Controller) checkResize(t Target, kind ResizeKind) error {
	switch kind {
	case KindResize:
		if t.Kind == TargetMedia {
			return nil
		}
		if e, _ := c.sc.Element(t.ID); t.Kind == TargetElement && e.Type == domain.ElementIcon {
			return nil
		}
	case KindTextResize:
		if t.Kind == TargetTitle || t.Kind == TargetContent {
			return nil
		}
		if e, _ := c.sc.Element(t.ID); t.Kind == TargetElement && e.Type == domain.ElementText {
			return nil
		}
	}
	return fmt.Errorf("%s on %v: %w", kind, t.Kind, ErrUnsupported)
}

func delta(from, to geometry.Pt) geometry.Pt {
	return geometry.Pt{X: to.X - from.X, Y: to.Y - from.Y}
}
