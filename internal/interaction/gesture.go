/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"fmt"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
	"pitchdeck/internal/scene"
)

// drag moves t by d percentage points.
func (c *Controller) drag(t Target, d geometry.Pt) error {
	switch t.Kind {
	case TargetMedia:
		m, ok := c.sc.Media(t.ID)
		if !ok {
			return fmt.Errorf("drag media %s: %w", t.ID, scene.ErrItemNotFound)
		}
		r := geometry.DragMedia(m.Box(), d)
		return c.sc.UpdateMediaPosition(t.ID, r.X, r.Y)
	case TargetElement:
		e, ok := c.sc.Element(t.ID)
		if !ok {
			return fmt.Errorf("drag element %s: %w", t.ID, scene.ErrItemNotFound)
		}
		p := geometry.DragElement(e.Pos(), d)
		return c.sc.UpdateElementProps(t.ID, domain.ElementPatch{X: domain.Float(p.X), Y: domain.Float(p.Y)})
	case TargetTitle, TargetContent:
		return c.sc.MoveTextBlock(t.field(), d)
	}
	return fmt.Errorf("drag %v: %w", t.Kind, ErrUnsupported)
}

func (c *Controller) resize(st Resizing, d geometry.Pt) error {
	t := st.Target
	switch t.Kind {
	case TargetMedia:
		m, ok := c.sc.Media(t.ID)
		if !ok {
			return fmt.Errorf("resize media %s: %w", t.ID, scene.ErrItemNotFound)
		}
		r := geometry.ResizeMedia(m.Box(), d)
		return c.sc.UpdateMediaSize(t.ID, r.W, r.H)
	case TargetElement:
		e, ok := c.sc.Element(t.ID)
		if !ok {
			return fmt.Errorf("resize element %s: %w", t.ID, scene.ErrItemNotFound)
		}
		if st.Kind == KindTextResize {
			fs := geometry.ResizeText(e.FontSize, d)
			return c.sc.UpdateElementProps(t.ID, domain.ElementPatch{FontSize: domain.Float(fs)})
		}
		size := geometry.ResizeIcon(e.Size, d, st.Handle)
		return c.sc.UpdateElementProps(t.ID, domain.ElementPatch{Size: domain.Float(size)})
	case TargetTitle, TargetContent:
		return c.resizeBlock(t, d)
	}
	return fmt.Errorf("resize %v: %w", t.Kind, ErrUnsupported)
}

// resizeBlock changes the font size of the title or content block.
func (c *Controller) resizeBlock(t Target, d geometry.Pt) error {
	snap := c.sc.Snapshot()
	s := snap.CurrentSlide()
	style, def, field := s.TitleStyle, domain.TitleDefaults, scene.FieldTitleStyle
	if t.Kind == TargetContent {
		style, def, field = s.ContentStyle, domain.ContentDefaults, scene.FieldContentStyle
	}
	eff := style.Effective(def)
	next := style.Clone()
	if next == nil {
		next = &domain.TextStyle{}
	}
	next.FontSize = domain.Float(geometry.ResizeText(eff.FontSize, d))
	return c.sc.UpdateSlide(snap.Current, field, next)
}

// Guides returns the alignment guides for the item being dragged against the
// canvas and the other items of the slide. It is empty unless a media item or
// an element is being dragged.
func (c *Controller) Guides() []geometry.Guide {
	c.mu.Lock()
	st, ok := c.state.(Dragging)
	c.mu.Unlock()
	if !ok || (st.Target.Kind != TargetMedia && st.Target.Kind != TargetElement) {
		return nil
	}
	cur := c.sc.CurrentSlide()
	anchors := []geometry.Rect{geometry.Canvas}
	var moving geometry.Rect
	found := false
	for _, m := range cur.Media {
		if st.Target.Kind == TargetMedia && m.ID == st.Target.ID {
			moving, found = m.Box(), true
			continue
		}
		anchors = append(anchors, m.Box())
	}
	for _, e := range cur.Elements {
		r := geometry.R(e.X, e.Y, 0, 0)
		if st.Target.Kind == TargetElement && e.ID == st.Target.ID {
			moving, found = r, true
			continue
		}
		anchors = append(anchors, r)
	}
	if !found {
		return nil
	}
	return geometry.Guides(moving, anchors, geometry.DefaultGuideTolerance)
}
