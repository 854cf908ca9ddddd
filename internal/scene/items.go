/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
)

// Defaults for new items.
const (
	defaultMediaW  = 40.0
	defaultMediaH  = 30.0
	defaultIconHex = "#3b82f6"
	placeMin       = 20.0
	placeSpan      = 40.0
)

// AddMedia places m on the current slide. Missing id, type or size are
// filled in; the box is clamped onto the canvas.
func (sc *Scene) AddMedia(m domain.Media) (domain.Media, error) {
	if m.ID == "" {
		m.ID = domain.NewItemID()
	}
	if m.Type == "" {
		m.Type = domain.MediaImage
	}
	if m.Width == 0 && m.Height == 0 {
		m.Width, m.Height = defaultMediaW, defaultMediaH
		m.X, m.Y = (geometry.CanvasMax-m.Width)/2, (geometry.CanvasMax-m.Height)/2
	}
	m = m.WithBox(geometry.ClampMedia(m.Box()))
	err := sc.editCurrent("add media", func(s *domain.Slide) error {
		s.Media = append(s.Media, m)
		return nil
	})
	return m, err
}

// UpdateMediaPosition moves a media item, keeping it inside the canvas.
func (sc *Scene) UpdateMediaPosition(id string, x, y float64) error {
	return sc.updateMedia("update media position", id, func(m domain.Media) domain.Media {
		r := m.Box()
		r.X, r.Y = x, y
		return m.WithBox(geometry.ClampMedia(r))
	})
}

// UpdateMediaSize resizes a media item and re-clamps its position.
func (sc *Scene) UpdateMediaSize(id string, w, h float64) error {
	return sc.updateMedia("update media size", id, func(m domain.Media) domain.Media {
		r := m.Box()
		r.W, r.H = w, h
		return m.WithBox(geometry.ClampMedia(r))
	})
}

func (sc *Scene) updateMedia(op, id string, fn func(domain.Media) domain.Media) error {
	return sc.editCurrent(op, func(s *domain.Slide) error {
		i := mediaIndex(s.Media, id)
		if i < 0 {
			return fmt.Errorf("media %s: %w", id, ErrItemNotFound)
		}
		s.Media[i] = fn(s.Media[i])
		return nil
	})
}

// DeleteMedia removes a media item from the current slide.
func (sc *Scene) DeleteMedia(id string) error {
	return sc.editCurrent("delete media", func(s *domain.Slide) error {
		i := mediaIndex(s.Media, id)
		if i < 0 {
			return fmt.Errorf("media %s: %w", id, ErrItemNotFound)
		}
		s.Media = append(s.Media[:i], s.Media[i+1:]...)
		return nil
	})
}

// AddElement places a catalog item on the current slide at a random spot in
// the middle of the canvas. An icon takes the descriptor's id and color; a
// text element takes its name as the initial text.
func (sc *Scene) AddElement(desc catalog.Icon, kind domain.ElementType) (domain.Element, error) {
	e := domain.Element{
		ID:   domain.NewItemID(),
		Type: kind,
		X:    geometry.FloatRound(placeMin+sc.rnd()*placeSpan, 2),
		Y:    geometry.FloatRound(placeMin+sc.rnd()*placeSpan, 2),
	}
	switch kind {
	case domain.ElementIcon:
		e.ElementID = desc.ID
		e.Size = domain.DefaultIconSize
		e.Color = desc.DefaultColor
		if e.Color == "" {
			e.Color = defaultIconHex
		}
	case domain.ElementText:
		e.Text = desc.Name
		e.FontSize = domain.DefaultTextFontSize
		e.FontWeight = "normal"
		e.FontFamily = domain.DefaultFontFamily
	default:
		return domain.Element{}, fmt.Errorf("add element %q: %w", kind, ErrWrongKind)
	}
	e = domain.SanitizeElement(e)
	err := sc.editCurrent("add element", func(s *domain.Slide) error {
		if e.Type == domain.ElementText && e.Color == "" {
			e.Color = catalog.ResolveColors(*s).Text
		}
		s.Elements = append(s.Elements, e)
		return nil
	})
	return e, err
}

// AddTextBlock adds a free text element with default styling.
func (sc *Scene) AddTextBlock() (domain.Element, error) {
	return sc.AddElement(catalog.Icon{Name: "New text"}, domain.ElementText)
}

// UpdateElementProps merges patch into the element; unspecified fields are kept.
func (sc *Scene) UpdateElementProps(id string, patch domain.ElementPatch) error {
	return sc.updateElement("update element", id, func(e domain.Element) (domain.Element, error) {
		return patch.Apply(e), nil
	})
}

// UpdateTextElement merges patch into a text element.
func (sc *Scene) UpdateTextElement(id string, patch domain.ElementPatch) error {
	return sc.updateElement("update text element", id, func(e domain.Element) (domain.Element, error) {
		if e.Type != domain.ElementText || !patch.TextOnly() {
			return e, fmt.Errorf("element %s: %w", id, ErrWrongKind)
		}
		return patch.Apply(e), nil
	})
}

func (sc *Scene) updateElement(op, id string, fn func(domain.Element) (domain.Element, error)) error {
	return sc.editCurrent(op, func(s *domain.Slide) error {
		i := elementIndex(s.Elements, id)
		if i < 0 {
			return fmt.Errorf("element %s: %w", id, ErrItemNotFound)
		}
		e, err := fn(s.Elements[i])
		if err != nil {
			return err
		}
		s.Elements[i] = domain.SanitizeElement(e)
		return nil
	})
}

// DeleteElement removes an element from the current slide.
func (sc *Scene) DeleteElement(id string) error {
	return sc.editCurrent("delete element", func(s *domain.Slide) error {
		i := elementIndex(s.Elements, id)
		if i < 0 {
			return fmt.Errorf("element %s: %w", id, ErrItemNotFound)
		}
		s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
		return nil
	})
}

// BringToFront moves an element to the end of the list so it draws last.
func (sc *Scene) BringToFront(id string) error {
	return sc.restack("bring to front", id, true)
}

// SendToBack moves an element to the start of the list.
func (sc *Scene) SendToBack(id string) error {
	return sc.restack("send to back", id, false)
}

func (sc *Scene) restack(op, id string, front bool) error {
	return sc.editCurrent(op, func(s *domain.Slide) error {
		i := elementIndex(s.Elements, id)
		if i < 0 {
			return fmt.Errorf("element %s: %w", id, ErrItemNotFound)
		}
		e := s.Elements[i]
		rest := append(s.Elements[:i:i], s.Elements[i+1:]...)
		if front {
			s.Elements = append(rest, e)
		} else {
			s.Elements = append([]domain.Element{e}, rest...)
		}
		return nil
	})
}

func mediaIndex(list []domain.Media, id string) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func elementIndex(list []domain.Element, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}
