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
	"log/slog"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/geometry"
)

// Field names a replaceable slide field.
type Field string

const (
	FieldTitle        Field = "title"
	FieldContent      Field = "content"
	FieldType         Field = "type"
	FieldTemplate     Field = "template"
	FieldCustomColors Field = "customColors"
	FieldTitleStyle   Field = "titleStyle"
	FieldContentStyle Field = "contentStyle"
)

// UpdateSlide replaces one field of the slide at index. Values must have the
// field's Go type: string for title/content/template, domain.SlideType (or a
// string) for type, *domain.Colors for customColors (nil clears it) and
// *domain.TextStyle for the two styles.
func (sc *Scene) UpdateSlide(index int, field Field, value any) error {
	sc.mu.Lock()
	if index < 0 || index >= len(sc.slides) {
		n := len(sc.slides)
		sc.mu.Unlock()
		sc.l.Warn("update slide out of range", slog.Int("index", index), slog.Int("slides", n), slog.String("field", string(field)))
		return fmt.Errorf("update slide %d: %w", index, ErrIndexOutOfRange)
	}
	s := sc.slides[index]
	if err := setField(&s, field, value); err != nil {
		sc.mu.Unlock()
		return fmt.Errorf("update slide %d: %w", index, err)
	}
	next := append([]domain.Slide(nil), sc.slides...)
	next[index] = s
	sc.commit(next, sc.current)
	return nil
}

func setField(s *domain.Slide, field Field, value any) error {
	switch field {
	case FieldTitle, FieldContent, FieldTemplate:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: %w", field, ErrFieldType)
		}
		switch field {
		case FieldTitle:
			if err := domain.CheckLen("title", v, domain.MaxTitleLen); err != nil {
				return err
			}
			s.Title = v
		case FieldContent:
			if err := domain.CheckLen("content", v, domain.MaxContentLen); err != nil {
				return err
			}
			s.Content = v
		default:
			s.Template = v
		}
	case FieldType:
		// the type is advisory, any value is kept
		switch v := value.(type) {
		case domain.SlideType:
			s.Type = v
		case string:
			s.Type = domain.SlideType(v)
		default:
			return fmt.Errorf("%s: %w", field, ErrFieldType)
		}
	case FieldCustomColors:
		switch v := value.(type) {
		case nil:
			s.CustomColors = nil
		case *domain.Colors:
			if v == nil {
				s.CustomColors = nil
			} else {
				c := *v
				s.CustomColors = &c
			}
		case domain.Colors:
			s.CustomColors = &v
		default:
			return fmt.Errorf("%s: %w", field, ErrFieldType)
		}
	case FieldTitleStyle, FieldContentStyle:
		var st *domain.TextStyle
		switch v := value.(type) {
		case nil:
		case *domain.TextStyle:
			st = v.Clone()
		case domain.TextStyle:
			st = v.Clone()
		default:
			return fmt.Errorf("%s: %w", field, ErrFieldType)
		}
		if field == FieldTitleStyle {
			s.TitleStyle = st
		} else {
			s.ContentStyle = st
		}
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}

// AddSlide inserts an empty content slide after the current one. It inherits
// the current template and becomes current.
func (sc *Scene) AddSlide() (domain.Slide, error) {
	sc.mu.Lock()
	if err := sc.roomLocked("add slide"); err != nil {
		return domain.Slide{}, err
	}
	cur := sc.slides[sc.current]
	s := domain.NewSlide(domain.SlideContent, cur.Template)
	s.Title = "New slide"
	if s.Template == "" && cur.CustomColors != nil {
		c := *cur.CustomColors
		s.CustomColors = &c
	}
	next := insertAt(sc.slides, sc.current+1, s)
	sc.commit(next, sc.current+1)
	sc.l.Debug("slide added", slog.String("slide", s.ID))
	return s.Clone(), nil
}

// DuplicateSlide inserts a deep copy of the current slide after it. The copy
// and every item on it get fresh ids.
func (sc *Scene) DuplicateSlide() (domain.Slide, error) {
	sc.mu.Lock()
	if err := sc.roomLocked("duplicate slide"); err != nil {
		return domain.Slide{}, err
	}
	s := sc.slides[sc.current].Clone()
	s.ID = domain.NewSlideID()
	for i := range s.Media {
		s.Media[i].ID = domain.NewItemID()
	}
	for i := range s.Elements {
		s.Elements[i].ID = domain.NewItemID()
	}
	next := insertAt(sc.slides, sc.current+1, s)
	sc.commit(next, sc.current+1)
	return s.Clone(), nil
}

// roomLocked fails, releasing the lock, when the deck already holds MaxSlides.
func (sc *Scene) roomLocked(op string) error {
	if n := len(sc.slides); n >= domain.MaxSlides {
		sc.mu.Unlock()
		sc.l.Info("deck is full", slog.String("op", op), slog.Int("slides", n))
		return fmt.Errorf("%s: %w", op, ErrDeckFull)
	}
	return nil
}

// DeleteSlide removes the current slide. The last remaining slide cannot be
// deleted.
func (sc *Scene) DeleteSlide() error {
	sc.mu.Lock()
	if len(sc.slides) <= 1 {
		sc.mu.Unlock()
		sc.l.Info("refused to delete the last slide")
		return fmt.Errorf("delete slide: %w", ErrLastSlide)
	}
	next := make([]domain.Slide, 0, len(sc.slides)-1)
	next = append(next, sc.slides[:sc.current]...)
	next = append(next, sc.slides[sc.current+1:]...)
	sc.commit(next, max(0, sc.current-1))
	return nil
}

// SelectSlide makes the slide at index current.
func (sc *Scene) SelectSlide(index int) error {
	sc.mu.Lock()
	if index < 0 || index >= len(sc.slides) {
		sc.mu.Unlock()
		return fmt.Errorf("select slide %d: %w", index, ErrIndexOutOfRange)
	}
	if index == sc.current {
		sc.mu.Unlock()
		return nil
	}
	sc.commit(sc.slides, index)
	return nil
}

// MoveSlide reorders the deck; the moved slide becomes current.
func (sc *Scene) MoveSlide(from, to int) error {
	sc.mu.Lock()
	n := len(sc.slides)
	if from < 0 || from >= n || to < 0 || to >= n {
		sc.mu.Unlock()
		return fmt.Errorf("move slide %d to %d: %w", from, to, ErrIndexOutOfRange)
	}
	if from == to {
		sc.mu.Unlock()
		return nil
	}
	s := sc.slides[from]
	rest := make([]domain.Slide, 0, n)
	rest = append(rest, sc.slides[:from]...)
	rest = append(rest, sc.slides[from+1:]...)
	sc.commit(insertAt(rest, to, s), to)
	return nil
}

// MoveTextBlock drags the title or content block of the current slide by d
// percentage points, starting from the block's default position when the
// slide has no explicit one.
func (sc *Scene) MoveTextBlock(field Field, d geometry.Pt) error {
	return sc.editCurrent("move text block", func(s *domain.Slide) error {
		switch field {
		case FieldTitle, FieldTitleStyle:
			eff := s.TitleStyle.Effective(domain.TitleDefaults)
			s.TitleStyle = s.TitleStyle.WithPos(geometry.DragElement(geometry.Pt{X: eff.X, Y: eff.Y}, d))
		case FieldContent, FieldContentStyle:
			eff := s.ContentStyle.Effective(domain.ContentDefaults)
			s.ContentStyle = s.ContentStyle.WithPos(geometry.DragElement(geometry.Pt{X: eff.X, Y: eff.Y}, d))
		default:
			return fmt.Errorf("%q: %w", field, ErrUnknownField)
		}
		return nil
	})
}

func insertAt(in []domain.Slide, i int, s domain.Slide) []domain.Slide {
	out := make([]domain.Slide, 0, len(in)+1)
	out = append(out, in[:i]...)
	out = append(out, s)
	return append(out, in[i:]...)
}
