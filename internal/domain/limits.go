/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Limits shared by the editor and the server. The embedded slide schema in
// the backend carries the same numbers.
const (
	MaxSlides     = 200
	MaxTitleLen   = 2000
	MaxContentLen = 20000
	MaxTextLen    = 10000
	MaxURLLen     = 4096
)

var (
	ErrTooManySlides = errors.New("deck has too many slides")
	ErrTooLong       = errors.New("text is too long")
	ErrBadKind       = errors.New("unknown item type")
)

// CheckLen fails when s has more than limit characters.
func CheckLen(field, s string, limit int) error {
	if n := utf8.RuneCountInString(s); n > limit {
		return fmt.Errorf("%s has %d characters, limit %d: %w", field, n, limit, ErrTooLong)
	}
	return nil
}

// Check reports the first limit s violates.
func (s Slide) Check() error {
	if err := CheckLen("title", s.Title, MaxTitleLen); err != nil {
		return err
	}
	if err := CheckLen("content", s.Content, MaxContentLen); err != nil {
		return err
	}
	for _, m := range s.Media {
		if err := m.Check(); err != nil {
			return err
		}
	}
	for _, e := range s.Elements {
		if err := e.Check(); err != nil {
			return err
		}
	}
	return nil
}

func (m Media) Check() error {
	if m.Type != "" && m.Type != MediaImage && m.Type != MediaVideo {
		return fmt.Errorf("media %q: %w", m.Type, ErrBadKind)
	}
	return CheckLen("media url", m.URL, MaxURLLen)
}

func (e Element) Check() error {
	if e.Type != ElementText && e.Type != ElementIcon {
		return fmt.Errorf("element %q: %w", e.Type, ErrBadKind)
	}
	return CheckLen("element text", e.Text, MaxTextLen)
}

// CheckSlides validates a whole deck.
func CheckSlides(in []Slide) error {
	if len(in) > MaxSlides {
		return fmt.Errorf("%d slides, limit %d: %w", len(in), MaxSlides, ErrTooManySlides)
	}
	for i, s := range in {
		if err := s.Check(); err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
	}
	return nil
}
