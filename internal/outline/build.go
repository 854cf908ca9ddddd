/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package outline

import (
	"errors"
	"fmt"
	"strings"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/scene"
)

// Build creates one slide per section. The first slide is a title slide and
// the others content slides. A slide starts with the template of the slide
// before it, the first one with template (or the catalog default).
// Directives that cannot be applied are reported and skipped.
func Build(o Outline, template string) ([]domain.Slide, []Error) {
	if len(o.Sections) == 0 {
		return nil, []Error{{Line: 1, Column: 1, Message: "outline has no slides"}}
	}
	if _, ok := catalog.TemplateByID(template); !ok {
		template = catalog.DefaultTemplate().ID
	}
	sc := scene.New([]domain.Slide{domain.NewSlide(domain.SlideTitle, template)})
	var errs []Error
	for i, sec := range o.Sections {
		if i > 0 {
			if _, err := sc.AddSlide(); err != nil {
				errs = append(errs, Error{Line: sec.LineNo, Column: 1, Message: err.Error()})
				break
			}
		}
		idx := sc.Current()
		var content []string
		for _, l := range sec.Lines {
			switch l.Type {
			case LineText:
				content = append(content, l.Text)
			case LineBullet:
				content = append(content, "• "+l.Text)
			case LineDirective:
				if err := apply(sc, l); err != nil {
					errs = append(errs, Error{Line: l.LineNo, Column: 1, Message: err.Error()})
				}
			}
		}
		if err := sc.UpdateSlide(idx, scene.FieldTitle, sec.Title); err != nil {
			errs = append(errs, Error{Line: sec.LineNo, Column: 1, Message: err.Error()})
		}
		if err := sc.UpdateSlide(idx, scene.FieldContent, strings.Join(content, "\n")); err != nil {
			errs = append(errs, Error{Line: sec.LineNo, Column: 1, Message: err.Error()})
		}
	}
	return sc.Slides(), errs
}

func apply(sc *scene.Scene, l Line) error {
	switch l.Key {
	case KeyTemplate:
		t, ok := catalog.TemplateByID(strings.ToLower(l.Text))
		if !ok {
			return fmt.Errorf("unknown template %q", l.Text)
		}
		return sc.UpdateSlide(sc.Current(), scene.FieldTemplate, t.ID)
	case KeyType:
		switch typ := domain.SlideType(strings.ToLower(l.Text)); typ {
		case domain.SlideTitle, domain.SlideContent:
			return sc.UpdateSlide(sc.Current(), scene.FieldType, typ)
		}
		return fmt.Errorf("unknown slide type %q", l.Text)
	case KeyIcon:
		ic, ok := catalog.IconByID(strings.ToLower(l.Text))
		if !ok {
			return fmt.Errorf("unknown icon %q", l.Text)
		}
		_, err := sc.AddElement(ic, domain.ElementIcon)
		return err
	case KeyImage, KeyVideo:
		typ := domain.MediaImage
		if l.Key == KeyVideo {
			typ = domain.MediaVideo
		}
		_, err := sc.AddMedia(domain.Media{Type: typ, URL: l.Text})
		return err
	}
	return fmt.Errorf("unknown directive %q", l.Key)
}

// Slides parses and builds input in one go. Every problem is returned,
// joined, next to the slides that could be built.
func Slides(input, template string) ([]domain.Slide, error) {
	o, perrs := Parse(input)
	slides, berrs := Build(o, template)
	var all []error
	for _, e := range append(perrs, berrs...) {
		all = append(all, e)
	}
	return slides, errors.Join(all...)
}
