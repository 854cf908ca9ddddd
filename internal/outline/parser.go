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
	"bufio"
	"regexp"
	"strings"
)

// Directive keys.
const (
	KeyTemplate = "template"
	KeyType     = "type"
	KeyIcon     = "icon"
	KeyImage    = "image"
	KeyVideo    = "video"
)

var (
	reHeading    = regexp.MustCompile(`^(#+)\s*(.*)$`)
	reHeadingAlt = regexp.MustCompile(`^(?i)\s*Slide:\s*(.+)$`)
	reDirective  = regexp.MustCompile(`^(?i)(template|type|icon|image|video)\s*:\s*(.*)$`)
	reBullet     = regexp.MustCompile(`^[-*•]\s+(.*)$`)
)

// Parse splits input into sections. Text before the first heading starts an
// untitled section.
func Parse(input string) (Outline, []Error) {
	o := Outline{Sections: []Section{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	var cur *Section
	var last *Line

	start := func(title string) {
		o.Sections = append(o.Sections, Section{Title: title, LineNo: lineNo})
		cur = &o.Sections[len(o.Sections)-1]
		last = nil
	}
	add := func(l Line) {
		if cur == nil {
			start("")
		}
		cur.Lines = append(cur.Lines, l)
		last = &cur.Lines[len(cur.Lines)-1]
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")

		// continuation of the previous text or bullet line
		if strings.HasPrefix(line, "  ") && last != nil && (last.Type == LineText || last.Type == LineBullet) {
			if cont := strings.TrimSpace(line); cont != "" {
				last.Text += " " + cont
			}
			continue
		}

		trim := strings.TrimSpace(line)
		if trim == "" {
			last = nil
			continue
		}
		if m := reHeading.FindStringSubmatch(trim); m != nil {
			title := strings.TrimSpace(m[2])
			if title == "" {
				errs = append(errs, Error{Line: lineNo, Column: len(m[1]) + 1, Message: "heading without a title"})
			}
			start(title)
			continue
		}
		if m := reHeadingAlt.FindStringSubmatch(trim); m != nil {
			start(strings.TrimSpace(m[1]))
			continue
		}
		if strings.HasPrefix(trim, ";") {
			if cur != nil {
				add(Line{Type: LineNote, Text: strings.TrimSpace(strings.TrimPrefix(trim, ";")), LineNo: lineNo})
			}
			last = nil
			continue
		}
		if m := reDirective.FindStringSubmatch(trim); m != nil {
			value := strings.TrimSpace(m[2])
			if value == "" {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "directive " + strings.ToLower(m[1]) + " without a value"})
				continue
			}
			add(Line{Type: LineDirective, Key: strings.ToLower(m[1]), Text: value, LineNo: lineNo})
			last = nil
			continue
		}
		if m := reBullet.FindStringSubmatch(trim); m != nil {
			add(Line{Type: LineBullet, Text: strings.TrimSpace(m[1]), LineNo: lineNo})
			continue
		}
		add(Line{Type: LineText, Text: trim, LineNo: lineNo})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return o, errs
}
