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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/domain"
)

const acme = `# Acme Rockets
template: startup-orange
Reusable rockets for everyone
  at a fraction of the price.

; open with the launch video
# The problem
- Launches are expensive
* Waiting lists are long
  and getting longer
icon: rocket

Slide: Market
type: title
image: https://example.com/market.png
Market: $4B and growing`

func TestParseSectionsAndLines(t *testing.T) {
	o, errs := Parse(acme)
	require.Empty(t, errs)
	require.Len(t, o.Sections, 3)
	assert.Equal(t, "Acme Rockets", o.Sections[0].Title)
	assert.Equal(t, "Market", o.Sections[2].Title)

	first := o.Sections[0].Lines
	require.Len(t, first, 3)
	assert.Equal(t, Line{Type: LineDirective, Key: KeyTemplate, Text: "startup-orange", LineNo: 2}, first[0])
	assert.Equal(t, "Reusable rockets for everyone at a fraction of the price.", first[1].Text, "continuation folded")
	assert.Equal(t, LineNote, first[2].Type)
	assert.Equal(t, 6, first[2].LineNo)

	bullets := o.Sections[1].Lines
	assert.Equal(t, LineBullet, bullets[1].Type)
	assert.Equal(t, "Waiting lists are long and getting longer", bullets[1].Text)
	last := o.Sections[2].Lines[2]
	assert.Equal(t, LineText, last.Type, "unknown keys are content")
	assert.Equal(t, "Market: $4B and growing", last.Text)
}

func TestParseTextBeforeHeading(t *testing.T) {
	o, _ := Parse("just a line\n# Next")
	require.Len(t, o.Sections, 2)
	assert.Empty(t, o.Sections[0].Title)
}

func TestParseErrors(t *testing.T) {
	_, errs := Parse("#\nicon:\n# ok")
	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 2, errs[1].Line)
	assert.Contains(t, errs[1].Error(), "line 2:1")
}

func TestBuild(t *testing.T) {
	o, _ := Parse(acme)
	slides, errs := Build(o, "modern-blue")
	require.Empty(t, errs)
	require.Len(t, slides, 3)
	s0, s1, s2 := slides[0], slides[1], slides[2]
	assert.Equal(t, domain.SlideTitle, s0.Type)
	assert.Equal(t, "startup-orange", s0.Template)
	assert.NotContains(t, s0.Content, "launch video", "notes stay out of the deck")

	assert.Equal(t, domain.SlideContent, s1.Type)
	assert.Equal(t, "startup-orange", s1.Template, "template carries over")
	assert.Equal(t, "• Launches are expensive\n• Waiting lists are long and getting longer", s1.Content)
	require.Len(t, s1.Elements, 1)
	assert.Equal(t, "rocket", s1.Elements[0].ElementID)
	assert.Equal(t, domain.DefaultIconSize, s1.Elements[0].Size)

	assert.Equal(t, domain.SlideTitle, s2.Type)
	require.Len(t, s2.Media, 1)
	assert.Equal(t, "https://example.com/market.png", s2.Media[0].URL)
}

func TestBuildReportsBadDirectives(t *testing.T) {
	slides, err := Slides("# One\ntemplate: nope\nicon: unicorn\ntype: closing\nkept", "")
	require.Error(t, err)
	for _, want := range []string{"line 2:1", `unknown icon "unicorn"`, `unknown slide type "closing"`} {
		assert.Contains(t, err.Error(), want)
	}
	require.Len(t, slides, 1, "the slide is still built")
	assert.Equal(t, "kept", slides[0].Content)
	assert.NotEmpty(t, slides[0].Template)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Slides("\n\n", "")
	assert.Error(t, err)
}

func TestBuildStopsAtSlideLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= domain.MaxSlides; i++ {
		b.WriteString("# Slide\n")
	}
	slides, err := Slides(b.String(), "")
	assert.Len(t, slides, domain.MaxSlides)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many slides")
}
