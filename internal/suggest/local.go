/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package suggest

import (
	"context"
	"strings"
	"unicode"

	"pitchdeck/internal/domain"
)

// LocalGenerator builds suggestions without a network round trip. The same
// prompt always yields the same decks (slide ids aside).
type LocalGenerator struct{}

type outline struct {
	name, description string
	slides            [][2]string // title, content; the first is the title slide
}

var outlines = []outline{
	{
		name:        "Investor classic",
		description: "The proven problem, solution, market, model, team and ask sequence.",
		slides: [][2]string{
			{"%s", "Investor presentation"},
			{"The problem", "What hurts today and who feels it most"},
			{"Our solution", "How %s removes the pain"},
			{"Market opportunity", "TAM, SAM and SOM with sources"},
			{"Business model", "How we make money and unit economics"},
			{"Team", "Why we are the ones to build this"},
			{"The ask", "Funding amount and use of funds"},
		},
	},
	{
		name:        "Storyteller",
		description: "A narrative arc from customer story to vision.",
		slides: [][2]string{
			{"%s", "A story worth telling"},
			{"Meet our customer", "A day in their life before %s"},
			{"The turning point", "What changes with our product"},
			{"Traction", "Milestones and numbers so far"},
			{"Where we are going", "The vision for the next three years"},
		},
	},
	{
		name:        "One-minute pitch",
		description: "Three slides for demo days and elevator pitches.",
		slides: [][2]string{
			{"%s", "In one minute"},
			{"Why now", "The shift that makes %s possible"},
			{"Join us", "Contact and next steps"},
		},
	},
}

// keyword themes pick the palette of each candidate
var themes = []struct {
	words     []string
	templates [3]string
}{
	{[]string{"ai", "tech", "software", "saas", "app", "data", "cloud"}, [3]string{"tech-neon", "ocean", "modern-blue"}},
	{[]string{"finance", "fintech", "bank", "payment", "invest"}, [3]string{"corporate-gray", "dark-elegant", "modern-blue"}},
	{[]string{"green", "eco", "nature", "agri", "farm", "climate", "energy"}, [3]string{"nature-green", "ocean", "minimal-white"}},
	{[]string{"food", "travel", "tourism", "craft", "fashion"}, [3]string{"medina", "sahara", "sunset"}},
}

var defaultTemplates = [3]string{"modern-blue", "startup-orange", "gradient-purple"}

func (LocalGenerator) Generate(ctx context.Context, prompt string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject := subjectOf(prompt)
	tpls := templatesFor(prompt)
	out := make([]Candidate, 0, CandidateCount)
	for i, o := range outlines {
		c := Candidate{
			ID:          "local-" + string(rune('1'+i)),
			Name:        o.name,
			Description: o.description,
			Template:    tpls[i],
		}
		for j, sc := range o.slides {
			typ := domain.SlideContent
			if j == 0 {
				typ = domain.SlideTitle
			}
			s := domain.NewSlide(typ, c.Template)
			s.Title = fill(sc[0], subject)
			s.Content = fill(sc[1], subject)
			c.Slides = append(c.Slides, s)
		}
		out = append(out, c)
	}
	return out, nil
}

func templatesFor(prompt string) [3]string {
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, th := range themes {
		for _, w := range words {
			for _, k := range th.words {
				if w == k || strings.HasPrefix(w, k) && len(k) > 3 {
					return th.templates
				}
			}
		}
	}
	return defaultTemplates
}

// subjectOf takes the first few words of the prompt as the deck title.
func subjectOf(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	s := strings.Join(words, " ")
	s = strings.TrimRight(s, ".,;:!?")
	if s == "" {
		return "Our startup"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func fill(format, subject string) string {
	return strings.ReplaceAll(format, "%s", subject)
}
