/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog holds the static, read-only reference data of the editor:
// slide templates and the icon/shape library. Both are built once at package
// initialization into id-indexed maps; callers only ever receive copies.
package catalog

import "pitchdeck/internal/domain"

// PreviewElement is a decorative shape drawn on a template preview card.
// Geometry is in percent of the preview.
type PreviewElement struct {
	Kind  string  `json:"kind"` // circle, rect, line
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color string  `json:"color"`
}

// Template is a named background/color scheme a slide can reference.
type Template struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Colors          domain.Colors    `json:"colors"`
	PreviewBg       string           `json:"previewBg"`
	PreviewElements []PreviewElement `json:"previewElements"`
}

func (t Template) clone() Template {
	t.PreviewElements = append([]PreviewElement(nil), t.PreviewElements...)
	return t
}

var templateData = []Template{
	{
		ID: "modern-blue", Name: "Modern Blue", Category: "professional",
		Colors:    domain.Colors{BG: "#0f172a", Text: "#f8fafc", Accent: "#3b82f6"},
		PreviewBg: "linear-gradient(135deg, #0f172a 0%, #1e3a8a 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "circle", X: 70, Y: 10, W: 25, H: 25, Color: "#3b82f6"},
			{Kind: "line", X: 5, Y: 80, W: 40, H: 2, Color: "#3b82f6"},
		},
	},
	{
		ID: "startup-orange", Name: "Startup Orange", Category: "startup",
		Colors:    domain.Colors{BG: "#fff7ed", Text: "#1c1917", Accent: "#f97316"},
		PreviewBg: "linear-gradient(135deg, #fff7ed 0%, #fed7aa 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "rect", X: 0, Y: 0, W: 8, H: 100, Color: "#f97316"},
		},
	},
	{
		ID: "dark-elegant", Name: "Dark Elegant", Category: "professional",
		Colors:    domain.Colors{BG: "#111111", Text: "#e5e5e5", Accent: "#d4af37"},
		PreviewBg: "#111111",
		PreviewElements: []PreviewElement{
			{Kind: "line", X: 10, Y: 20, W: 80, H: 1, Color: "#d4af37"},
			{Kind: "line", X: 10, Y: 80, W: 80, H: 1, Color: "#d4af37"},
		},
	},
	{
		ID: "minimal-white", Name: "Minimal White", Category: "minimal",
		Colors:          domain.Colors{BG: "#ffffff", Text: "#111827", Accent: "#6b7280"},
		PreviewBg:       "#ffffff",
		PreviewElements: []PreviewElement{},
	},
	{
		ID: "gradient-purple", Name: "Gradient Purple", Category: "creative",
		Colors:    domain.Colors{BG: "#4c1d95", Text: "#faf5ff", Accent: "#c084fc"},
		PreviewBg: "linear-gradient(135deg, #4c1d95 0%, #db2777 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "circle", X: 75, Y: 60, W: 35, H: 35, Color: "#c084fc"},
		},
	},
	{
		ID: "nature-green", Name: "Nature Green", Category: "creative",
		Colors:    domain.Colors{BG: "#f0fdf4", Text: "#14532d", Accent: "#22c55e"},
		PreviewBg: "linear-gradient(180deg, #f0fdf4 0%, #bbf7d0 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "circle", X: -10, Y: 70, W: 40, H: 40, Color: "#22c55e"},
		},
	},
	{
		ID: "corporate-gray", Name: "Corporate Gray", Category: "professional",
		Colors:    domain.Colors{BG: "#f3f4f6", Text: "#1f2937", Accent: "#0ea5e9"},
		PreviewBg: "#f3f4f6",
		PreviewElements: []PreviewElement{
			{Kind: "rect", X: 0, Y: 90, W: 100, H: 10, Color: "#1f2937"},
		},
	},
	{
		ID: "sunset", Name: "Sunset", Category: "creative",
		Colors:    domain.Colors{BG: "#7c2d12", Text: "#fff7ed", Accent: "#fbbf24"},
		PreviewBg: "linear-gradient(180deg, #f97316 0%, #7c2d12 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "circle", X: 40, Y: 55, W: 20, H: 20, Color: "#fbbf24"},
		},
	},
	{
		ID: "ocean", Name: "Ocean", Category: "startup",
		Colors:    domain.Colors{BG: "#083344", Text: "#ecfeff", Accent: "#06b6d4"},
		PreviewBg: "linear-gradient(135deg, #083344 0%, #0e7490 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "rect", X: 0, Y: 75, W: 100, H: 25, Color: "#06b6d4"},
		},
	},
	{
		ID: "tech-neon", Name: "Tech Neon", Category: "startup",
		Colors:    domain.Colors{BG: "#020617", Text: "#e2e8f0", Accent: "#22d3ee"},
		PreviewBg: "#020617",
		PreviewElements: []PreviewElement{
			{Kind: "rect", X: 60, Y: 15, W: 30, H: 30, Color: "#22d3ee"},
			{Kind: "rect", X: 70, Y: 25, W: 30, H: 30, Color: "#a855f7"},
		},
	},
	{
		ID: "medina", Name: "Medina", Category: "local",
		Colors:    domain.Colors{BG: "#fefce8", Text: "#1e3a8a", Accent: "#2563eb"},
		PreviewBg: "linear-gradient(135deg, #fefce8 0%, #dbeafe 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "rect", X: 80, Y: 0, W: 20, H: 100, Color: "#2563eb"},
		},
	},
	{
		ID: "sahara", Name: "Sahara", Category: "local",
		Colors:    domain.Colors{BG: "#fef3c7", Text: "#78350f", Accent: "#d97706"},
		PreviewBg: "linear-gradient(180deg, #fef3c7 0%, #fcd34d 100%)",
		PreviewElements: []PreviewElement{
			{Kind: "circle", X: 65, Y: 65, W: 45, H: 45, Color: "#d97706"},
		},
	},
}

var (
	templates     []Template
	templateIndex map[string]int
)

func init() {
	templates = make([]Template, len(templateData))
	templateIndex = make(map[string]int, len(templateData))
	for i, t := range templateData {
		if _, dup := templateIndex[t.ID]; dup {
			panic("catalog: duplicate template id " + t.ID)
		}
		templates[i] = t.clone()
		templateIndex[t.ID] = i
	}
}

// Templates returns all templates in catalog order.
func Templates() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		out[i] = t.clone()
	}
	return out
}

// TemplateByID looks up a template.
func TemplateByID(id string) (Template, bool) {
	i, ok := templateIndex[id]
	if !ok {
		return Template{}, false
	}
	return templates[i].clone(), true
}

// DefaultTemplate is the catalog's first entry, used as the fallback.
func DefaultTemplate() Template { return templates[0].clone() }

// ResolveColors returns the effective colors of a slide: custom colors
// verbatim when present, else the referenced template, else the default.
func ResolveColors(s domain.Slide) domain.Colors {
	if s.CustomColors != nil {
		return *s.CustomColors
	}
	if i, ok := templateIndex[s.Template]; ok {
		return templates[i].Colors
	}
	return templates[0].Colors
}

// ResolveTextStyles materializes the title and content styles of a slide,
// filling a missing color with the slide's resolved text color.
func ResolveTextStyles(s domain.Slide) (title, content domain.EffectiveStyle) {
	c := ResolveColors(s)
	title = s.TitleStyle.Effective(domain.TitleDefaults)
	content = s.ContentStyle.Effective(domain.ContentDefaults)
	if title.Color == "" {
		title.Color = c.Text
	}
	if content.Color == "" {
		content.Color = c.Text
	}
	return title, content
}
