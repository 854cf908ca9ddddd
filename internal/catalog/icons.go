/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import "sort"

// Icon describes an icon or shape that can be placed as a slide element.
// Glyph is a plain-text fallback used by exporters.
type Icon struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Glyph        string `json:"glyph"`
	DefaultColor string `json:"defaultColor"`
}

var iconGroups = map[string][]Icon{
	"business": {
		{ID: "rocket", Name: "Rocket", Glyph: "^", DefaultColor: "#f97316"},
		{ID: "lightbulb", Name: "Idea", Glyph: "*", DefaultColor: "#facc15"},
		{ID: "target", Name: "Target", Glyph: "@", DefaultColor: "#ef4444"},
		{ID: "briefcase", Name: "Briefcase", Glyph: "B", DefaultColor: "#78350f"},
		{ID: "handshake", Name: "Partnership", Glyph: "&", DefaultColor: "#0ea5e9"},
		{ID: "trophy", Name: "Trophy", Glyph: "T", DefaultColor: "#eab308"},
	},
	"finance": {
		{ID: "chart-line", Name: "Growth", Glyph: "/", DefaultColor: "#22c55e"},
		{ID: "chart-pie", Name: "Market share", Glyph: "%", DefaultColor: "#8b5cf6"},
		{ID: "coins", Name: "Revenue", Glyph: "$", DefaultColor: "#ca8a04"},
		{ID: "wallet", Name: "Wallet", Glyph: "W", DefaultColor: "#0f766e"},
		{ID: "bank", Name: "Bank", Glyph: "#", DefaultColor: "#334155"},
	},
	"people": {
		{ID: "user", Name: "Customer", Glyph: "o", DefaultColor: "#3b82f6"},
		{ID: "users", Name: "Team", Glyph: "oo", DefaultColor: "#6366f1"},
		{ID: "heart", Name: "Love", Glyph: "<3", DefaultColor: "#ec4899"},
	},
	"tech": {
		{ID: "cloud", Name: "Cloud", Glyph: "~", DefaultColor: "#38bdf8"},
		{ID: "code", Name: "Code", Glyph: "</>", DefaultColor: "#64748b"},
		{ID: "smartphone", Name: "Mobile", Glyph: "[]", DefaultColor: "#1e293b"},
		{ID: "globe", Name: "Global", Glyph: "O", DefaultColor: "#0284c7"},
		{ID: "shield", Name: "Security", Glyph: "U", DefaultColor: "#16a34a"},
	},
	"shapes": {
		{ID: "circle", Name: "Circle", Glyph: "o", DefaultColor: "#3b82f6"},
		{ID: "square", Name: "Square", Glyph: "[]", DefaultColor: "#3b82f6"},
		{ID: "triangle", Name: "Triangle", Glyph: "^", DefaultColor: "#3b82f6"},
		{ID: "star", Name: "Star", Glyph: "*", DefaultColor: "#f59e0b"},
		{ID: "arrow-right", Name: "Arrow", Glyph: "->", DefaultColor: "#111827"},
	},
}

var (
	icons          map[string]Icon
	iconCategories []string
)

func init() {
	icons = make(map[string]Icon)
	for cat, group := range iconGroups {
		iconCategories = append(iconCategories, cat)
		for _, ic := range group {
			if _, dup := icons[ic.ID]; dup {
				panic("catalog: duplicate icon id " + ic.ID)
			}
			ic.Category = cat
			icons[ic.ID] = ic
		}
	}
	sort.Strings(iconCategories)
}

// IconByID looks up an icon descriptor.
func IconByID(id string) (Icon, bool) {
	ic, ok := icons[id]
	return ic, ok
}

// IconCategories lists categories in alphabetical order.
func IconCategories() []string { return append([]string(nil), iconCategories...) }

// IconsIn lists the icons of a category in catalog order.
func IconsIn(category string) []Icon {
	group := iconGroups[category]
	out := make([]Icon, len(group))
	for i, ic := range group {
		ic.Category = category
		out[i] = ic
	}
	return out
}
