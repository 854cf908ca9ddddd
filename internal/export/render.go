/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders decks to files: a multi-page PDF, PNG slide images,
// SVG slides and a ZIP bundle of thumbnails. Every renderer works from the
// same slide plan so they agree on colors, positions and z-order.
package export

import (
	"fmt"
	"image/color"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
)

// ReferenceWidth is the editor canvas width in CSS pixels that font and
// icon sizes are relative to.
const ReferenceWidth = 960.0

// Document is what the exporters render.
type Document struct {
	Title  string
	Author string
	Slides []domain.Slide
}

// textBlock is a positioned text run with its resolved style.
// X, Y and MaxW are percentages of the canvas.
type textBlock struct {
	Text  string
	X, Y  float64
	MaxW  float64
	Style domain.EffectiveStyle
	Color color.RGBA
}

type iconMark struct {
	X, Y  float64 // percent
	Size  float64 // reference pixels
	Glyph string
	Color color.RGBA
}

// slidePlan is a slide reduced to draw order: background, media, the title
// and content blocks, then elements in their stored order.
type slidePlan struct {
	BG, Text, Accent color.RGBA
	Media            []domain.Media
	Blocks           []textBlock
	Texts            []textBlock
	Icons            []iconMark
	// Layers keeps the element order across Texts and Icons: a value >= 0
	// indexes Texts, a negative value v indexes Icons at -v-1.
	Layers []int
}

func planSlide(s domain.Slide) slidePlan {
	colors := catalog.ResolveColors(s)
	p := slidePlan{
		BG:     parseColor(colors.BG, color.RGBA{255, 255, 255, 255}),
		Text:   parseColor(colors.Text, color.RGBA{17, 24, 39, 255}),
		Accent: parseColor(colors.Accent, color.RGBA{59, 130, 246, 255}),
		Media:  s.Media,
	}
	title, content := catalog.ResolveTextStyles(s)
	if strings.TrimSpace(s.Title) != "" {
		p.Blocks = append(p.Blocks, p.block(s.Title, title))
	}
	if strings.TrimSpace(s.Content) != "" {
		p.Blocks = append(p.Blocks, p.block(s.Content, content))
	}
	for _, el := range s.Elements {
		switch el.Type {
		case domain.ElementIcon:
			glyph := "?"
			if ic, ok := catalog.IconByID(el.ElementID); ok {
				glyph = ic.Glyph
			}
			p.Icons = append(p.Icons, iconMark{
				X: el.X, Y: el.Y, Size: el.Size, Glyph: glyph,
				Color: parseColor(el.Color, p.Accent),
			})
			p.Layers = append(p.Layers, -len(p.Icons))
		default:
			st := domain.EffectiveStyle{
				X: el.X, Y: el.Y, FontSize: el.FontSize, FontWeight: el.FontWeight,
				FontFamily: el.FontFamily, Color: el.Color, Italic: el.Italic,
				Underline: el.Underline, Strikethrough: el.Strikethrough, Align: el.Align,
			}
			p.Texts = append(p.Texts, p.block(el.Text, st))
			p.Layers = append(p.Layers, len(p.Texts)-1)
		}
	}
	return p
}

func (p slidePlan) block(text string, st domain.EffectiveStyle) textBlock {
	maxW := 95 - st.X
	if maxW < 10 {
		maxW = 10
	}
	return textBlock{Text: text, X: st.X, Y: st.Y, MaxW: maxW, Style: st, Color: parseColor(st.Color, p.Text)}
}

// each walks elements in z-order.
func (p slidePlan) each(text func(textBlock), icon func(iconMark)) {
	for _, l := range p.Layers {
		if l >= 0 {
			text(p.Texts[l])
		} else {
			icon(p.Icons[-l-1])
		}
	}
}

// parseColor understands #rgb, #rrggbb, #rrggbbaa, rgb()/rgba() and a few
// names. Anything else yields def.
func parseColor(s string, def color.RGBA) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return def
	case "white":
		return color.RGBA{255, 255, 255, 255}
	case "black":
		return color.RGBA{0, 0, 0, 255}
	case "transparent":
		return color.RGBA{}
	}
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		if len(h) == 3 || len(h) == 4 {
			var b strings.Builder
			for _, c := range h {
				b.WriteRune(c)
				b.WriteRune(c)
			}
			h = b.String()
		}
		if len(h) == 6 {
			h += "ff"
		}
		if len(h) != 8 {
			return def
		}
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return def
		}
		return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	}
	if strings.HasPrefix(s, "rgb") {
		open, end := strings.IndexByte(s, '('), strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return def
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) < 3 {
			return def
		}
		var ch [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || n < 0 || n > 255 {
				return def
			}
			ch[i] = uint8(n)
		}
		a := uint8(255)
		if len(parts) == 4 {
			f, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil || f < 0 || f > 1 {
				return def
			}
			a = uint8(f*255 + 0.5)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}
	}
	return def
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func slideTitle(s domain.Slide, i int) string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Slide %d", i+1)
}

// localImage returns the file path of a media item that can be embedded:
// a still image on the local disk in PNG or JPEG format.
func localImage(m domain.Media) (string, bool) {
	if m.Type == domain.MediaVideo || m.IsEmbed {
		return "", false
	}
	path := m.URL
	if u, err := url.Parse(m.URL); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return "", false
		}
		path = u.Path
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
	default:
		return "", false
	}
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return "", false
	}
	return path, true
}

func mediaLabel(m domain.Media) string {
	if m.Type == domain.MediaVideo {
		return "video"
	}
	return "image"
}
