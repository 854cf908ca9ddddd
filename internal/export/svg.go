/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/textlayout"
)

// SVGOptions controls SVG export behavior.
// The viewBox is the reference canvas (960x540); Width only sets the
// rendered size attributes.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	Width  int
	Slides []int
}

// ExportSVGSlides writes slide-<n>.svg files into outDir and returns their paths.
func ExportSVGSlides(doc Document, outDir string, opt SVGOptions) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	fonts := textlayout.NewOTProvider(textlayout.DefaultLibrary(), 72)
	var paths []string
	for _, i := range slideIndexes(len(doc.Slides), opt.Slides) {
		b, err := renderSVG(planSlide(doc.Slides[i]), opt.Width, fonts)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		name := filepath.Join(outDir, fmt.Sprintf("slide-%02d.svg", i+1))
		if err := os.WriteFile(name, b, 0o644); err != nil {
			return nil, fmt.Errorf("write svg: %w", err)
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func renderSVG(p slidePlan, width int, fonts textlayout.Provider) ([]byte, error) {
	const vw, vh = ReferenceWidth, ReferenceWidth * 9 / 16
	if width <= 0 {
		width = int(vw)
	}
	height := int(math.Round(float64(width) * 9 / 16))

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %g %g\">\n", width, height, vw, vh)
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", vw, vh, hexColor(p.BG))

	for _, m := range p.Media {
		x, y, w, h := m.X/100*vw, m.Y/100*vh, m.Width/100*vw, m.Height/100*vh
		ac := hexColor(p.Accent)
		if strings.HasPrefix(m.URL, "http://") || strings.HasPrefix(m.URL, "https://") {
			if m.Type != domain.MediaVideo && !m.IsEmbed {
				wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"xMidYMid slice\" xlink:href=\"%s\"/>\n", x, y, w, h, escAttr(m.URL))
				continue
			}
		}
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" fill-opacity=\"0.15\" stroke=\"%s\" stroke-width=\"1\"/>\n", x, y, w, h, ac, ac)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"12\" text-anchor=\"middle\" fill=\"%s\">%s</text>\n", x+w/2, y+h/2, ac, mediaLabel(m))
	}

	text := func(b textBlock) {
		spec := textlayout.FontSpec{
			Family: b.Style.FontFamily,
			SizePt: float32(b.Style.FontSize),
			Weight: textlayout.WeightOf(b.Style.FontWeight),
			Italic: b.Style.Italic,
		}
		maxW := b.MaxW / 100 * vw
		box := textlayout.Wrap(fonts, spec, b.Text, float32(maxW))
		x := b.X / 100 * vw
		anchor := "start"
		switch b.Style.Align {
		case "center":
			x, anchor = x+maxW/2, "middle"
		case "right":
			x, anchor = x+maxW, "end"
		}
		var deco []string
		if b.Style.Underline {
			deco = append(deco, "underline")
		}
		if b.Style.Strikethrough {
			deco = append(deco, "line-through")
		}
		style := "normal"
		if b.Style.Italic {
			style = "italic"
		}
		family := b.Style.FontFamily
		if family == "" {
			family = "Inter"
		}
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s, Helvetica, Arial, sans-serif\" font-size=\"%g\" font-weight=\"%s\" font-style=\"%s\" text-anchor=\"%s\" fill=\"%s\"",
			x, b.Y/100*vh+float64(box.Metrics.Ascent), escAttr(family), b.Style.FontSize, escAttr(orNormal(b.Style.FontWeight)), style, anchor, hexColor(b.Color))
		if len(deco) > 0 {
			wf(" text-decoration=\"%s\"", strings.Join(deco, " "))
		}
		wf(">")
		for i, line := range box.Lines {
			dy := 0.0
			if i > 0 {
				dy = float64(box.Metrics.LineHeight())
			}
			wf("<tspan x=\"%g\" dy=\"%g\">%s</tspan>", x, dy, escText(line.Text))
		}
		wf("</text>\n")
	}
	icon := func(ic iconMark) {
		r := ic.Size / 2
		cx, cy := ic.X/100*vw+r, ic.Y/100*vh+r
		c := hexColor(ic.Color)
		wf("  <g>\n")
		wf("    <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", cx, cy, r-ic.Size/32, c, ic.Size/16)
		wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-weight=\"bold\" font-size=\"%g\" text-anchor=\"middle\" dominant-baseline=\"central\" fill=\"%s\">%s</text>\n", cx, cy, ic.Size*0.5, c, escText(ic.Glyph))
		wf("  </g>\n")
	}
	for _, b := range p.Blocks {
		text(b)
	}
	p.each(text, icon)
	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func orNormal(s string) string {
	if s == "" {
		return "normal"
	}
	return s
}

func escAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", "\n", " ", "\r", "")
	return r.Replace(s)
}

func escText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
