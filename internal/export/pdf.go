/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). Text uses the built-in Helvetica so nothing has to
// be embedded; the slide font family is not honored.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	// PageWidth in points; the height follows the 16:9 canvas. Default 960.
	PageWidth   float64
	PageNumbers bool
	// Slides selects zero-based slide indexes; empty exports all.
	Slides []int
}

const lineSpacing = 1.2

// ExportPDF writes the document as a single multi-page PDF at outPath.
func ExportPDF(doc Document, outPath string, opt PDFOptions) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WritePDF(f, doc, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	return nil
}

// WritePDF renders the document as PDF to w.
func WritePDF(w io.Writer, doc Document, opt PDFOptions) error {
	if len(doc.Slides) == 0 {
		return errors.New("document has no slides")
	}
	pageW := opt.PageWidth
	if pageW <= 0 {
		pageW = ReferenceWidth
	}
	pageH := pageW * 9 / 16
	scale := pageW / ReferenceWidth

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	if doc.Author != "" {
		pdf.SetAuthor(doc.Author, true)
	}
	pdf.SetCreator("pitchdeck "+version.String(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	indexes := slideIndexes(len(doc.Slides), opt.Slides)
	if len(indexes) == 0 {
		return errors.New("no slides selected")
	}
	r := pdfRenderer{pdf: pdf, tr: tr, w: pageW, h: pageH, scale: scale}
	for n, i := range indexes {
		s := doc.Slides[i]
		pdf.AddPage()
		pdf.Bookmark(tr(slideTitle(s, i)), 0, 0)
		r.slide(planSlide(s))
		if opt.PageNumbers {
			pdf.SetFont("Helvetica", "", 10*scale)
			pdf.SetTextColor(128, 128, 128)
			label := fmt.Sprintf("%d / %d", n+1, len(indexes))
			pdf.Text(pageW-pdf.GetStringWidth(label)-12*scale, pageH-10*scale, label)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfRenderer struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	w, h  float64
	scale float64
}

func (r pdfRenderer) slide(p slidePlan) {
	pdf := r.pdf
	setFill(pdf, p.BG)
	pdf.Rect(0, 0, r.w, r.h, "F")

	for _, m := range p.Media {
		r.media(m, p.Accent)
	}
	for _, b := range p.Blocks {
		r.text(b)
	}
	p.each(r.text, r.icon)
}

func (r pdfRenderer) media(m domain.Media, accent color.RGBA) {
	pdf := r.pdf
	x, y := m.X/100*r.w, m.Y/100*r.h
	w, h := m.Width/100*r.w, m.Height/100*r.h
	if path, ok := localImage(m); ok {
		pdf.ImageOptions(path, x, y, w, h, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		if !pdf.Err() {
			return
		}
		// unreadable image: reset and draw the placeholder instead
		pdf.ClearError()
	}
	pdf.SetAlpha(0.15, "Normal")
	setFill(pdf, accent)
	pdf.Rect(x, y, w, h, "F")
	pdf.SetAlpha(1, "Normal")
	setDraw(pdf, accent)
	pdf.SetLineWidth(1)
	pdf.Rect(x, y, w, h, "D")
	pdf.SetFont("Helvetica", "", 12*r.scale)
	pdf.SetTextColor(int(accent.R), int(accent.G), int(accent.B))
	label := mediaLabel(m)
	pdf.Text(x+(w-pdf.GetStringWidth(label))/2, y+h/2, label)
	if strings.HasPrefix(m.URL, "http://") || strings.HasPrefix(m.URL, "https://") {
		pdf.LinkString(x, y, w, h, m.URL)
	}
}

func (r pdfRenderer) text(b textBlock) {
	pdf := r.pdf
	size := b.Style.FontSize * r.scale
	pdf.SetFont("Helvetica", pdfStyle(b.Style), size)
	setText(pdf, b.Color)
	x0 := b.X / 100 * r.w
	maxW := b.MaxW / 100 * r.w
	y := b.Y/100*r.h + size*0.8 // baseline of the first line
	for _, para := range strings.Split(r.tr(b.Text), "\n") {
		lines := []string{""}
		if para != "" {
			lines = pdf.SplitText(para, maxW)
		}
		for _, line := range lines {
			lw := pdf.GetStringWidth(line)
			x := x0
			switch b.Style.Align {
			case "center":
				x = x0 + (maxW-lw)/2
			case "right":
				x = x0 + maxW - lw
			}
			pdf.Text(x, y, line)
			if b.Style.Underline || b.Style.Strikethrough {
				setDraw(pdf, b.Color)
				pdf.SetLineWidth(size / 16)
				if b.Style.Underline {
					pdf.Line(x, y+size*0.12, x+lw, y+size*0.12)
				}
				if b.Style.Strikethrough {
					pdf.Line(x, y-size*0.3, x+lw, y-size*0.3)
				}
			}
			y += size * lineSpacing
		}
	}
}

func (r pdfRenderer) icon(ic iconMark) {
	pdf := r.pdf
	size := ic.Size * r.scale
	cx, cy := ic.X/100*r.w+size/2, ic.Y/100*r.h+size/2
	setDraw(pdf, ic.Color)
	pdf.SetLineWidth(size / 16)
	pdf.Circle(cx, cy, size/2, "D")
	fs := size * 0.5
	pdf.SetFont("Helvetica", "B", fs)
	setText(pdf, ic.Color)
	g := r.tr(ic.Glyph)
	pdf.Text(cx-pdf.GetStringWidth(g)/2, cy+fs*0.35, g)
}

func pdfStyle(st domain.EffectiveStyle) string {
	s := ""
	if isBold(st.FontWeight) {
		s += "B"
	}
	if st.Italic {
		s += "I"
	}
	return s
}

func isBold(weight string) bool {
	switch strings.ToLower(weight) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

func slideIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, len(specific))
	for _, i := range specific {
		if i >= 0 && i < total {
			out = append(out, i)
		}
	}
	return out
}

func setDraw(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func setFill(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
func setText(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }
