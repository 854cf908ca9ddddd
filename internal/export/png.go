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
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // decode local JPEG media
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/textlayout"
)

// PNGOptions controls PNG export behavior.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	// Width in pixels; the height follows the 16:9 canvas. Default 1280.
	Width int
	// Slides selects zero-based slide indexes; empty exports all.
	Slides []int
	// Fonts defaults to the bundled Go fonts.
	Fonts *textlayout.FontLibrary
	// Workers bounds parallel rendering; default GOMAXPROCS.
	Workers int
}

const (
	DefaultPNGWidth  = 1280
	ThumbnailWidth   = 320
	placeholderAlpha = 38
)

// RenderSlide rasterizes one slide at the given pixel width.
func RenderSlide(s domain.Slide, width int, lib *textlayout.FontLibrary) *image.RGBA {
	if width <= 0 {
		width = DefaultPNGWidth
	}
	if lib == nil {
		lib = textlayout.DefaultLibrary()
	}
	height := int(math.Round(float64(width) * 9 / 16))
	r := rasterizer{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		w:     float64(width),
		h:     float64(height),
		scale: float64(width) / ReferenceWidth,
		fonts: textlayout.NewOTProvider(lib, 72),
	}
	p := planSlide(s)
	r.fill(r.img.Bounds(), p.BG)
	for _, m := range p.Media {
		r.media(m, p.Accent)
	}
	for _, b := range p.Blocks {
		r.text(b)
	}
	p.each(r.text, r.icon)
	return r.img
}

// EncodeSlides renders the selected slides in parallel and returns PNG bytes
// in slide order.
func EncodeSlides(ctx context.Context, doc Document, opt PNGOptions) ([][]byte, error) {
	indexes := slideIndexes(len(doc.Slides), opt.Slides)
	out := make([][]byte, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for n, i := range indexes {
		s := doc.Slides[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, RenderSlide(s, opt.Width, opt.Fonts)); err != nil {
				return fmt.Errorf("encode slide %d: %w", i+1, err)
			}
			out[n] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportPNGSlides writes slide-<n>.png files into outDir and returns their paths.
func ExportPNGSlides(ctx context.Context, doc Document, outDir string, opt PNGOptions) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	images, err := EncodeSlides(ctx, doc, opt)
	if err != nil {
		return nil, err
	}
	indexes := slideIndexes(len(doc.Slides), opt.Slides)
	paths := make([]string, 0, len(images))
	for n, b := range images {
		name := filepath.Join(outDir, fmt.Sprintf("slide-%02d.png", indexes[n]+1))
		if err := os.WriteFile(name, b, 0o644); err != nil {
			return nil, fmt.Errorf("write png: %w", err)
		}
		paths = append(paths, name)
	}
	return paths, nil
}

type rasterizer struct {
	img   *image.RGBA
	w, h  float64
	scale float64
	fonts textlayout.Provider
}

func (r rasterizer) fill(rect image.Rectangle, c color.RGBA) {
	xdraw.Draw(r.img, rect, image.NewUniform(color.NRGBA(c)), image.Point{}, xdraw.Over)
}

func (r rasterizer) rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
}

func (r rasterizer) media(m domain.Media, accent color.RGBA) {
	box := r.rect(m.X/100*r.w, m.Y/100*r.h, m.Width/100*r.w, m.Height/100*r.h)
	if path, ok := localImage(m); ok {
		if src, err := decodeImage(path); err == nil {
			xdraw.CatmullRom.Scale(r.img, box, src, src.Bounds(), xdraw.Over, nil)
			return
		}
	}
	fillC := accent
	fillC.A = placeholderAlpha
	r.fill(box, fillC)
	r.stroke(box, accent)
	label := mediaLabel(m)
	spec := textlayout.FontSpec{SizePt: float32(12 * r.scale), Weight: 400}
	lw, _ := textlayout.Measure(r.fonts, spec, label)
	r.drawString(label, spec, accent,
		float64(box.Min.X)+(float64(box.Dx())-float64(lw))/2, float64(box.Min.Y+box.Dy()/2))
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	return img, err
}

func (r rasterizer) stroke(b image.Rectangle, c color.RGBA) {
	t := int(math.Max(1, math.Round(r.scale)))
	r.fill(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+t), c)
	r.fill(image.Rect(b.Min.X, b.Max.Y-t, b.Max.X, b.Max.Y), c)
	r.fill(image.Rect(b.Min.X, b.Min.Y, b.Min.X+t, b.Max.Y), c)
	r.fill(image.Rect(b.Max.X-t, b.Min.Y, b.Max.X, b.Max.Y), c)
}

func (r rasterizer) text(b textBlock) {
	size := b.Style.FontSize * r.scale
	spec := textlayout.FontSpec{
		Family: b.Style.FontFamily,
		SizePt: float32(size),
		Weight: textlayout.WeightOf(b.Style.FontWeight),
		Italic: b.Style.Italic,
	}
	x0 := b.X / 100 * r.w
	maxW := b.MaxW / 100 * r.w
	box := textlayout.Wrap(r.fonts, spec, b.Text, float32(maxW))
	y := b.Y/100*r.h + float64(box.Metrics.Ascent)
	for _, line := range box.Lines {
		lw := float64(line.Width)
		x := x0
		switch b.Style.Align {
		case "center":
			x = x0 + (maxW-lw)/2
		case "right":
			x = x0 + maxW - lw
		}
		r.drawString(line.Text, spec, b.Color, x, y)
		thick := math.Max(1, size/16)
		if b.Style.Underline {
			r.fill(r.rect(x, y+size*0.1, lw, thick), b.Color)
		}
		if b.Style.Strikethrough {
			r.fill(r.rect(x, y-size*0.3, lw, thick), b.Color)
		}
		y += float64(box.Metrics.LineHeight())
	}
}

func (r rasterizer) drawString(s string, spec textlayout.FontSpec, c color.RGBA, x, baseline float64) {
	if s == "" {
		return
	}
	face, _ := r.fonts.Resolve(spec)
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(color.NRGBA(c)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)},
	}
	d.DrawString(s)
}

func (r rasterizer) icon(ic iconMark) {
	size := ic.Size * r.scale
	cx, cy := ic.X/100*r.w+size/2, ic.Y/100*r.h+size/2
	radius := size / 2
	thick := math.Max(1, size/16)
	col := color.NRGBA(ic.Color)
	bounds := r.img.Bounds()
	for py := int(cy - radius - 1); py <= int(cy+radius+1); py++ {
		for px := int(cx - radius - 1); px <= int(cx+radius+1); px++ {
			if !(image.Point{X: px, Y: py}).In(bounds) {
				continue
			}
			d := math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy)
			if d <= radius && d >= radius-thick {
				r.img.Set(px, py, col)
			}
		}
	}
	spec := textlayout.FontSpec{SizePt: float32(size * 0.5), Weight: 700}
	gw, _ := textlayout.Measure(r.fonts, spec, ic.Glyph)
	r.drawString(ic.Glyph, spec, ic.Color, cx-float64(gw)/2, cy+size*0.5*0.35)
}
