/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across multiple formats.
//
// Path semantics: outputs go to OutDir/<preset>/ (OutDir defaults to the
// working directory). PDF and ZIP are single files named after BaseName;
// PNG and SVG go into png/ and svg/ subfolders.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset   PresetName
	Formats  []string // allowed: pdf, png, svg, zip; empty means preset defaults
	Slides   []int    // zero-based indices; empty means all slides
	Width    int      // when > 0 overrides the raster width
	OutDir   string
	BaseName string // default "deck"
}

// BatchExport runs exports according to the given preset and returns the
// written paths.
func BatchExport(ctx context.Context, doc Document, opt BatchOptions) ([]string, error) {
	if len(doc.Slides) == 0 {
		return nil, fmt.Errorf("document has no slides")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetWeb
	}
	base := filepath.Join(opt.OutDir, string(preset))
	name := opt.BaseName
	if name == "" {
		name = "deck"
	}
	width := opt.Width
	if width <= 0 {
		width = presetWidth(preset)
	}

	var out []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			path := filepath.Join(base, name+".pdf")
			if err := ExportPDF(doc, path, PDFOptions{Slides: opt.Slides, PageNumbers: preset == PresetPrint}); err != nil {
				return out, fmt.Errorf("pdf: %w", err)
			}
			out = append(out, path)
		case "png":
			paths, err := ExportPNGSlides(ctx, doc, filepath.Join(base, "png"), PNGOptions{Width: width, Slides: opt.Slides})
			if err != nil {
				return out, fmt.Errorf("png: %w", err)
			}
			out = append(out, paths...)
		case "svg":
			paths, err := ExportSVGSlides(doc, filepath.Join(base, "svg"), SVGOptions{Width: width, Slides: opt.Slides})
			if err != nil {
				return out, fmt.Errorf("svg: %w", err)
			}
			out = append(out, paths...)
		case "zip":
			path, err := ExportZIP(ctx, doc, filepath.Join(base, name+".zip"), ZIPOptions{Slides: opt.Slides})
			if err != nil {
				return out, fmt.Errorf("zip: %w", err)
			}
			out = append(out, path)
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png", "svg", "zip"}
	}
}

func presetWidth(p PresetName) int {
	if p == PresetPrint {
		return 1920
	}
	return DefaultPNGWidth
}
