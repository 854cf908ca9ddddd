/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"

	"pitchdeck/internal/export"
	"pitchdeck/internal/storage"
)

// Document returns the deck as an export document titled after the project.
func (s *Session) Document() export.Document {
	p := s.Project()
	title := p.Name
	if title == "" {
		title = "Pitch Deck"
	}
	return export.Document{Title: title, Slides: s.Scene.Slides()}
}

func (s *Session) ExportPDF(path string, opt export.PDFOptions) error {
	return s.Report(export.ExportPDF(s.Document(), path, opt))
}

func (s *Session) ExportPNG(ctx context.Context, dir string, opt export.PNGOptions) ([]string, error) {
	paths, err := export.ExportPNGSlides(ctx, s.Document(), dir, opt)
	return paths, s.Report(err)
}

// Thumbnails renders every slide at export.ThumbnailWidth for the slide strip.
func (s *Session) Thumbnails(ctx context.Context) ([][]byte, error) {
	return export.EncodeSlides(ctx, s.Document(), export.PNGOptions{Width: export.ThumbnailWidth})
}

// SaveDeckFile writes the project and the edited deck to a local file.
func (s *Session) SaveDeckFile(path string) error {
	return s.Report(storage.SaveDeckFile(path, s.Project(), s.Deck()))
}
