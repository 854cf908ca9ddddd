/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"pitchdeck/internal/domain"
	"pitchdeck/internal/outline"
	"pitchdeck/internal/storage"
	"pitchdeck/internal/telemetry"
)

func runImport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "import")
	in := fs.String("in", "", "outline text file, '-' reads stdin")
	out := fs.String("out", "", "write the deck to this file ("+storage.DeckFileExt+")")
	projectID := fs.String("project", "", "store the deck in this backend project")
	template := fs.String("template", "", "template of the first slide")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return usagef("--in is required")
	}
	if *out == "" && *projectID == "" {
		return usagef("--out or --project is required")
	}
	text, err := readOutline(a, *in)
	if err != nil {
		return err
	}
	slides, perr := outline.Slides(text, *template)
	if len(slides) == 0 {
		return perr
	}
	if perr != nil {
		a.l.Warn("outline has problems", slog.Any("err", perr))
		_, _ = fmt.Fprintln(a.out, perr)
	}

	if *out != "" {
		project := domain.Project{ID: *projectID, Name: slides[0].Title}
		deck := domain.Deck{ProjectID: *projectID, Template: slides[0].Template, Slides: slides}
		if err := storage.SaveDeckFile(*out, project, deck); err != nil {
			return err
		}
	}
	if *projectID != "" {
		if err := storeSlides(ctx, a, *projectID, slides); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintf(a.out, "%d slides imported\n", len(slides))
	return nil
}

func readOutline(a *app, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(a.in)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read outline: %w", err)
	}
	return string(b), nil
}

// storeSlides replaces the project's deck or creates it.
func storeSlides(ctx context.Context, a *app, projectID string, slides []domain.Slide) error {
	c := a.client()
	_, deck, err := c.Hydrate(ctx, projectID)
	if err != nil {
		return err
	}
	if deck != nil {
		return c.UpdateDeck(ctx, projectID, deck.ID, slides)
	}
	if _, err := c.CreateDeck(ctx, projectID, slides[0].Template, slides); err != nil {
		return err
	}
	telemetry.DeckCreated(slides[0].Template, len(slides))
	return nil
}
