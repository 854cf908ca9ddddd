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
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pitchdeck/internal/backend"
	"pitchdeck/internal/catalog"
	"pitchdeck/internal/config"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/editor"
	"pitchdeck/internal/export"
	"pitchdeck/internal/present"
	"pitchdeck/internal/storage"
	"pitchdeck/internal/suggest"
	"pitchdeck/internal/telemetry"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) client() *backend.Client {
	b := a.cfg.Backend
	return backend.NewClientWithOptions(b.BaseURL, a.token, b.Timeout(), b.TLSInsecure)
}

// draftsPath is the drafts database next to the config file.
func draftsPath() (string, error) {
	p, err := config.ConfigPath()
	if err != nil {
		return "", err
	}
	return storage.DraftsPath(filepath.Dir(p)), nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "serve")
	memory := fs.Bool("memory", false, "serve from memory instead of PostgreSQL")
	addr := fs.String("addr", "", "listen address (default from ADDR/PORT or :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := backend.LoadConfig()
	cfg.Memory = *memory
	if *addr != "" {
		cfg.Addr = *addr
	}
	var gen suggest.Generator = suggest.LocalGenerator{}
	if p := a.cfg.AI.Provider; p != editor.ProviderRemote {
		g, err := editor.NewGenerator(a.cfg.AI, config.AIKey(), nil, nil)
		if err != nil {
			a.l.Warn("falling back to local suggestions", slog.Any("err", err))
		} else {
			gen = g
		}
	}
	return backend.Start(ctx, cfg, gen)
}

// loadDeck reads a deck from a deck file or from the backend.
func loadDeck(ctx context.Context, a *app, file, projectID string) (domain.Project, domain.Deck, error) {
	switch {
	case file != "" && projectID != "":
		return domain.Project{}, domain.Deck{}, usagef("use either --file or --project, not both")
	case file != "":
		df, err := storage.OpenDeckFile(file)
		if err != nil {
			return domain.Project{}, domain.Deck{}, err
		}
		return df.Project, df.Deck, nil
	case projectID != "":
		p, d, err := a.client().Hydrate(ctx, projectID)
		if err != nil {
			return domain.Project{}, domain.Deck{}, err
		}
		if d == nil || len(d.Slides) == 0 {
			return p, domain.Deck{}, fmt.Errorf("project %s has no pitch deck yet", projectID)
		}
		return p, *d, nil
	default:
		return domain.Project{}, domain.Deck{}, usagef("--file or --project is required")
	}
}

// parseSlides turns "1,3-5" (one-based) into zero-based indexes.
func parseSlides(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || from < 1 {
			return nil, usagef("bad slide number %q", part)
		}
		to := from
		if isRange {
			to, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || to < from {
				return nil, usagef("bad slide range %q", part)
			}
		}
		for i := from; i <= to; i++ {
			out = append(out, i-1)
		}
	}
	return out, nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "export")
	file := fs.String("file", "", "deck file ("+storage.DeckFileExt+")")
	projectID := fs.String("project", "", "project id to fetch from the backend")
	format := fs.String("format", "pdf", "pdf, png, svg or zip; comma separated with --preset")
	preset := fs.String("preset", "", "web or print; writes every format of the preset")
	out := fs.String("out", "", "output file (pdf, zip) or directory (png, svg, presets)")
	slides := fs.String("slides", "", "slides to export, e.g. 1,3-5")
	width := fs.Int("width", 0, "raster width in pixels")
	pageNumbers := fs.Bool("page-numbers", false, "print page numbers (pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sel, err := parseSlides(*slides)
	if err != nil {
		return err
	}
	project, deck, err := loadDeck(ctx, a, *file, *projectID)
	if err != nil {
		return err
	}
	doc := export.Document{Title: project.Name, Slides: deck.Slides}

	var paths []string
	if *preset != "" {
		formatSet := false
		fs.Visit(func(f *flag.Flag) { formatSet = formatSet || f.Name == "format" })
		opt := export.BatchOptions{
			Preset: export.PresetName(*preset),
			Slides: sel,
			Width:  *width,
			OutDir: *out,
		}
		if opt.OutDir == "" {
			opt.OutDir = "."
		}
		if formatSet {
			opt.Formats = strings.Split(*format, ",")
		}
		paths, err = export.BatchExport(ctx, doc, opt)
	} else {
		paths, err = exportOne(ctx, doc, strings.ToLower(strings.TrimSpace(*format)), *out, sel, *width, *pageNumbers)
	}
	if err != nil {
		return err
	}
	for _, p := range paths {
		_, _ = fmt.Fprintln(a.out, p)
	}
	return nil
}

func exportOne(ctx context.Context, doc export.Document, format, out string, sel []int, width int, pageNumbers bool) ([]string, error) {
	switch format {
	case "pdf":
		if out == "" {
			out = "deck.pdf"
		}
		return []string{out}, export.ExportPDF(doc, out, export.PDFOptions{Slides: sel, PageNumbers: pageNumbers})
	case "png":
		if out == "" {
			out = "slides"
		}
		return export.ExportPNGSlides(ctx, doc, out, export.PNGOptions{Slides: sel, Width: width})
	case "svg":
		if out == "" {
			out = "slides"
		}
		return export.ExportSVGSlides(doc, out, export.SVGOptions{Slides: sel, Width: width})
	case "zip":
		if out == "" {
			out = "deck.zip"
		}
		p, err := export.ExportZIP(ctx, doc, out, export.ZIPOptions{Slides: sel, Width: width})
		return []string{p}, err
	default:
		return nil, usagef("unknown format %q", format)
	}
}

func runPresent(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "present")
	file := fs.String("file", "", "deck file ("+storage.DeckFileExt+")")
	projectID := fs.String("project", "", "project id to fetch from the backend")
	start := fs.Int("start", 1, "slide to start at")
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, deck, err := loadDeck(ctx, a, *file, *projectID)
	if err != nil {
		return err
	}
	p := present.New(present.SlideList(deck.Slides))
	p.OnEnter(telemetry.PresentationStarted)
	p.Enter(*start - 1)
	return playback(ctx, p, bufio.NewScanner(a.in), a.out)
}

// presentKeys maps terminal input to presentation keys.
var presentKeys = map[string]present.Key{
	"":      present.KeyRight,
	"n":     present.KeyRight,
	"right": present.KeyRight,
	"space": present.KeySpace,
	"p":     present.KeyLeft,
	"left":  present.KeyLeft,
	"home":  present.KeyHome,
	"g":     present.KeyHome,
	"end":   present.KeyEnd,
	"G":     present.KeyEnd,
	"q":     present.KeyEscape,
	"esc":   present.KeyEscape,
}

// playback shows frames until the presentation is left or input ends.
func playback(ctx context.Context, p *present.Presenter, sc *bufio.Scanner, out io.Writer) error {
	for p.Presenting() {
		f, _ := p.Current()
		printFrame(out, f)
		_, _ = fmt.Fprint(out, "[enter/n next, p prev, g first, G last, q quit] ")
		if !sc.Scan() {
			p.Exit()
			break
		}
		if ctx.Err() != nil {
			p.Exit()
			return ctx.Err()
		}
		input := strings.TrimSpace(sc.Text())
		k, ok := presentKeys[input]
		if !ok {
			k, ok = presentKeys[strings.ToLower(input)]
		}
		if ok {
			p.HandleKey(k)
		}
	}
	_, _ = fmt.Fprintln(out)
	return sc.Err()
}

func printFrame(w io.Writer, f present.Frame) {
	_, _ = fmt.Fprintf(w, "\n── %d/%d ── bg %s ──\n", f.Index+1, f.Total, f.Colors.BG)
	if f.Slide.Title != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", f.Slide.Title)
	}
	for _, line := range strings.Split(f.Slide.Content, "\n") {
		if line != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", line)
		}
	}
	for _, e := range f.Slide.Elements {
		switch e.Type {
		case domain.ElementText:
			_, _ = fmt.Fprintf(w, "    %s\n", e.Text)
		case domain.ElementIcon:
			if ic, ok := catalog.IconByID(e.ElementID); ok {
				_, _ = fmt.Fprintf(w, "    [%s %s]\n", ic.Glyph, ic.Name)
			}
		}
	}
	for _, m := range f.Slide.Media {
		_, _ = fmt.Fprintf(w, "    (%s: %s)\n", m.Type, m.URL)
	}
}

func runTemplates(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "templates")
	icons := fs.Bool("icons", false, "list icons instead of templates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *icons {
		for _, cat := range catalog.IconCategories() {
			_, _ = fmt.Fprintf(a.out, "%s:\n", cat)
			for _, ic := range catalog.IconsIn(cat) {
				_, _ = fmt.Fprintf(a.out, "  %-16s %s %s\n", ic.ID, ic.Glyph, ic.Name)
			}
		}
		return nil
	}
	for _, t := range catalog.Templates() {
		_, _ = fmt.Fprintf(a.out, "%-18s %-20s %-10s bg=%s text=%s accent=%s\n",
			t.ID, t.Name, t.Category, t.Colors.BG, t.Colors.Text, t.Colors.Accent)
	}
	return nil
}

func runToken(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "token")
	subject := fs.String("subject", "cli", "token subject")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime (max 24h)")
	save := fs.Bool("save", false, "store the token in the OS keychain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tok, exp, err := a.client().IssueToken(ctx, *subject, *ttl)
	if err != nil {
		return err
	}
	if *save {
		if err := config.SetToken(tok); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		_, _ = fmt.Fprintf(a.out, "token stored, expires %s\n", exp.Format(time.RFC3339))
		return nil
	}
	_, _ = fmt.Fprintln(a.out, tok)
	return nil
}

func runDrafts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "drafts")
	projectID := fs.String("project", "", "list drafts of this project")
	limit := fs.Int("limit", 20, "max drafts to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := draftsPath()
	if err != nil {
		return err
	}
	d, err := storage.OpenDrafts(path)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return listDrafts(ctx, d, *projectID, *limit, a.out)
}

func listDrafts(ctx context.Context, d *storage.Drafts, projectID string, limit int, w io.Writer) error {
	if projectID == "" {
		ids, err := d.Projects(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			_, _ = fmt.Fprintln(w, "no unsaved drafts")
		}
		for _, id := range ids {
			_, _ = fmt.Fprintln(w, id)
		}
		return nil
	}
	list, err := d.List(ctx, projectID, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return errors.New("no drafts for " + projectID)
	}
	for _, dr := range list {
		state := "unsaved"
		if dr.Synced {
			state = "synced"
		}
		_, _ = fmt.Fprintf(w, "%6d  %s  %-11s %-7s %d slides\n",
			dr.ID, dr.TS.Local().Format("2006-01-02 15:04:05"), dr.Reason, state, len(dr.Slides))
	}
	return nil
}
