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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pitchdeck/internal/autosave"
	"pitchdeck/internal/config"
	"pitchdeck/internal/domain"
	"pitchdeck/internal/editor"
	"pitchdeck/internal/export"
	"pitchdeck/internal/geometry"
	"pitchdeck/internal/interaction"
	"pitchdeck/internal/outline"
	"pitchdeck/internal/scene"
	"pitchdeck/internal/storage"
)

// editCanvas is the pixel size drag deltas refer to.
var editCanvas = geometry.Size{W: 960, H: 540}

const editHelp = `commands:
  show                      list slides and items of the current slide
  go N | add | dup | del    select, add, duplicate or delete slides
  move FROM TO              reorder slides
  title TEXT | content TEXT | template ID
  icon ID | text WORDS | image URL
  drag ID DX DY             drag an item by pixels on a 960x540 canvas
  front ID | back ID | rm ID
  undo | redo | save | status
  suggest PROMPT | pick N | cancel
  present                   play the deck from the current slide
  pdf PATH | png DIR | file PATH
  outline PATH              replace the slides with a text outline
  restore | discard         handle a pending local draft
  quit`

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "edit")
	projectID := fs.String("project", "", "project id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectID == "" {
		return usagef("--project is required")
	}

	var drafts *storage.Drafts
	if path, err := draftsPath(); err == nil {
		if drafts, err = storage.OpenDrafts(path); err != nil {
			a.l.Warn("local drafts unavailable", slog.Any("err", err))
			drafts = nil
		}
	}
	if drafts != nil {
		defer func() { _ = drafts.Close() }()
	}

	client := a.client()
	gen, err := editor.NewGenerator(a.cfg.AI, config.AIKey(), client, nil)
	if err != nil {
		return err
	}
	sess, err := editor.New(editor.Options{
		ProjectID: *projectID,
		Backend:   client,
		Generator: gen,
		Drafts:    drafts,
		Editor:    a.cfg.Editor,
		OnNotice: func(n editor.Notice) {
			_, _ = fmt.Fprintf(a.out, "! %s\n", n.Message)
		},
		OnStatus: func(st autosave.Status, err error) {
			a.l.Debug("save status", slog.String("status", st.String()), slog.Any("err", err))
		},
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	*a.crash = *sess.CrashHandle()

	if err := sess.Hydrate(ctx); err != nil {
		return err
	}
	r := &repl{s: sess, in: bufio.NewScanner(a.in), out: a.out}
	if d, err := sess.PendingDraft(ctx); err == nil && d != nil {
		r.draft = d
		_, _ = fmt.Fprintf(a.out, "A local draft from %s (%s) was not saved. Type 'restore' or 'discard'.\n",
			d.TS.Local().Format("2006-01-02 15:04:05"), d.Reason)
	}
	_, _ = fmt.Fprintf(a.out, "Editing %q. Type 'help' for commands.\n", sess.Project().Name)
	return r.loop(ctx)
}

type repl struct {
	s     *editor.Session
	in    *bufio.Scanner
	out   io.Writer
	draft *storage.Draft
}

func (r *repl) loop(ctx context.Context) error {
	for {
		_, _ = fmt.Fprintf(r.out, "[%d/%d] > ", r.s.Scene.Current()+1, r.s.Scene.Len())
		if !r.in.Scan() {
			return r.finish(ctx)
		}
		if ctx.Err() != nil {
			return r.finish(ctx)
		}
		quit, err := r.exec(ctx, strings.TrimSpace(r.in.Text()))
		if err != nil {
			// already reported through the notice callback
			continue
		}
		if quit {
			return r.finish(ctx)
		}
	}
}

// finish saves outstanding changes before leaving.
func (r *repl) finish(ctx context.Context) error {
	if !r.s.Autosave.HasChanges() {
		return nil
	}
	if ctx.Err() != nil {
		// the session keeps a local draft on close
		return nil
	}
	return r.s.Save(ctx)
}

func (r *repl) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := r.s
	switch cmd {
	case "":
		return false, nil
	case "help", "?":
		_, _ = fmt.Fprintln(r.out, editHelp)
	case "quit", "exit", "q":
		return true, nil
	case "show":
		r.show()
	case "go":
		n, err := r.number(rest)
		if err != nil {
			return false, err
		}
		return false, s.SelectSlide(n - 1)
	case "add":
		_, err := s.AddSlide()
		return false, err
	case "dup":
		_, err := s.DuplicateSlide()
		return false, err
	case "del":
		return false, s.DeleteSlide()
	case "move":
		from, to, ok := strings.Cut(rest, " ")
		f, err1 := strconv.Atoi(from)
		t, err2 := strconv.Atoi(strings.TrimSpace(to))
		if !ok || err1 != nil || err2 != nil {
			return false, s.Report(fmt.Errorf("move %q: %w", rest, scene.ErrIndexOutOfRange))
		}
		return false, s.MoveSlide(f-1, t-1)
	case "title":
		return false, s.Report(s.Scene.UpdateSlide(s.Scene.Current(), scene.FieldTitle, rest))
	case "content":
		return false, s.Report(s.Scene.UpdateSlide(s.Scene.Current(), scene.FieldContent, strings.ReplaceAll(rest, `\n`, "\n")))
	case "template":
		return false, s.Report(s.Scene.UpdateSlide(s.Scene.Current(), scene.FieldTemplate, rest))
	case "icon":
		e, err := s.AddIcon(rest)
		if err == nil {
			_, _ = fmt.Fprintf(r.out, "added %s\n", short(e.ID))
		}
		return false, err
	case "text":
		e, err := s.Scene.AddTextBlock()
		if err != nil {
			return false, s.Report(err)
		}
		if rest != "" {
			err = s.Scene.UpdateTextElement(e.ID, domain.ElementPatch{Text: domain.String(rest)})
		}
		_, _ = fmt.Fprintf(r.out, "added %s\n", short(e.ID))
		return false, s.Report(err)
	case "image":
		m, err := s.Scene.AddMedia(domain.Media{Type: domain.MediaImage, URL: rest})
		if err == nil {
			_, _ = fmt.Fprintf(r.out, "added %s\n", short(m.ID))
		}
		return false, s.Report(err)
	case "drag":
		return false, r.drag(rest)
	case "front", "back", "rm":
		id, kind := r.resolve(rest)
		switch {
		case id == "":
			return false, s.Report(fmt.Errorf("%q: %w", rest, scene.ErrItemNotFound))
		case cmd == "front":
			return false, s.Report(s.Scene.BringToFront(id))
		case cmd == "back":
			return false, s.Report(s.Scene.SendToBack(id))
		case kind == interaction.TargetMedia:
			return false, s.Report(s.Scene.DeleteMedia(id))
		default:
			return false, s.Report(s.Scene.DeleteElement(id))
		}
	case "undo":
		if !s.Undo() {
			_, _ = fmt.Fprintln(r.out, "nothing to undo")
		}
	case "redo":
		if !s.Redo() {
			_, _ = fmt.Fprintln(r.out, "nothing to redo")
		}
	case "save":
		if err := s.Save(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(r.out, "saved")
	case "status":
		st, err := s.Autosave.Status()
		_, _ = fmt.Fprintf(r.out, "%s", st)
		if err != nil {
			_, _ = fmt.Fprintf(r.out, " (%v)", err)
		}
		_, _ = fmt.Fprintln(r.out)
	case "suggest":
		cands, err := s.RequestSuggestions(ctx, rest)
		if err != nil {
			return false, err
		}
		for i, c := range cands {
			_, _ = fmt.Fprintf(r.out, "%d) %s [%s], %d slides: %s\n", i+1, c.Name, c.Template, len(c.Slides), c.Description)
		}
	case "pick":
		n, err := r.number(rest)
		if err != nil {
			return false, err
		}
		_, err = s.SelectSuggestion(n - 1)
		return false, err
	case "cancel":
		s.Suggest.Cancel()
	case "present":
		s.Present()
		return false, playback(ctx, s.Presenter, r.in, r.out)
	case "pdf":
		return false, s.ExportPDF(orDefault(rest, "deck.pdf"), export.PDFOptions{})
	case "png":
		paths, err := s.ExportPNG(ctx, orDefault(rest, "slides"), export.PNGOptions{})
		_, _ = fmt.Fprintf(r.out, "%d files written\n", len(paths))
		return false, err
	case "file":
		return false, s.SaveDeckFile(orDefault(rest, "deck"+storage.DeckFileExt))
	case "outline":
		b, err := os.ReadFile(rest)
		if err != nil {
			return false, err
		}
		slides, perr := outline.Slides(string(b), s.Scene.CurrentSlide().Template)
		if perr != nil {
			_, _ = fmt.Fprintln(r.out, perr)
		}
		if len(slides) == 0 {
			return false, perr
		}
		return false, s.Report(s.Scene.ReplaceAll(slides))
	case "restore", "discard":
		if r.draft == nil {
			_, _ = fmt.Fprintln(r.out, "no pending draft")
			return false, nil
		}
		d := r.draft
		r.draft = nil
		if cmd == "restore" {
			return false, s.RestoreDraft(ctx, d)
		}
		return false, s.DiscardDraft(ctx, d)
	default:
		_, _ = fmt.Fprintf(r.out, "unknown command %q, type 'help'\n", cmd)
	}
	return false, nil
}

func (r *repl) number(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, r.s.Report(fmt.Errorf("%q is not a number: %w", s, scene.ErrIndexOutOfRange))
	}
	return n, nil
}

// resolve finds an item on the current slide by id or id prefix.
func (r *repl) resolve(prefix string) (string, interaction.TargetKind) {
	if prefix == "" {
		return "", 0
	}
	cur := r.s.Scene.CurrentSlide()
	for _, m := range cur.Media {
		if strings.HasPrefix(m.ID, prefix) {
			return m.ID, interaction.TargetMedia
		}
	}
	for _, e := range cur.Elements {
		if strings.HasPrefix(e.ID, prefix) {
			return e.ID, interaction.TargetElement
		}
	}
	return "", 0
}

// drag runs a press, move and release through the interaction controller.
func (r *repl) drag(args string) error {
	f := strings.Fields(args)
	if len(f) != 3 {
		return r.s.Report(fmt.Errorf("drag needs ID DX DY: %w", scene.ErrItemNotFound))
	}
	dx, err1 := strconv.ParseFloat(f[1], 64)
	dy, err2 := strconv.ParseFloat(f[2], 64)
	id, kind := r.resolve(f[0])
	if id == "" || err1 != nil || err2 != nil {
		return r.s.Report(fmt.Errorf("drag %q: %w", args, scene.ErrItemNotFound))
	}
	c := r.s.Controller
	if err := c.PointerDown(interaction.Target{Kind: kind, ID: id}, geometry.Pt{}, editCanvas); err != nil {
		return r.s.Report(err)
	}
	defer c.PointerUp()
	if err := c.PointerMove(geometry.Pt{X: dx, Y: dy}); err != nil {
		return r.s.Report(err)
	}
	for _, g := range c.Guides() {
		_, _ = fmt.Fprintf(r.out, "aligned: %s %s guide at %.1f%%\n", g.Orientation, g.Kind, g.Pos)
	}
	return nil
}

func (r *repl) show() {
	snap := r.s.Scene.Snapshot()
	for i, sl := range snap.Slides {
		mark := " "
		if i == snap.Current {
			mark = "*"
		}
		_, _ = fmt.Fprintf(r.out, "%s %2d  %-8s %-16s %s\n", mark, i+1, sl.Type, sl.Template, sl.Title)
	}
	cur := snap.CurrentSlide()
	for _, m := range cur.Media {
		_, _ = fmt.Fprintf(r.out, "    media   %s  %s at %.0f,%.0f %.0fx%.0f\n", short(m.ID), m.URL, m.X, m.Y, m.Width, m.Height)
	}
	for _, e := range cur.Elements {
		label := e.Text
		if e.Type == domain.ElementIcon {
			label = e.ElementID
		}
		_, _ = fmt.Fprintf(r.out, "    %-7s %s  %s at %.0f,%.0f\n", e.Type, short(e.ID), label, e.X, e.Y)
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
