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
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitchdeck/internal/config"
	"pitchdeck/internal/crash"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/telemetry"
	"pitchdeck/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Pitch Deck editor core")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  pitchdeck version|-v|--version                 Show version")
	_, _ = fmt.Fprintln(w, "  pitchdeck serve [--memory] [--addr :8080]       Run the REST backend")
	_, _ = fmt.Fprintln(w, "  pitchdeck export (--file F | --project ID) ...  Export a deck to pdf, png, svg or zip")
	_, _ = fmt.Fprintln(w, "  pitchdeck present (--file F | --project ID)     Present a deck in the terminal")
	_, _ = fmt.Fprintln(w, "  pitchdeck templates [--icons]                   List templates and icons")
	_, _ = fmt.Fprintln(w, "  pitchdeck token [--subject S] [--save]          Request a token from a dev backend")
	_, _ = fmt.Fprintln(w, "  pitchdeck drafts [--project ID]                 List local drafts")
	_, _ = fmt.Fprintln(w, "  pitchdeck edit --project ID                     Edit a deck line by line")
	_, _ = fmt.Fprintln(w, "  pitchdeck import --in F (--out F | --project ID) Build a deck from a text outline")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run 'pitchdeck <command> -h' for the flags of a command.")
}

// app carries what every command needs.
type app struct {
	cfg   config.AppConfig
	token string
	out   io.Writer
	in    io.Reader
	l     *slog.Logger
	// crash is filled in by commands that hold unsaved slides.
	crash *crash.Handle
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"serve":     runServe,
	"export":    runExport,
	"present":   runPresent,
	"templates": runTemplates,
	"token":     runToken,
	"drafts":    runDrafts,
	"edit":      runEdit,
	"import":    runImport,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) (code int) {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	tc := telemetry.New(telemetry.FromEnv(cfg))
	telemetry.Install(tc)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		tc.Flush(ctx)
		cancel()
		tc.Close()
	}()

	a := &app{cfg: cfg, token: token, out: os.Stdout, in: os.Stdin, l: l, crash: &crash.Handle{}}
	defer crash.Recover(a.crash)

	if len(args) == 0 {
		usage(os.Stdout)
		return 2
	}
	name := args[0]
	switch name {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(a.out, "pitchdeck", version.String())
		return 0
	case "help", "-h", "--help":
		usage(a.out)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(os.Stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	l.Debug("start", slog.String("command", name), slog.Int("args", len(args)-1))
	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		l.Error("command failed", slog.String("command", name), slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError marks bad command lines.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{msg: fmt.Sprintf(format, args...)} }
