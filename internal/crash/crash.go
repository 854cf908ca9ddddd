/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a report file, a local draft
// of the unsaved slides and a non-zero exit.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "pitchdeck/internal/log"
	"pitchdeck/internal/storage"
	"pitchdeck/internal/telemetry"
	"pitchdeck/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// ReportsDirName is created next to the drafts database.
const ReportsDirName = "crash-reports"

// Handle tells Recover where to put the report and how to capture the
// in-memory slides. A nil Handle writes the report to the temp dir only.
type Handle struct {
	// Dir receives the crash-reports directory. Empty means os.TempDir().
	Dir    string
	Drafts *storage.Drafts
	// Snapshot returns the current slides; ok is false when nothing is loaded.
	Snapshot func() (d storage.Draft, ok bool)
}

// Recover captures a panic, logs it with the stack, writes a report and
// dumps the current slides as a crash draft.
//
// Usage: defer crash.Recover(h)
func Recover(h *Handle) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(h, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if id, err := dumpDraft(h); err != nil {
		l.Error("crash draft failed", slog.Any("err", err))
	} else if id > 0 {
		l.Info("crash draft written", slog.Int64("draft", id))
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// dumpDraft stores the snapshot with ReasonCrash. A panic inside the
// snapshot callback is swallowed; the report already exists.
func dumpDraft(h *Handle) (id int64, err error) {
	if h == nil || h.Drafts == nil || h.Snapshot == nil {
		return 0, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	d, ok := h.Snapshot()
	if !ok {
		return 0, nil
	}
	d.Reason = storage.ReasonCrash
	d.Synced = false
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.Drafts.Save(ctx, d)
}

func writeReport(h *Handle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Dir != "" {
		dir = filepath.Join(h.Dir, ReportsDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dir = os.TempDir()
		}
	}
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("pitchdeck-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Pitch Deck Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil && h.Drafts != nil {
		_, _ = fmt.Fprintf(&buf, "Drafts: %s\n", h.Drafts.Path())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
