/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestRotatingFileDefaults(t *testing.T) {
	w, ok := rotatingFile("pdk.log", Rotation{}).(*lj.Logger)
	require.True(t, ok)
	assert.Equal(t, "pdk.log", w.Filename)
	assert.Equal(t, 10, w.MaxSize)
	assert.Equal(t, 3, w.MaxBackups)
	assert.Equal(t, 28, w.MaxAge)
	assert.True(t, w.Compress)

	w = rotatingFile("pdk.log", Rotation{MaxBackups: 7, MaxAgeDays: -1}).(*lj.Logger)
	assert.Equal(t, 10, w.MaxSize)
	assert.Equal(t, 7, w.MaxBackups)
	assert.Equal(t, 28, w.MaxAge)
}

func TestMultiHandlerFiltersPerHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	h := multiHandler(
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	ctx := context.Background()
	assert.True(t, h.Enabled(ctx, slog.LevelDebug))

	l := slog.New(h).With(slog.String("component", "autosave"))
	l.Debug("queued")
	l.Warn("retrying")

	assert.Equal(t, 2, strings.Count(debug.String(), "\n"))
	assert.Equal(t, 1, strings.Count(warn.String(), "\n"))
	assert.NotContains(t, warn.String(), "queued")
	assert.Contains(t, warn.String(), `"component":"autosave"`)

	quiet := multiHandler(slog.NewJSONHandler(&warn, &slog.HandlerOptions{Level: slog.LevelError}))
	assert.False(t, quiet.Enabled(ctx, slog.LevelWarn))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, " WARN ": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestFileRecordsCarryStaticAndContextAttrs(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "pdk.json")
	Init(Options{Level: "info", Format: "json", File: fpath})
	t.Cleanup(func() { Init(Options{}) })

	ctx := ContextWithDeck(ContextWithProject(context.Background(), "proj-7"), "deck-3")
	l := WithOperation(WithComponent("autosave"), "persist")
	l.DebugContext(ctx, "filtered out")
	l.InfoContext(ctx, "persisted", slog.Int("slides", 4))
	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "pitchdeck", m["app"])
	assert.IsType(t, "", m["ver"])
	assert.Equal(t, "autosave", m["component"])
	assert.Equal(t, "persist", m["op"])
	assert.Equal(t, "proj-7", m[ProjectIDKey])
	assert.Equal(t, "deck-3", m[DeckIDKey])
	assert.Equal(t, 4.0, m["slides"])
}
