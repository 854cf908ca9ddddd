/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchdeck/internal/domain"

	_ "modernc.org/sqlite"
)

func slidesTitled(titles ...string) []domain.Slide {
	out := make([]domain.Slide, 0, len(titles))
	for _, t := range titles {
		s := domain.NewSlide(domain.SlideContent, "modern-blue")
		s.Title = t
		out = append(out, s)
	}
	return out
}

func openTestDrafts(t *testing.T) *Drafts {
	t.Helper()
	d, err := OpenDrafts(DraftsPath(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDrafts_SaveLatestPending(t *testing.T) {
	d := openTestDrafts(t)
	ctx := context.Background()

	dr, err := d.Latest(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, dr, "empty store")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = d.Save(ctx, Draft{ProjectID: "p1", DeckID: "d1", Slides: slidesTitled("A"), TS: base, Synced: true, Reason: ReasonSaved})
	require.NoError(t, err)
	dr, err = d.Pending(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, dr, "synced latest is not pending")

	_, err = d.Save(ctx, Draft{ProjectID: "p1", DeckID: "d1", Slides: slidesTitled("A", "B"), TS: base.Add(time.Second), Reason: ReasonSaveFailed})
	require.NoError(t, err)
	dr, err = d.Pending(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, dr)
	require.Len(t, dr.Slides, 2)
	assert.Equal(t, "B", dr.Slides[1].Title)
	assert.Equal(t, ReasonSaveFailed, dr.Reason)
	assert.Equal(t, "d1", dr.DeckID)
	assert.True(t, dr.TS.Equal(base.Add(time.Second)), "timestamp round trip: %v", dr.TS)
	assert.NotNil(t, dr.Slides[0].Media)
	assert.NotNil(t, dr.Slides[0].Elements)

	// other projects are separate
	other, _ := d.Latest(ctx, "p2")
	assert.Nil(t, other)
}

func TestDrafts_SubSecondOrdering(t *testing.T) {
	d := openTestDrafts(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC)
	// .1 and .12 would sort wrongly with trailing-zero-trimmed timestamps
	_, _ = d.Save(ctx, Draft{ProjectID: "p", Slides: slidesTitled("first"), TS: base.Add(100 * time.Millisecond)})
	_, _ = d.Save(ctx, Draft{ProjectID: "p", Slides: slidesTitled("second"), TS: base.Add(120 * time.Millisecond)})
	dr, err := d.Latest(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, dr)
	assert.Equal(t, "second", dr.Slides[0].Title)
}

func TestDrafts_MarkSyncedAndPrune(t *testing.T) {
	d := openTestDrafts(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := d.Save(ctx, Draft{ProjectID: "p", Slides: slidesTitled(fmt.Sprint(i)), TS: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err, "save %d", i)
	}
	ids, err := d.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, ids)

	n, err := d.MarkSynced(ctx, "p", base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	dr, _ := d.Pending(ctx, "p")
	require.NotNil(t, dr, "newest draft is still pending")
	assert.Equal(t, "4", dr.Slides[0].Title)

	n, err = d.Prune(ctx, "p", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	list, err := d.List(ctx, "p", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "4", list[0].Slides[0].Title)
	assert.Equal(t, "3", list[1].Slides[0].Title)

	n, _ = d.Prune(ctx, "p", 0)
	assert.Zero(t, n, "keepLast 0 is a no-op")
}

func TestDrafts_RequiresProject(t *testing.T) {
	d := openTestDrafts(t)
	_, err := d.Save(context.Background(), Draft{Slides: slidesTitled("x")})
	assert.Error(t, err)
}

// TestMigrations_UpgradeV1ToV2 ensures that a schema-1 database gains the synced/reason columns.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := DraftsPath(t.TempDir())
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE drafts (id INTEGER PRIMARY KEY AUTOINCREMENT, project_id TEXT NOT NULL, deck_id TEXT NOT NULL DEFAULT '', ts TEXT NOT NULL, slides BLOB NOT NULL);`,
		`INSERT INTO drafts(project_id, ts, slides) VALUES('old', '2020-01-01T00:00:00.000000000Z', '[{"id":"1","title":"legacy"}]');`,
	}
	for _, q := range stmts {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err, "seed v1 schema: %s", q)
	}
	_ = db.Close()

	d, err := OpenDrafts(path)
	require.NoError(t, err)
	defer d.Close()
	v, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)

	dr, err := d.Pending(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, dr, "legacy draft is pending")
	assert.Equal(t, "legacy", dr.Slides[0].Title)
	assert.Equal(t, domain.SlideContent, dr.Slides[0].Type)
}

func TestOpenDrafts_MovesCorruptFileAside(t *testing.T) {
	dir := t.TempDir()
	path := DraftsPath(dir)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("THIS IS NOT SQLITE ", 200)), 0o644))

	d, err := OpenDrafts(path)
	require.NoError(t, err, "open over a corrupt file")
	defer d.Close()
	_, err = d.Save(context.Background(), Draft{ProjectID: "p", Slides: slidesTitled("x")})
	require.NoError(t, err)

	matches, _ := filepath.Glob(path + ".corrupt-*")
	assert.Len(t, matches, 1)
}
