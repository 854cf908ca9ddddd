/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pitchdeck/internal/domain"
)

// Why a draft was recorded.
const (
	ReasonSaveFailed = "save_failed"
	ReasonClosed     = "closed"
	ReasonCrash      = "crash"
	ReasonSaved      = "saved"
)

// Draft is one recorded slide list for a project.
type Draft struct {
	ID        int64
	ProjectID string
	DeckID    string
	Slides    []domain.Slide
	TS        time.Time
	// Synced is true once the server is known to hold these slides.
	Synced bool
	Reason string
}

// tsLayout has fixed width so stored timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// language=SQL
// dialect=SQLite
const insertDraftSQL = `INSERT INTO drafts(project_id, deck_id, ts, slides, synced, reason) VALUES (?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectDraftsSQL = `SELECT id, project_id, deck_id, ts, slides, synced, reason FROM drafts
	WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const markSyncedSQL = `UPDATE drafts SET synced = 1 WHERE project_id = ? AND ts <= ? AND synced = 0`

// language=SQL
// dialect=SQLite
const pruneDraftsSQL = `DELETE FROM drafts WHERE project_id = ? AND id NOT IN (
	SELECT id FROM drafts WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Save records a draft and returns its row id. A zero TS means now.
func (d *Drafts) Save(ctx context.Context, dr Draft) (int64, error) {
	if dr.ProjectID == "" {
		return 0, errors.New("draft without project id")
	}
	if dr.TS.IsZero() {
		dr.TS = time.Now()
	}
	blob, err := json.Marshal(domain.SanitizeSlides(dr.Slides))
	if err != nil {
		return 0, fmt.Errorf("marshal draft: %w", err)
	}
	res, err := d.db.ExecContext(ctx, insertDraftSQL, dr.ProjectID, dr.DeckID,
		dr.TS.UTC().Format(tsLayout), blob, dr.Synced, dr.Reason)
	if err != nil {
		return 0, fmt.Errorf("insert draft: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the newest draft of a project or nil if none.
func (d *Drafts) Latest(ctx context.Context, projectID string) (*Draft, error) {
	out, err := d.List(ctx, projectID, 1)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// Pending returns the newest draft when it has not reached the server, or nil.
func (d *Drafts) Pending(ctx context.Context, projectID string) (*Draft, error) {
	dr, err := d.Latest(ctx, projectID)
	if err != nil || dr == nil || dr.Synced {
		return nil, err
	}
	return dr, nil
}

// List returns up to limit most recent drafts for a project.
func (d *Drafts) List(ctx context.Context, projectID string, limit int) ([]Draft, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, selectDraftsSQL, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Draft
	for rows.Next() {
		var (
			dr    Draft
			tsStr string
			blob  []byte
		)
		if err := rows.Scan(&dr.ID, &dr.ProjectID, &dr.DeckID, &tsStr, &blob, &dr.Synced, &dr.Reason); err != nil {
			return nil, err
		}
		dr.TS, _ = time.Parse(tsLayout, tsStr)
		if err := json.Unmarshal(blob, &dr.Slides); err != nil {
			return nil, fmt.Errorf("decode draft %d: %w", dr.ID, err)
		}
		dr.Slides = domain.SanitizeSlides(dr.Slides)
		out = append(out, dr)
	}
	return out, rows.Err()
}

// MarkSynced flags every draft of the project recorded at or before ts as synced.
func (d *Drafts) MarkSynced(ctx context.Context, projectID string, ts time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, markSyncedSQL, projectID, ts.UTC().Format(tsLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Prune keeps at most keepLast drafts for the project and deletes older ones.
func (d *Drafts) Prune(ctx context.Context, projectID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := d.db.ExecContext(ctx, pruneDraftsSQL, projectID, projectID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Projects lists project ids that have at least one unsynced draft.
func (d *Drafts) Projects(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM drafts WHERE synced = 0 ORDER BY project_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
