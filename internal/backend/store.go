/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pitchdeck/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store persists projects and their decks. GetDeck returns (nil, nil) when
// the project has no deck yet.
type Store interface {
	Ping(ctx context.Context) error
	CreateProject(ctx context.Context, p domain.Project) (domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	GetDeck(ctx context.Context, projectID string) (*domain.Deck, error)
	CreateDeck(ctx context.Context, projectID, template string, slides []domain.Slide) (domain.Deck, error)
	UpdateDeckSlides(ctx context.Context, projectID string, slides []domain.Slide) error
}

// PGStore is the PostgreSQL Store. Slides live in a JSONB column and are
// replaced wholesale on update.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PGStore) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, name, description) VALUES($1,$2,$3)`, p.ID, p.Name, p.Description)
	if isPGCode(err, "23505") {
		return domain.Project{}, fmt.Errorf("project %s: %w", p.ID, ErrConflict)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	case err != nil:
		return domain.Project{}, fmt.Errorf("select project: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetDeck(ctx context.Context, projectID string) (*domain.Deck, error) {
	var (
		d   domain.Deck
		raw []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, template, slides, created_at, updated_at FROM pitch_decks WHERE project_id = $1`, projectID).
		Scan(&d.ID, &d.ProjectID, &d.Template, &raw, &d.CreatedAt, &d.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select deck: %w", err)
	}
	if err := json.Unmarshal(raw, &d.Slides); err != nil {
		return nil, fmt.Errorf("decode slides of deck %s: %w", d.ID, err)
	}
	d.Slides = domain.SanitizeSlides(d.Slides)
	return &d, nil
}

func (s *PGStore) CreateDeck(ctx context.Context, projectID, template string, slides []domain.Slide) (domain.Deck, error) {
	b, err := json.Marshal(slides)
	if err != nil {
		return domain.Deck{}, err
	}
	d := domain.Deck{ID: uuid.NewString(), ProjectID: projectID, Template: template, Slides: slides}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO pitch_decks(id, project_id, template, slides) VALUES($1,$2,$3,$4::jsonb)
		 RETURNING created_at, updated_at`, d.ID, projectID, template, string(b)).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	switch {
	case isPGCode(err, "23505"):
		return domain.Deck{}, fmt.Errorf("deck for project %s: %w", projectID, ErrConflict)
	case isPGCode(err, "23503"):
		return domain.Deck{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	case err != nil:
		return domain.Deck{}, fmt.Errorf("insert deck: %w", err)
	}
	return d, nil
}

func (s *PGStore) UpdateDeckSlides(ctx context.Context, projectID string, slides []domain.Slide) error {
	b, err := json.Marshal(slides)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE pitch_decks SET slides = $2::jsonb, version = version + 1, updated_at = now() WHERE project_id = $1`,
		projectID, string(b))
	if err != nil {
		return fmt.Errorf("update deck: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("deck for project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

func isPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// MemoryStore keeps everything in process memory. It backs `serve --memory`
// for local frontend work and the handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	decks    map[string]domain.Deck
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: map[string]domain.Project{}, decks: map[string]domain.Deck{}}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) CreateProject(_ context.Context, p domain.Project) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := m.projects[p.ID]; ok {
		return domain.Project{}, fmt.Errorf("project %s: %w", p.ID, ErrConflict)
	}
	m.projects[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *MemoryStore) GetDeck(_ context.Context, projectID string) (*domain.Deck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.decks[projectID]
	if !ok {
		return nil, nil
	}
	d.Slides = domain.CloneSlides(d.Slides)
	return &d, nil
}

func (m *MemoryStore) CreateDeck(_ context.Context, projectID, template string, slides []domain.Slide) (domain.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return domain.Deck{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if _, ok := m.decks[projectID]; ok {
		return domain.Deck{}, fmt.Errorf("deck for project %s: %w", projectID, ErrConflict)
	}
	now := time.Now().UTC()
	d := domain.Deck{
		ID: uuid.NewString(), ProjectID: projectID, Template: template,
		Slides: domain.CloneSlides(slides), CreatedAt: now, UpdatedAt: now,
	}
	m.decks[projectID] = d
	return d, nil
}

func (m *MemoryStore) UpdateDeckSlides(_ context.Context, projectID string, slides []domain.Slide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decks[projectID]
	if !ok {
		return fmt.Errorf("deck for project %s: %w", projectID, ErrNotFound)
	}
	d.Slides = domain.CloneSlides(slides)
	d.UpdatedAt = time.Now().UTC()
	m.decks[projectID] = d
	return nil
}
