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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pitchdeck/internal/domain"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/suggest"
)

// HTTPError is a non-2xx answer from the server.
type HTTPError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Is lets errors.Is match ErrNotFound and ErrConflict by status code.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// Conflict reports whether the server already holds the resource, e.g. a
// deck created by an earlier request whose response was lost.
func (e *HTTPError) Conflict() bool { return e.Status == http.StatusConflict }

// Permanent reports whether retrying the same request is pointless.
func (e *HTTPError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusRequestTimeout && e.Status != http.StatusTooManyRequests
}

// Client talks to the pitch deck REST API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return NewClientWithOptions(baseURL, token, 10*time.Second, false)
}

// NewClientWithOptions also sets the request timeout and whether TLS
// certificates are verified.
func NewClientWithOptions(baseURL, token string, timeout time.Duration, tlsInsecure bool) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if tlsInsecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev servers
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout, Transport: tr},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{Status: resp.StatusCode, Method: method, Path: u.Path}
		var e struct {
			Error string `json:"error"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(b, &e) == nil {
			he.Message = e.Error
		}
		return he
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func projectPath(projectID string) string {
	return "/api/projects/" + url.PathEscape(projectID)
}

// IssueToken asks the server for a bearer token.
func (c *Client) IssueToken(ctx context.Context, subject string, ttl time.Duration) (string, time.Time, error) {
	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	in := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", in, &out); err != nil {
		return "", time.Time{}, err
	}
	return out.Token, out.ExpiresAt, nil
}

// CreateProject registers a project; the business app normally owns this.
func (c *Client) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	var out struct {
		Project domain.Project `json:"project"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/projects", p, &out); err != nil {
		return domain.Project{}, err
	}
	return out.Project, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	var out struct {
		Project domain.Project `json:"project"`
	}
	if err := c.doJSON(ctx, http.MethodGet, projectPath(projectID), nil, &out); err != nil {
		return domain.Project{}, err
	}
	return out.Project, nil
}

// GetDeck returns the project's deck, or nil when it has none yet. Slides
// that fail schema validation are still returned after clamping; the
// mismatch is only logged.
func (c *Client) GetDeck(ctx context.Context, projectID string) (*domain.Deck, error) {
	var out struct {
		PitchDeck *struct {
			domain.Deck
			Slides json.RawMessage `json:"slides"`
		} `json:"pitchDeck"`
	}
	if err := c.doJSON(ctx, http.MethodGet, projectPath(projectID)+"/pitch-deck", nil, &out); err != nil {
		return nil, err
	}
	if out.PitchDeck == nil {
		return nil, nil
	}
	d := out.PitchDeck.Deck
	raw := out.PitchDeck.Slides
	if len(raw) > 0 && string(raw) != "null" {
		if err := ValidateSlidesJSON(raw); err != nil {
			applog.WithComponent("backend").WarnContext(applog.ContextWithProject(ctx, projectID),
				"hydrated slides do not match schema", slog.Any("err", err))
		}
		if err := json.Unmarshal(raw, &d.Slides); err != nil {
			return nil, fmt.Errorf("decode slides: %w", err)
		}
	}
	d.Slides = domain.SanitizeSlides(d.Slides)
	return &d, nil
}

// CreateDeck creates the project's deck and returns its id.
func (c *Client) CreateDeck(ctx context.Context, projectID, template string, slides []domain.Slide) (string, error) {
	var out struct {
		PitchDeck struct {
			ID string `json:"id"`
		} `json:"pitchDeck"`
	}
	in := map[string]any{"template": template, "slides": domain.SanitizeSlides(slides)}
	if err := c.doJSON(ctx, http.MethodPost, projectPath(projectID)+"/pitch-deck", in, &out); err != nil {
		return "", err
	}
	if out.PitchDeck.ID == "" {
		return "", errors.New("create deck: server returned no id")
	}
	return out.PitchDeck.ID, nil
}

// UpdateDeck replaces the slides of the project's deck. The deck id is only
// used for logging by callers; the server addresses decks by project.
func (c *Client) UpdateDeck(ctx context.Context, projectID, _ string, slides []domain.Slide) error {
	in := map[string]any{"slides": domain.SanitizeSlides(slides)}
	return c.doJSON(ctx, http.MethodPut, projectPath(projectID)+"/pitch-deck", in, nil)
}

// Generate asks the server for deck suggestions.
func (c *Client) Generate(ctx context.Context, prompt string) ([]suggest.Candidate, error) {
	var out struct {
		Suggestions []suggest.Candidate `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/pitch-deck/generate", map[string]string{"prompt": prompt}, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// Hydrate fetches the project and its deck concurrently.
func (c *Client) Hydrate(ctx context.Context, projectID string) (domain.Project, *domain.Deck, error) {
	var (
		p domain.Project
		d *domain.Deck
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = c.GetProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		d, err = c.GetDeck(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Project{}, nil, fmt.Errorf("hydrate project %s: %w", projectID, err)
	}
	return p, d, nil
}
