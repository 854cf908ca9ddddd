/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package suggest produces whole-deck suggestions from a free-text prompt
// and swaps the chosen one into the editor.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
)

// CandidateCount is the number of suggestions every request yields.
const CandidateCount = 3

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrCandidateCount = errors.New("generator must return exactly 3 candidates")
	ErrEmptyCandidate = errors.New("candidate has no slides")
	ErrNoCandidate    = errors.New("no such candidate")
	ErrSuperseded     = errors.New("request was cancelled or superseded")
)

// Candidate is one suggested deck.
type Candidate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Template    string         `json:"template"`
	Slides      []domain.Slide `json:"slides"`
}

// Generator turns a prompt into candidates.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]Candidate, error)
}

// Generate trims the prompt, runs g and validates the result. Candidates
// come back normalized: every slide has a template, lists are never nil
// and positions are clamped.
func Generate(ctx context.Context, g Generator, prompt string) ([]Candidate, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	cands, err := g.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return Validate(cands)
}

// Validate checks the candidate count and normalizes each candidate.
func Validate(cands []Candidate) ([]Candidate, error) {
	if len(cands) != CandidateCount {
		return nil, fmt.Errorf("got %d: %w", len(cands), ErrCandidateCount)
	}
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		if len(c.Slides) == 0 {
			return nil, fmt.Errorf("candidate %d: %w", i+1, ErrEmptyCandidate)
		}
		if _, ok := catalog.TemplateByID(c.Template); !ok {
			c.Template = catalog.DefaultTemplate().ID
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("suggestion-%d", i+1)
		}
		slides := domain.SanitizeSlides(c.Slides)
		for j := range slides {
			if slides[j].ID == "" {
				slides[j].ID = domain.NewSlideID()
			}
			if slides[j].Template == "" && slides[j].CustomColors == nil {
				slides[j].Template = c.Template
			}
		}
		c.Slides = slides
		out[i] = c
	}
	return out, nil
}
