/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"pitchdeck/internal/catalog"
	applog "pitchdeck/internal/log"
)

const systemPrompt = "You are a JSON-only pitch deck generator. Respond with ONLY valid JSON, no other text. " +
	"Produce exactly 3 alternative decks for the user's startup description as " +
	`{"suggestions":[{"name":"","description":"","template":"","slides":[{"type":"title|content","title":"","content":""}]}]}. ` +
	"Each deck has between 3 and 8 slides; the first slide is of type title. " +
	"template must be one of: %s."

// OpenAIGenerator asks a chat completion model for suggestions.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	l      *slog.Logger
}

// NewOpenAIGenerator builds a generator for an OpenAI compatible endpoint.
// An empty baseURL uses the public API; hc may be nil.
func NewOpenAIGenerator(apiKey, model, baseURL string, hc *http.Client) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		l:      applog.WithComponent("suggest"),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) ([]Candidate, error) {
	l := applog.WithOperation(g.l, "generate").With(slog.String("model", g.model))
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, templateIDs())},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		l.ErrorContext(ctx, "completion request failed", slog.Any("err", err))
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("generate suggestions: no choices returned")
	}
	l.DebugContext(ctx, "completion received",
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens))
	return parseSuggestions(resp.Choices[0].Message.Content)
}

// parseSuggestions extracts the JSON object from a model reply, tolerating
// stray text around it.
func parseSuggestions(raw string) ([]Candidate, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || start > end {
		return nil, fmt.Errorf("reply does not contain a JSON object: %.80q", raw)
	}
	var body struct {
		Suggestions []Candidate `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &body); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return body.Suggestions, nil
}

func templateIDs() string {
	var ids []string
	for _, t := range catalog.Templates() {
		ids = append(ids, t.ID)
	}
	return strings.Join(ids, ", ")
}
