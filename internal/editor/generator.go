/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pitchdeck/internal/config"
	"pitchdeck/internal/suggest"
)

// Suggestion providers accepted in the ai.provider setting.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
	ProviderRemote = "remote"
)

var ErrNoAIKey = errors.New("openai provider selected but no API key is set")

// NewGenerator picks the suggestion generator for cfg. apiKey is only used
// by the openai provider; remote asks the backend, which must then be set.
func NewGenerator(cfg config.AIConfig, apiKey string, remote suggest.Generator, hc *http.Client) (suggest.Generator, error) {
	switch p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p {
	case "", ProviderLocal:
		return suggest.LocalGenerator{}, nil
	case ProviderOpenAI:
		if strings.TrimSpace(apiKey) == "" {
			return nil, ErrNoAIKey
		}
		return suggest.NewOpenAIGenerator(apiKey, cfg.Model, cfg.BaseURL, hc), nil
	case ProviderRemote:
		if remote == nil {
			return nil, errors.New("remote provider selected without a backend")
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", p)
	}
}
