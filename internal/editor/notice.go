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
	"context"
	"errors"

	"pitchdeck/internal/autosave"
	"pitchdeck/internal/backend"
	"pitchdeck/internal/scene"
	"pitchdeck/internal/suggest"
)

// Level is how prominently a notice is shown.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	default:
		return "error"
	}
}

// Notice is a transient message for the user. Err is the cause.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// NoticeFor turns an error returned by an editor operation into a message
// the user can act on.
func NoticeFor(err error) Notice {
	n := Notice{Level: LevelWarning, Err: err}
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, scene.ErrLastSlide):
		n.Message = "A deck needs at least one slide."
	case errors.Is(err, scene.ErrIndexOutOfRange):
		n.Message = "That slide does not exist."
	case errors.Is(err, scene.ErrItemNotFound):
		n.Message = "The item is no longer on this slide."
	case errors.Is(err, scene.ErrWrongKind):
		n.Message = "That action does not apply to this item."
	case errors.Is(err, suggest.ErrEmptyPrompt):
		n.Message = "Describe your business to get suggestions."
	case errors.Is(err, suggest.ErrCandidateCount), errors.Is(err, suggest.ErrEmptyCandidate):
		n.Level = LevelError
		n.Message = "The suggestion service returned an unusable answer. Try again."
	case errors.Is(err, suggest.ErrNoCandidate):
		n.Message = "That suggestion is no longer available."
	case errors.Is(err, ErrNoAIKey):
		n.Level = LevelError
		n.Message = "No OpenAI API key is configured."
	case errors.Is(err, autosave.ErrClosed), errors.Is(err, ErrClosed):
		n.Level = LevelInfo
		n.Message = "The editor was closed."
	case errors.Is(err, context.DeadlineExceeded):
		n.Level = LevelError
		n.Message = "The server did not answer in time. Your changes are kept."
	case errors.As(err, &httpErr) && httpErr.Status == 401:
		n.Level = LevelError
		n.Message = "Your session expired. Sign in again."
	case errors.Is(err, backend.ErrNotFound):
		n.Level = LevelError
		n.Message = "The project could not be found."
	default:
		n.Level = LevelError
		n.Message = "Something went wrong: " + err.Error()
	}
	return n
}
