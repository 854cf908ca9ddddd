/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package present plays a deck back full screen. It only reads the deck;
// nothing reachable from here can change it.
package present

import (
	"sync"

	"pitchdeck/internal/catalog"
	"pitchdeck/internal/domain"
)

// Key is a keyboard key understood during a presentation.
type Key string

const (
	KeyRight  Key = "ArrowRight"
	KeyLeft   Key = "ArrowLeft"
	KeySpace  Key = " "
	KeyEscape Key = "Escape"
	KeyHome   Key = "Home"
	KeyEnd    Key = "End"
)

// Source provides the slides to show. *scene.Scene satisfies it through an
// adapter in the editor package; tests use SlideList.
type Source interface {
	PresentSlides() []domain.Slide
}

// SlideList is a fixed Source.
type SlideList []domain.Slide

func (s SlideList) PresentSlides() []domain.Slide { return s }

// Frame is what the screen shows for one slide.
type Frame struct {
	Index   int
	Total   int
	Slide   domain.Slide
	Colors  domain.Colors
	Title   domain.EffectiveStyle
	Content domain.EffectiveStyle
}

// Presenter is safe for concurrent use.
type Presenter struct {
	mu         sync.Mutex
	src        Source
	slides     []domain.Slide
	index      int
	presenting bool
	onEnter    func(total int)
}

func New(src Source) *Presenter { return &Presenter{src: src} }

// OnEnter registers a callback invoked each time a presentation starts.
func (p *Presenter) OnEnter(fn func(total int)) {
	p.mu.Lock()
	p.onEnter = fn
	p.mu.Unlock()
}

// Enter starts presenting at start, clamped into the deck. The slide list
// is captured once so the show is stable while it runs.
func (p *Presenter) Enter(start int) {
	p.mu.Lock()
	p.slides = p.src.PresentSlides()
	p.index = clampIndex(start, len(p.slides))
	p.presenting = len(p.slides) > 0
	fn, n, ok := p.onEnter, len(p.slides), p.presenting
	p.mu.Unlock()
	if ok && fn != nil {
		fn(n)
	}
}

// Exit leaves the presentation.
func (p *Presenter) Exit() {
	p.mu.Lock()
	p.presenting = false
	p.mu.Unlock()
}

func (p *Presenter) Presenting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presenting
}

func (p *Presenter) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// HandleKey navigates. Keys are ignored unless presenting; the index never
// leaves the deck. It reports whether the key was consumed.
func (p *Presenter) HandleKey(k Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.presenting {
		return false
	}
	last := len(p.slides) - 1
	switch k {
	case KeyRight, KeySpace:
		p.index = min(last, p.index+1)
	case KeyLeft:
		p.index = max(0, p.index-1)
	case KeyHome:
		p.index = 0
	case KeyEnd:
		p.index = last
	case KeyEscape:
		p.presenting = false
	default:
		return false
	}
	return true
}

// Current returns the frame on screen. ok is false when not presenting.
func (p *Presenter) Current() (f Frame, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.presenting {
		return Frame{}, false
	}
	s := p.slides[p.index].Clone()
	title, content := catalog.ResolveTextStyles(s)
	return Frame{
		Index:   p.index,
		Total:   len(p.slides),
		Slide:   s,
		Colors:  catalog.ResolveColors(s),
		Title:   title,
		Content: content,
	}, true
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return min(max(i, 0), n-1)
}
