/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous editor usage events and crash
// reports. Nothing is sent unless the user opted in and an endpoint is set.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pitchdeck/internal/config"
	applog "pitchdeck/internal/log"
	"pitchdeck/internal/version"
)

// Event names emitted by the editor.
const (
	EventDeckCreated         = "deck_created"
	EventDeckSaved           = "deck_saved"
	EventSuggestionSelected  = "suggestion_selected"
	EventPresentationStarted = "presentation_started"
)

const (
	EnvEventsURL = "PDK_TELEMETRY_URL"
	EnvCrashURL  = "PDK_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "PDK_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "PDK_TELEMETRY_DEBUG"

	queueSize = 64
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// OptIn comes from the user config (general.telemetry_opt_in, or
// PDK_TELEMETRY_OPT_IN); the endpoints only from the environment. Without
// an endpoint every call is a no-op, even when opted in.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads endpoints from the environment and the opt-in flag from the
// already-loaded app config.
func FromEnv(app config.AppConfig) Config {
	cfg := Config{
		OptIn:        app.General.TelemetryOptIn,
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil && v > 0 {
			cfg.Timeout = v
		}
	}
	return cfg
}

// Client is an async sender with a bounded queue. Event never blocks; when
// the queue is full the event is dropped.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan map[string]any
	pending atomic.Int64
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// Install makes c the package-level client used by Event and UploadCrash.
// It returns the previous one.
func Install(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

func current() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

// New constructs a client and starts its sender goroutine.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, queueSize),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether the installed client sends events.
func Enabled() bool { return current().Enabled() }

// Event queues a small JSON event. Props must not carry user content or ids.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if _, reserved := payload[k]; !reserved {
			payload[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Add(-1)
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry queue full, event dropped", slog.String("event", name))
		}
	}
}

// Event queues an event on the installed client.
func Event(name string, props map[string]any) { current().Event(name, props) }

// Flush waits until queued events were sent, ctx is done, or 500ms passed.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for c.pending.Load() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Close stops the sender goroutine. Queued events are discarded.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item))
			c.pending.Add(-1)
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "pitchdeck/"+version.Version)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a serialized crash report when opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	b := append([]byte(nil), report...)
	c.pending.Add(1)
	go func() {
		defer c.pending.Add(-1)
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b)
	}()
}

// UploadCrash posts a report through the installed client.
func UploadCrash(report []byte) { current().UploadCrash(report) }

// DeckCreated records that a first save created a deck.
func DeckCreated(template string, slides int) {
	Event(EventDeckCreated, map[string]any{"template": template, "slides": slides})
}

// DeckSaved records a successful update.
func DeckSaved(slides int, manual bool) {
	Event(EventDeckSaved, map[string]any{"slides": slides, "manual": manual})
}

// SuggestionSelected records which candidate (0..2) was applied.
func SuggestionSelected(index int) {
	Event(EventSuggestionSelected, map[string]any{"index": index})
}

// PresentationStarted records entering presentation mode.
func PresentationStarted(slides int) {
	Event(EventPresentationStarted, map[string]any{"slides": slides})
}
