/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pitchdeck/internal/domain"
)

const (
	DeckFileExt    = ".deck.json"
	BackupsDirName = "backups"
)

// DeckFile is the on-disk form of an exported deck.
type DeckFile struct {
	FormatVersion int            `json:"formatVersion"`
	Project       domain.Project `json:"project"`
	Deck          domain.Deck    `json:"deck"`
}

const deckFileFormat = 1

// SaveDeckFile writes the deck to path with transactional semantics
// and a timestamped backup of the previous file (if present).
func SaveDeckFile(path string, project domain.Project, deck domain.Deck) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("deck file path is required")
	}
	deck.Slides = domain.SanitizeSlides(deck.Slides)
	// Marshal in human-readable form
	data, err := json.MarshalIndent(DeckFile{FormatVersion: deckFileFormat, Project: project, Deck: deck}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal deck: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create deck dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := filepath.Join(dir, BackupsDirName)
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current deck: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp deck: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace deck: %w", rerr)
	}
	return nil
}

// OpenDeckFile loads a deck file. If it cannot be read or parsed, the latest
// backup next to it is tried instead.
func OpenDeckFile(path string) (DeckFile, error) {
	df, err := readDeckFile(path)
	if err == nil {
		return df, nil
	}
	bdf, berr := openFromLatestBackup(path)
	if berr != nil {
		return DeckFile{}, fmt.Errorf("open deck: %w; backup attempt: %v", err, berr)
	}
	return bdf, nil
}

func readDeckFile(path string) (DeckFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DeckFile{}, err
	}
	var df DeckFile
	if err := json.Unmarshal(b, &df); err != nil {
		return DeckFile{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if df.FormatVersion > deckFileFormat {
		return DeckFile{}, fmt.Errorf("deck file format %d is newer than supported %d", df.FormatVersion, deckFileFormat)
	}
	if len(df.Deck.Slides) == 0 {
		return DeckFile{}, errors.New("deck file has no slides")
	}
	df.Deck.Slides = domain.SanitizeSlides(df.Deck.Slides)
	return df, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

func openFromLatestBackup(path string) (DeckFile, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return DeckFile{}, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return DeckFile{}, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	return readDeckFile(candidates[len(candidates)-1])
}
