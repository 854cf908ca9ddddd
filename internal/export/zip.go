/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pitchdeck/internal/version"
)

// ZIPOptions controls the thumbnail bundle.
//
//nolint:revive // clarity
type ZIPOptions struct {
	// Width of each image; default ThumbnailWidth.
	Width  int
	Slides []int
}

// bundleManifest is written as deck.json at the root of the archive.
type bundleManifest struct {
	Title      string   `json:"title"`
	Author     string   `json:"author,omitempty"`
	SlideCount int      `json:"slideCount"`
	Slides     []string `json:"slides"`
	Images     []string `json:"images"`
	ExportedAt string   `json:"exportedAt"`
	Generator  string   `json:"generator"`
}

// ExportZIP packages slide images as PNG into a ZIP archive with a deck.json
// manifest. The .zip extension is enforced.
func ExportZIP(ctx context.Context, doc Document, outPath string, opt ZIPOptions) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
		outPath += ".zip"
	}
	width := opt.Width
	if width <= 0 {
		width = ThumbnailWidth
	}
	images, err := EncodeSlides(ctx, doc, PNGOptions{Width: width, Slides: opt.Slides})
	if err != nil {
		return "", err
	}
	indexes := slideIndexes(len(doc.Slides), opt.Slides)

	zw, f, err := createZip(outPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	pad := len(fmt.Sprint(len(indexes)))
	man := bundleManifest{
		Title:      doc.Title,
		Author:     doc.Author,
		SlideCount: len(indexes),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Generator:  "pitchdeck " + version.String(),
	}
	for n, b := range images {
		name := fmt.Sprintf("%0*d.png", pad, n+1)
		if err := addZipFile(zw, name, b); err != nil {
			return "", fmt.Errorf("zip add image: %w", err)
		}
		man.Images = append(man.Images, name)
		man.Slides = append(man.Slides, slideTitle(doc.Slides[indexes[n]], indexes[n]))
	}
	mb, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return "", fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "deck.json", mb); err != nil {
		return "", fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	return outPath, nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create zip: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
