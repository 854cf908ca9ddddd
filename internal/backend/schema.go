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
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema/slides.schema.json
var slidesSchemaJSON []byte

// ErrInvalidSlides wraps schema violations of a slide payload.
var ErrInvalidSlides = errors.New("invalid slides")

var (
	slidesSchemaOnce sync.Once
	slidesSchema     *gojsonschema.Schema
	slidesSchemaErr  error
)

// ValidateSlidesJSON checks a raw slides array against the embedded schema.
func ValidateSlidesJSON(raw []byte) error {
	slidesSchemaOnce.Do(func() {
		slidesSchema, slidesSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(slidesSchemaJSON))
	})
	if slidesSchemaErr != nil {
		return fmt.Errorf("load slides schema: %w", slidesSchemaErr)
	}
	res, err := slidesSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlides, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for i, e := range res.Errors() {
		if i == 5 {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(res.Errors())-5))
			break
		}
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidSlides, strings.Join(msgs, "; "))
}
