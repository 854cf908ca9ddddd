/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage keeps local copies of decks.
// Drafts are slide lists recorded in an embedded SQLite database (drafts.sqlite in the user config
// directory) so that unsaved edits survive a failed save, a crash or a closed session.
// Deck files are standalone JSON documents written transactionally with timestamped backups.
package storage
