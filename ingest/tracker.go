// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Tracker is the durable record of which source files have been fully
// ingested. It is persisted as a JSON list of file identifiers and rewritten
// whole on every Mark; the rewrite is atomic (temp file + rename) so a crash
// never leaves a torn tracker file.
//
// The pipeline is single-writer; Tracker performs no locking of its own.
type Tracker struct {
	path     string
	ingested map[string]struct{}
	logger   *slog.Logger
}

// NewTracker loads the tracker file at path, creating an empty tracker if
// the file does not exist yet.
func NewTracker(path string) (*Tracker, error) {
	if path == "" {
		return nil, fmt.Errorf("tracker path required")
	}

	t := &Tracker{
		path:     path,
		ingested: make(map[string]struct{}),
		logger:   slog.Default().With("component", "tracker"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading tracker file: %w", err)
	}

	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decoding tracker file %s: %w", path, err)
	}
	for _, f := range files {
		t.ingested[f] = struct{}{}
	}

	return t, nil
}

// Has reports whether a source file has already been fully ingested.
func (t *Tracker) Has(fileID string) bool {
	_, ok := t.ingested[fileID]
	return ok
}

// Mark records a source file as fully ingested and persists the whole set.
// Callers must only invoke Mark after every chunk of the file has been
// written to the vector store.
func (t *Tracker) Mark(fileID string) error {
	t.ingested[fileID] = struct{}{}
	return t.save()
}

// Ingested returns a sorted snapshot of all tracked file identifiers.
func (t *Tracker) Ingested() []string {
	files := make([]string, 0, len(t.ingested))
	for f := range t.ingested {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// save rewrites the tracker file atomically.
func (t *Tracker) save() error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating tracker directory: %w", err)
	}

	data, err := json.Marshal(t.Ingested())
	if err != nil {
		return fmt.Errorf("encoding tracker: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tracker-*")
	if err != nil {
		return fmt.Errorf("creating temp tracker file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing tracker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing tracker: %w", err)
	}

	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing tracker file: %w", err)
	}

	t.logger.Debug("tracker saved", "path", t.path, "files", len(t.ingested))
	return nil
}
