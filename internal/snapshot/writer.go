// Package snapshot persists status records as individual timestamped JSON
// files.
//
// Filenames derive from the record timestamp with ':' and '.' replaced by
// '-'; other characters pass through unchanged. Concurrent passes writing
// the same directory with an identical timestamp overwrite each other --
// there is no lock or uniqueness suffix.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/loykin/svcmon/internal/metrics"
	"github.com/loykin/svcmon/internal/status"
)

// DefaultDir is the snapshot directory used when none is configured.
const DefaultDir = "data"

var safeTimestamp = strings.NewReplacer(":", "-", ".", "-")

// Filename derives the snapshot filename for a service and timestamp:
// <name>-status-<safe-timestamp>.json. The transform keeps names sortable
// by time within one service.
func Filename(name, timestamp string) (string, error) {
	if name == "" {
		return "", errors.New("service name must be a non-empty string")
	}
	return fmt.Sprintf("%s-status-%s.json", name, safeTimestamp.Replace(timestamp)), nil
}

// Writer writes records into a directory, creating it on demand.
type Writer struct {
	dir string
}

// New returns a Writer targeting dir, or DefaultDir when dir is empty.
func New(dir string) Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return Writer{dir: dir}
}

// Dir returns the target directory.
func (w Writer) Dir() string { return w.dir }

// Write persists one record and returns the written path. The record is
// validated first; directory creation is idempotent. The JSON body is
// 2-space indented UTF-8 without HTML escaping.
func (w Writer) Write(rec status.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("invalid status record: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		metrics.CountSnapshotWrite(false)
		return "", fmt.Errorf("cannot create snapshot directory %s: %w", w.dir, err)
	}
	name, err := Filename(rec.ServiceName, rec.Timestamp)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, name)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		metrics.CountSnapshotWrite(false)
		return "", fmt.Errorf("cannot encode status record: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		metrics.CountSnapshotWrite(false)
		return "", fmt.Errorf("cannot write status file: %w", err)
	}
	metrics.CountSnapshotWrite(true)
	slog.Info("wrote status snapshot", "service", rec.ServiceName, "path", path)
	return path, nil
}

// WriteResult is the outcome of one record in a batch write: either a path
// or the captured failure.
type WriteResult struct {
	Record status.Record
	Path   string
	Err    error
}

// WriteAll writes every record best-effort. A failure is captured in that
// record's result and never aborts the rest of the batch; partial success is
// the normal case, not an error.
func (w Writer) WriteAll(records []status.Record) []WriteResult {
	results := make([]WriteResult, 0, len(records))
	failures := 0
	for _, rec := range records {
		path, err := w.Write(rec)
		if err != nil {
			slog.Error("failed to write status file", "service", rec.ServiceName, "error", err)
			failures++
		}
		results = append(results, WriteResult{Record: rec, Path: path, Err: err})
	}
	if failures > 0 {
		slog.Warn("status file batch completed with errors", "failed", failures, "total", len(records))
	}
	return results
}

// Paths extracts the successfully written paths from batch results.
func Paths(results []WriteResult) []string {
	paths := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}
