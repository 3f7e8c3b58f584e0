// Package store persists the published signup tally as a human-readable
// JSON artifact. The file is the interface to the downstream display, so
// its shape is part of the contract: one object, labels ordered by count,
// two-space indent, UTF-8 written literally.
package store

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"

	"github.com/pascomapp/tally-sync/internal/tally"
)

// Store reads and publishes the tally artifact at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store over the tally file at path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the location of the tally artifact.
func (s *Store) Path() string {
	return s.path
}

// Load reads the previously published tally. Loading never fails: a
// missing, unreadable or corrupt file yields an empty tally, and invalid
// entries (blank label, negative count) are dropped individually so one
// bad manual edit does not discard the rest.
func (s *Store) Load() tally.CountMap {
	counts := make(tally.CountMap)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no existing tally file", "path", s.path)
		} else {
			s.logger.Warn("could not read tally file, starting empty",
				"path", s.path,
				"error", err,
			)
		}
		return counts
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("could not parse tally file, starting empty",
			"path", s.path,
			"error", err,
		)
		return counts
	}

	for label, count := range raw {
		if label == "" || count < 0 {
			s.logger.Warn("dropping invalid tally entry", "label", label, "count", count)
			continue
		}
		counts[label] = count
	}

	return counts
}

// Save replaces the tally artifact with m. The file is written next to
// the target and renamed over it, so readers never observe a partial
// tally. Labels are emitted by count descending, ties alphabetical.
func (s *Store) Save(m tally.CountMap) error {
	// Write to temp file, rename on success (atomic)
	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp tally file: %w", err)
	}
	defer os.Remove(tmpPath) // Clean up on failure
	defer f.Close()

	if err := writeTally(f, m); err != nil {
		return fmt.Errorf("encode tally: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close tally file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace tally file: %w", err)
	}

	s.logger.Debug("tally saved", "path", s.path, "labels", len(m))
	return nil
}

// writeTally emits the tally as an indented JSON object in display
// order. A raw map marshal would alphabetize the keys, so the object is
// written token by token.
func writeTally(f *os.File, m tally.CountMap) error {
	enc := jsontext.NewEncoder(f, jsontext.WithIndent("  "))

	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, label := range m.Labels() {
		if err := enc.WriteToken(jsontext.String(label)); err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.Int(int64(m[label]))); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}
