// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Compile-time interface check.
var _ Store = (*JSONFileStore)(nil)

// JSONFileStore keeps the whole history in memory as a map from session id
// to message list and rewrites one JSON document on every mutation. A
// mutex serializes appends and the document is written to a temp file and
// atomically renamed into place, so concurrent requests to the same
// session cannot interleave read-modify-write cycles or tear the file.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
	data map[string][]Message
}

// NewJSONFileStore loads the document at path, or starts empty when the
// file does not exist yet.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if path == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "history: jsonfile path must not be empty")
	}

	s := &JSONFileStore{
		path: path,
		data: make(map[string][]Message),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "reading history file %s", path)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "decoding history file %s", path)
	}

	return s, nil
}

func (s *JSONFileStore) Append(_ context.Context, sessionID string, msg Message) error {
	if sessionID == "" {
		return saucierr.New(saucierr.CodeHistoryAppendInvalid, "history: session id must not be empty")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sessionID] = append(s.data[sessionID], msg)

	if err := s.persistLocked(); err != nil {
		// Roll back the in-memory append so memory and disk stay in sync.
		msgs := s.data[sessionID]
		s.data[sessionID] = msgs[:len(msgs)-1]
		return err
	}
	return nil
}

func (s *JSONFileStore) Get(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.data[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *JSONFileStore) Close() error { return nil }

// persistLocked writes the whole document via temp file + rename. The
// caller MUST hold s.mu.
func (s *JSONFileStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "encoding history")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "creating history directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "creating temp history file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "writing temp history file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "closing temp history file")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return saucierr.Wrapf(err, saucierr.CodeHistoryPersistFailure, "replacing history file %s", s.path)
	}
	return nil
}
