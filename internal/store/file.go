package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileStore keeps the session document in a local JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (Sessions, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Sessions{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read session file %s", s.path)
	}

	sessions, err := decode(data)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Discarding unreadable session file")
		return Sessions{}, nil
	}
	return sessions, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, sessions Sessions) error {
	data, err := encode(sessions)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create session directory %s", dir)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write session file %s", s.path)
	}

	log.Debug().Str("path", s.path).Int("sessions", len(sessions)).Msg("Session file saved")
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}
