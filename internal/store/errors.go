package store

import "github.com/pkg/errors"

var (
	ErrInvalidBackend = errors.New("invalid store backend")
	ErrCorrupt        = errors.New("session document is corrupt")
)
