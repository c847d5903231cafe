// Package store persists the complete session map as a single JSON document.
//
// Every Save rewrites the whole document and nothing is locked: two requests
// that interleave Load and Save on the same backend lose one update.
package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

// Sessions maps session ids to sessions. It is the unit of load and save.
type Sessions map[string]chat.Session

// Store reads and writes the session document.
type Store interface {
	// Load returns the persisted sessions. A missing or unparseable document
	// yields an empty map, not an error.
	Load(ctx context.Context) (Sessions, error)

	// Save overwrites the document with sessions.
	Save(ctx context.Context, sessions Sessions) error

	// Close releases backend resources.
	Close() error
}

// New creates the backend selected by cfg.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreBackendFile, "":
		return NewFileStore(cfg.DataFile), nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisKey), nil
	default:
		return nil, ErrInvalidBackend
	}
}
