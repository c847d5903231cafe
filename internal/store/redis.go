package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps the whole session document under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store that reads and writes key on client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (Sessions, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return Sessions{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get session document %s", s.key)
	}

	sessions, err := decode(data)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable session document")
		return Sessions{}, nil
	}
	return sessions, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, sessions Sessions) error {
	data, err := encode(sessions)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set session document %s", s.key)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
