package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStore(client, "agentchat:sessions")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreLoadMissingKey(t *testing.T) {
	s, _ := newTestRedisStore(t)

	sessions, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	want := sampleSessions()

	require.NoError(t, s.Save(ctx, want))
	assert.True(t, mr.Exists("agentchat:sessions"))
	assert.Zero(t, mr.TTL("agentchat:sessions"))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStoreCorruptValueIsEmpty(t *testing.T) {
	s, mr := newTestRedisStore(t)

	for _, value := range []string{`{"a": {"id": `, `{"a": null}`} {
		require.NoError(t, mr.Set("agentchat:sessions", value))

		sessions, err := s.Load(context.Background())
		require.NoError(t, err, "value %q", value)
		assert.Empty(t, sessions, "value %q", value)
	}
}

func TestRedisStoreSaveFailurePropagates(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Close()

	err := s.Save(context.Background(), sampleSessions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set session document agentchat:sessions")

	_, err = s.Load(context.Background())
	assert.Error(t, err)
}
