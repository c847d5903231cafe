package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

func sampleSessions() Sessions {
	at := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	return Sessions{
		"a": {
			ID:        "a",
			Name:      "Metrics",
			CreatedAt: chat.FormatTimestamp(at),
			Messages: []chat.Message{
				chat.NewMessage(chat.RoleUser, "cpu usage?", at),
				chat.NewMessage(chat.RoleBot, "42%", at.Add(time.Second)),
			},
		},
		"b": {
			ID:        "b",
			Name:      "Empty",
			CreatedAt: chat.FormatTimestamp(at.Add(time.Minute)),
			Messages:  []chat.Message{},
		},
	}
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "chat_history.json"))

	sessions, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NotNil(t, sessions)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "chat_history.json"))
	want := sampleSessions()

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": {"id": `), 0o644))

	sessions, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStoreMalformedEntryIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": null, "b": {"id": "b", "created_at": "2024-01-01T00:00:00"}}`), 0o644))

	sessions, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStoreWritesIndentedObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(context.Background(), sampleSessions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"a\": {")
	assert.Contains(t, string(data), `"created_at"`)
}

func TestFileStoreSaveFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewFileStore(filepath.Join(blocker, "chat_history.json"))
	assert.Error(t, s.Save(context.Background(), sampleSessions()))
}

func TestFileStoreLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "chat_history.json"))

	first, err := s.Load(ctx)
	require.NoError(t, err)
	second, err := s.Load(ctx)
	require.NoError(t, err)

	first["x"] = chat.Session{ID: "x", Name: "first", Messages: []chat.Message{}}
	second["y"] = chat.Session{ID: "y", Name: "second", Messages: []chat.Message{}}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got, "x")
	assert.Contains(t, got, "y")
}
