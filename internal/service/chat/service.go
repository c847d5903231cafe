package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agent-chat/backend/internal/metrics"
	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
	"github.com/zhouzirui/agent-chat/backend/internal/service/agent"
	"github.com/zhouzirui/agent-chat/backend/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// Turn is the outcome of one chat request.
type Turn struct {
	Response string         `json:"response"`
	History  []chat.Message `json:"history"`
}

// Service orchestrates sessions and chat turns on top of a whole-document
// store. Each operation loads the full store and every mutation saves it
// back; concurrent requests race and the last save wins.
type Service struct {
	store   store.Store
	gateway agent.Gateway
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records session and turn counters in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the orchestrator to its store and agent gateway.
func NewService(st store.Store, gateway agent.Gateway, opts ...Option) *Service {
	s := &Service{
		store:   st,
		gateway: gateway,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSessions returns every session, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]chat.Session, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type entry struct {
		session chat.Session
		created time.Time
	}
	entries := make([]entry, 0, len(sessions))
	for _, session := range sessions {
		// Unparseable stamps stay at the zero time and sort last.
		created, _ := chat.ParseTimestamp(session.CreatedAt)
		entries = append(entries, entry{session: session.Clone(), created: created})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.created.Equal(b.created) {
			return a.created.After(b.created)
		}
		if a.session.CreatedAt != b.session.CreatedAt {
			return a.session.CreatedAt > b.session.CreatedAt
		}
		return a.session.ID < b.session.ID
	})

	list := make([]chat.Session, len(entries))
	for i, e := range entries {
		list[i] = e.session
	}
	return list, nil
}

// CreateSession provisions an empty session.
func (s *Service) CreateSession(ctx context.Context, name string) (chat.Session, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return chat.Session{}, err
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: chat.FormatTimestamp(s.now()),
		Messages:  []chat.Message{},
	}
	sessions[session.ID] = session

	if err := s.save(ctx, sessions); err != nil {
		return chat.Session{}, err
	}

	s.metrics.RecordSessionCreated()
	log.Info().Str("session_id", session.ID).Str("name", name).Msg("Session created")
	return session.Clone(), nil
}

// RenameSession changes only the session name.
func (s *Service) RenameSession(ctx context.Context, sessionID, name string) (chat.Session, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return chat.Session{}, err
	}

	session, ok := sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	session.Name = name
	sessions[sessionID] = session

	if err := s.save(ctx, sessions); err != nil {
		return chat.Session{}, err
	}

	log.Info().Str("session_id", sessionID).Str("name", name).Msg("Session renamed")
	return session.Clone(), nil
}

// DeleteSession removes a session and its transcript.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	sessions, err := s.load(ctx)
	if err != nil {
		return err
	}

	if _, ok := sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(sessions, sessionID)

	if err := s.save(ctx, sessions); err != nil {
		return err
	}

	s.metrics.RecordSessionDeleted()
	log.Info().Str("session_id", sessionID).Msg("Session deleted")
	return nil
}

// GetHistory returns a copy of the session transcript.
func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	session, ok := sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone().Messages, nil
}

// Chat appends the user query, asks the gateway and appends its answer.
// The store is saved once, after both messages are in place.
func (s *Service) Chat(ctx context.Context, sessionID, query string) (Turn, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return Turn{}, err
	}

	session, ok := sessions[sessionID]
	if !ok {
		return Turn{}, ErrSessionNotFound
	}
	session = session.Clone()

	previous := session.Messages
	session.Messages = append(session.Messages, chat.NewMessage(chat.RoleUser, query, s.now()))

	result := s.gateway.Query(ctx, agent.Request{
		SessionID: sessionID,
		Query:     query,
		History:   previous,
	})
	response := result.Text()

	session.Messages = append(session.Messages, chat.NewMessage(chat.RoleBot, response, s.now()))
	sessions[sessionID] = session

	if err := s.save(ctx, sessions); err != nil {
		return Turn{}, err
	}

	s.metrics.RecordChatTurn()
	log.Debug().
		Str("session_id", sessionID).
		Str("outcome", string(result.Outcome)).
		Int("messages", len(session.Messages)).
		Msg("Chat turn stored")

	return Turn{Response: response, History: session.Clone().Messages}, nil
}

func (s *Service) load(ctx context.Context) (store.Sessions, error) {
	sessions, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return sessions, nil
}

// save ignores request cancellation; a turn is stored even if the client hangs up.
func (s *Service) save(ctx context.Context, sessions store.Sessions) error {
	if err := s.store.Save(context.WithoutCancel(ctx), sessions); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
