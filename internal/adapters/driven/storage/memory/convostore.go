package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of
// driven.ConversationStore.
type ConversationStore struct {
	mu       sync.Mutex
	sessions map[string][]domain.Message
	nextPos  map[string]int
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string][]domain.Message),
		nextPos:  make(map[string]int),
	}
}

// AppendMessage stores a message at the next position in the session.
func (s *ConversationStore) AppendMessage(
	_ context.Context, sessionID string, role domain.MessageRole, content string,
) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := domain.Message{
		SessionID: sessionID,
		Position:  s.nextPos[sessionID],
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	s.nextPos[sessionID]++
	return &msg, nil
}

// Messages returns the session's messages oldest first.
func (s *ConversationStore) Messages(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]domain.Message, len(s.sessions[sessionID]))
	copy(msgs, s.sessions[sessionID])
	return msgs, nil
}

// Trim drops all but the newest keep messages from the session.
func (s *ConversationStore) Trim(_ context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.sessions[sessionID]
	if keep < 0 || len(msgs) <= keep {
		return nil
	}
	trimmed := make([]domain.Message, keep)
	copy(trimmed, msgs[len(msgs)-keep:])
	s.sessions[sessionID] = trimmed
	return nil
}
