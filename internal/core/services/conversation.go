package services

import (
	"context"
	"fmt"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
)

// DefaultHistoryLimit is the number of messages kept per session.
const DefaultHistoryLimit = 20

// ConversationService maintains bounded per-session chat history.
// Appending past the limit evicts the oldest messages.
type ConversationService struct {
	store driven.ConversationStore
	limit int
}

// NewConversationService creates a conversation service keeping at most
// limit messages per session.
func NewConversationService(store driven.ConversationStore, limit int) *ConversationService {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ConversationService{store: store, limit: limit}
}

// Append records a message and drops history beyond the session limit.
func (s *ConversationService) Append(
	ctx context.Context, sessionID string, role domain.MessageRole, content string,
) (*domain.Message, error) {
	if sessionID == "" || content == "" {
		return nil, fmt.Errorf("session and content required: %w", domain.ErrInvalidInput)
	}

	msg, err := s.store.AppendMessage(ctx, sessionID, role, content)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if err := s.store.Trim(ctx, sessionID, s.limit); err != nil {
		return nil, fmt.Errorf("trim history: %w", err)
	}

	return msg, nil
}

// History returns the session's messages oldest first.
func (s *ConversationService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if sessionID == "" {
		return nil, nil
	}
	msgs, err := s.store.Messages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}
