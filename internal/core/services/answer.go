package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Generation defaults.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// DefaultSystemPrompt is the assistant role used when no prompt override
// file exists.
const DefaultSystemPrompt = "You are an assistant for heavy equipment fleet operations. " +
	"You answer questions about machines, undercarriage components, inspections " +
	"and technical documentation."

const groundedInstruction = "Answer using only the context above. Cite the " +
	"bracketed source tags for every claim. If the context does not contain " +
	"the answer, say so clearly."

const ungroundedInstruction = "No relevant context was found for this question. " +
	"Say so, and if you answer from general knowledge, state that explicitly."

// AnswerConfig tunes answer generation.
type AnswerConfig struct {
	MaxTokens   int
	Temperature float64

	// SystemPrompt overrides the built-in assistant role. The retrieval
	// context and grounding instructions are always appended.
	SystemPrompt string
}

func (c AnswerConfig) withDefaults() AnswerConfig {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	return c
}

// AnswerService produces grounded answers: it fuses retrieved context
// into the system prompt, runs the model and records the exchange.
type AnswerService struct {
	fusion *ContextFusionEngine
	llm    driven.LLMService
	convo  *ConversationService
	cfg    AnswerConfig
}

// NewAnswerService creates a new answer service. The conversation
// service is optional; without it every question stands alone.
func NewAnswerService(
	fusion *ContextFusionEngine,
	llm driven.LLMService,
	convo *ConversationService,
	cfg AnswerConfig,
) *AnswerService {
	return &AnswerService{
		fusion: fusion,
		llm:    llm,
		convo:  convo,
		cfg:    cfg.withDefaults(),
	}
}

// Answer builds context for the query, asks the model and returns the
// reply with the evidence behind it.
func (s *AnswerService) Answer(ctx context.Context, query, sessionID string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	block, err := s.fusion.BuildContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	history, err := s.history(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    "system",
		Content: s.systemPrompt(block),
	})
	for _, msg := range history {
		messages = append(messages, driven.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, driven.ChatMessage{Role: "user", Content: query})

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if err := s.record(ctx, sessionID, query, reply); err != nil {
		// The answer is already generated; losing history is worth a
		// warning, not a failure.
		logger.Warn("Failed to record conversation: %v", err)
	}

	sources := make([]domain.SourceRef, len(block.Items))
	for i, item := range block.Items {
		sources[i] = item.Source
	}

	return &domain.Answer{
		Text:     reply,
		Sources:  sources,
		Grounded: block.Grounded,
	}, nil
}

// systemPrompt lays out the base role, the retrieved evidence and the
// grounding instruction.
func (s *AnswerService) systemPrompt(block *domain.ContextBlock) string {
	var sb strings.Builder
	sb.WriteString(s.cfg.SystemPrompt)

	if block.Grounded {
		sb.WriteString("\n\n=== RETRIEVED CONTEXT ===\n")
		sb.WriteString(block.Rendered)
		sb.WriteString("\n")
		sb.WriteString(groundedInstruction)
	} else {
		sb.WriteString("\n\n")
		sb.WriteString(ungroundedInstruction)
	}

	return sb.String()
}

func (s *AnswerService) history(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if s.convo == nil || sessionID == "" {
		return nil, nil
	}
	return s.convo.History(ctx, sessionID)
}

func (s *AnswerService) record(ctx context.Context, sessionID, query, reply string) error {
	if s.convo == nil || sessionID == "" {
		return nil
	}
	if _, err := s.convo.Append(ctx, sessionID, domain.RoleUser, query); err != nil {
		return err
	}
	if _, err := s.convo.Append(ctx, sessionID, domain.RoleAssistant, reply); err != nil {
		return err
	}
	return nil
}
