// Package tui provides an interactive chat interface for FleetMind.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the chat TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions with provenance.
	Answer driving.AnswerService

	// Document reports knowledge base stats for the header. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	// Document is optional.
	return nil
}
