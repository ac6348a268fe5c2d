package core

import (
	"context"
	"errors"

	"productivity_agent/pkg"
)

// ErrInvalidEntry is returned by Remember when the entry type or content is empty
var ErrInvalidEntry = errors.New("invalid memory entry")

// Responder produces the assistant reply for a request
type Responder interface {
	// Respond returns the model reply for userInput given the rendered memory context.
	// A returned error is a model failure, not an internal fault.
	Respond(ctx context.Context, contextBlock, userInput string) (string, error)
	// Available reports whether a remote model is configured
	Available() bool
}

// Memory is the bounded entry log the agent reads context from and writes interactions to
type Memory interface {
	Store(entryType, content string, metadata map[string]any) string
	RetrieveContext(query string, limit int) string
	Summary() pkg.MemorySummary
	Len() int
}

// Agent status values
const (
	StatusOperational = "operational"
)
