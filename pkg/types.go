package pkg

import (
	"time"
)

// Core types shared by the memory store, the agent and the HTTP API

// Entry type tags used by the agent. Any other string is accepted as a tag.
const (
	EntryTypeTask        = "task"
	EntryTypeInteraction = "interaction"
	EntryTypePreference  = "preference"
	EntryTypeDecision    = "decision"
)

// MemoryEntry is a single immutable record in the memory store
type MemoryEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	EntryType string         `json:"entry_type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
}

// MemorySummary describes the current contents of the memory store
type MemorySummary struct {
	TotalEntries  int      `json:"total_entries"`
	DistinctTypes []string `json:"types"`
}

// AgentMetrics holds request outcome counters.
// SuccessfulTasks + FailedTasks never exceeds TotalRequests.
type AgentMetrics struct {
	TotalRequests   int `json:"total_requests"`
	SuccessfulTasks int `json:"successful_tasks"`
	FailedTasks     int `json:"failed_tasks"`
}

// SessionRecord is one processed interaction in the session history
type SessionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	UserInput string    `json:"user_input"`
	Response  string    `json:"response"` // truncated snippet
}

// AgentStatus is the status projection served by /api/status
type AgentStatus struct {
	Metrics        AgentMetrics  `json:"metrics"`
	Memory         MemorySummary `json:"memory"`
	Status         string        `json:"status"`
	ModelAvailable bool          `json:"model_available"`
}

// SessionExport is the session projection served by /api/session and persisted by archivers
type SessionExport struct {
	SessionID    string          `json:"session_id"`
	Interactions []SessionRecord `json:"interactions"`
	Metrics      AgentMetrics    `json:"metrics"`
}
