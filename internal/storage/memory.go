package storage

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"productivity_agent/pkg"
)

const (
	// DefaultCapacity is the number of entries kept when no capacity is configured
	DefaultCapacity = 100
	// DefaultContextLimit is the window used by RetrieveContext for non-positive limits
	DefaultContextLimit = 5
	// NoContext is returned by RetrieveContext when the store is empty
	NoContext = "No context"
)

// MemoryStore is a bounded, insertion-ordered log of memory entries.
// When an append exceeds capacity the oldest entry is evicted.
// It is not safe for concurrent use.
type MemoryStore struct {
	entries  []pkg.MemoryEntry
	capacity int
	now      func() time.Time
}

// NewMemoryStore creates a store holding at most capacity entries
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		entries:  make([]pkg.MemoryEntry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Store appends a new entry and returns its id
func (m *MemoryStore) Store(entryType, content string, metadata map[string]any) string {
	entry := pkg.MemoryEntry{
		ID:        uuid.NewString(),
		Timestamp: m.now(),
		EntryType: entryType,
		Content:   content,
		Metadata:  make(map[string]any, len(metadata)),
	}
	maps.Copy(entry.Metadata, metadata)

	m.entries = append(m.entries, entry)
	if len(m.entries) > m.capacity {
		m.entries[0] = pkg.MemoryEntry{}
		m.entries = m.entries[1:]
	}

	return entry.ID
}

// RetrieveContext renders the most recent limit entries, oldest first.
// The query is accepted for future ranking strategies and is currently ignored.
func (m *MemoryStore) RetrieveContext(query string, limit int) string {
	if len(m.entries) == 0 {
		return NoContext
	}
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	var b strings.Builder
	b.WriteString("Recent Context:\n")
	for _, entry := range trimTail(m.entries, limit) {
		fmt.Fprintf(&b, "- [%s] %s\n", entry.EntryType, entry.Content)
	}
	return b.String()
}

// Summary reports the entry count and the entry types currently present
func (m *MemoryStore) Summary() pkg.MemorySummary {
	seen := make(map[string]struct{})
	for _, entry := range m.entries {
		seen[entry.EntryType] = struct{}{}
	}

	types := slices.Sorted(maps.Keys(seen))
	if types == nil {
		types = []string{}
	}

	return pkg.MemorySummary{
		TotalEntries:  len(m.entries),
		DistinctTypes: types,
	}
}

// Entries returns a copy of the stored entries in insertion order
func (m *MemoryStore) Entries() []pkg.MemoryEntry {
	return slices.Clone(m.entries)
}

// Len returns the current number of entries
func (m *MemoryStore) Len() int {
	return len(m.entries)
}

// Capacity returns the maximum number of entries kept
func (m *MemoryStore) Capacity() int {
	return m.capacity
}

func trimTail[T any](items []T, max int) []T {
	if len(items) <= max {
		return items
	}
	return items[len(items)-max:]
}
