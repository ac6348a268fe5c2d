package storage

import (
	"slices"

	"productivity_agent/pkg"
)

// SessionLog is the append-only interaction history of one agent.
// A positive limit keeps only the most recent records; zero keeps everything.
// It is not safe for concurrent use.
type SessionLog struct {
	records []pkg.SessionRecord
	limit   int
}

// NewSessionLog creates a session log
func NewSessionLog(limit int) *SessionLog {
	if limit < 0 {
		limit = 0
	}
	return &SessionLog{
		records: []pkg.SessionRecord{},
		limit:   limit,
	}
}

// Append adds a record, evicting the oldest one when the log is bounded and full
func (s *SessionLog) Append(record pkg.SessionRecord) {
	s.records = append(s.records, record)
	if s.limit > 0 && len(s.records) > s.limit {
		s.records[0] = pkg.SessionRecord{}
		s.records = s.records[1:]
	}
}

// Records returns a copy of the history in insertion order
func (s *SessionLog) Records() []pkg.SessionRecord {
	out := slices.Clone(s.records)
	if out == nil {
		out = []pkg.SessionRecord{}
	}
	return out
}

// Len returns the number of records held
func (s *SessionLog) Len() int {
	return len(s.records)
}

// Truncate returns s cut to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
