package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"productivity_agent/internal/metrics"
	"productivity_agent/internal/storage"
	"productivity_agent/pkg"
	"productivity_agent/src/model"
)

const (
	defaultContextWindow = 3
	defaultSnippetLength = 100
)

// Agent processes user requests against its memory, session history and metrics.
// All state is guarded by one mutex which is released for the duration of the model call.
type Agent struct {
	mu sync.Mutex

	id        string
	cfg       model.AgentConfig
	memory    Memory
	session   *storage.SessionLog
	tracker   *metrics.Tracker
	responder Responder
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures an Agent
type Option func(*Agent)

// WithMemory replaces the default memory store
func WithMemory(m Memory) Option {
	return func(a *Agent) {
		a.memory = m
	}
}

// WithTracker sets the metrics tracker
func WithTracker(t *metrics.Tracker) Option {
	return func(a *Agent) {
		a.tracker = t
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(a *Agent) {
		a.log = log
	}
}

// WithClock sets the clock used for session records
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// NewAgent creates an agent. A nil responder answers without a model.
func NewAgent(cfg model.AgentConfig, responder Responder, opts ...Option) *Agent {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = defaultContextWindow
	}
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = defaultSnippetLength
	}
	if responder == nil {
		responder = NullResponder{}
	}

	a := &Agent{
		id:        uuid.NewString(),
		cfg:       cfg,
		responder: responder,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.memory == nil {
		a.memory = storage.NewMemoryStore(cfg.MaxMemorySize)
	}
	if a.tracker == nil {
		a.tracker = metrics.NewTracker(nil)
	}
	a.session = storage.NewSessionLog(cfg.SessionHistoryLimit)
	a.log = a.log.With().Str("session_id", a.id).Logger()

	return a
}

func (a *Agent) withLock(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// ID returns the session id of the agent
func (a *Agent) ID() string {
	return a.id
}

// ProcessUserInput runs one request through the pipeline and always returns a reply.
// Model failures become "Error calling AI: ..." replies and still count as successful tasks.
// Internal faults are recovered, counted as failed tasks and reported as "Error: ...".
func (a *Agent) ProcessUserInput(ctx context.Context, input string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			a.withLock(a.tracker.RecordFailure)
			a.log.Error().Interface("panic", r).Msg("Request processing failed")
			response = fmt.Sprintf("Error: %v", r)
		}
	}()

	var contextBlock string
	a.withLock(func() {
		a.tracker.RecordRequest()
		contextBlock = a.memory.RetrieveContext(input, a.cfg.ContextWindow)
	})

	response = a.respond(ctx, contextBlock, input)

	a.withLock(func() {
		a.memory.Store(pkg.EntryTypeInteraction, input, nil)
		a.tracker.SetMemoryEntries(a.memory.Len())
		a.session.Append(pkg.SessionRecord{
			Timestamp: a.now(),
			UserInput: input,
			Response:  storage.Truncate(response, a.cfg.SnippetLength),
		})
		a.tracker.RecordSuccess()
	})

	a.log.Debug().
		Int("input_length", len(input)).
		Int("response_length", len(response)).
		Msg("Request processed")

	return response
}

// respond calls the responder without holding the lock
func (a *Agent) respond(ctx context.Context, contextBlock, input string) string {
	if !a.responder.Available() {
		a.tracker.ObserveModelCall(metrics.ModelCallSkipped, 0)
		reply, _ := a.responder.Respond(ctx, contextBlock, input)
		return reply
	}

	start := time.Now()
	reply, err := a.callResponder(ctx, contextBlock, input)
	elapsed := time.Since(start)

	if err != nil {
		a.tracker.ObserveModelCall(metrics.ModelCallError, elapsed)
		a.log.Warn().Err(err).Dur("duration", elapsed).Msg("AI model call failed")
		return "Error calling AI: " + err.Error()
	}

	a.tracker.ObserveModelCall(metrics.ModelCallOK, elapsed)
	return reply
}

func (a *Agent) callResponder(ctx context.Context, contextBlock, input string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.responder.Respond(ctx, contextBlock, input)
}

// Remember stores a typed entry supplied by the caller and returns its id
func (a *Agent) Remember(entryType, content string, metadata map[string]any) (string, error) {
	entryType = strings.TrimSpace(entryType)
	if entryType == "" || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: entry type and content are required", ErrInvalidEntry)
	}

	var id string
	a.withLock(func() {
		id = a.memory.Store(entryType, content, metadata)
		a.tracker.SetMemoryEntries(a.memory.Len())
	})

	a.log.Debug().Str("entry_type", entryType).Str("entry_id", id).Msg("Memory entry stored")
	return id, nil
}

// RecentContext renders the most recent limit memory entries
func (a *Agent) RecentContext(limit int) string {
	var out string
	a.withLock(func() {
		out = a.memory.RetrieveContext("", limit)
	})
	return out
}

// MemorySummary reports the memory store contents
func (a *Agent) MemorySummary() pkg.MemorySummary {
	var out pkg.MemorySummary
	a.withLock(func() {
		out = a.memory.Summary()
	})
	return out
}

// Status reports metrics, memory summary and model availability
func (a *Agent) Status() pkg.AgentStatus {
	var out pkg.AgentStatus
	a.withLock(func() {
		out = pkg.AgentStatus{
			Metrics:        a.tracker.Snapshot(),
			Memory:         a.memory.Summary(),
			Status:         StatusOperational,
			ModelAvailable: a.responder.Available(),
		}
	})
	return out
}

// ExportSession returns the session history and metrics
func (a *Agent) ExportSession() pkg.SessionExport {
	var out pkg.SessionExport
	a.withLock(func() {
		out = pkg.SessionExport{
			SessionID:    a.id,
			Interactions: a.session.Records(),
			Metrics:      a.tracker.Snapshot(),
		}
	})
	return out
}
