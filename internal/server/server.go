package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/tool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"productivity_agent/internal/core"
	"productivity_agent/internal/metrics"
	"productivity_agent/internal/storage"
	"productivity_agent/pkg"
	"productivity_agent/src/model"
)

const maxBodyBytes = 1 << 20

// Assistant is the agent surface served over HTTP
type Assistant interface {
	ID() string
	ProcessUserInput(ctx context.Context, input string) string
	Remember(entryType, content string, metadata map[string]any) (string, error)
	RecentContext(limit int) string
	MemorySummary() pkg.MemorySummary
	Status() pkg.AgentStatus
	ExportSession() pkg.SessionExport
}

// ToolInfo describes a tool in the /api/tools listing
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is returned by POST /api/query
type QueryResponse struct {
	Status   string `json:"status"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

// RememberRequest is the body of POST /api/memory
type RememberRequest struct {
	EntryType string         `json:"entry_type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ArchiveResponse is returned by POST /api/session/archive
type ArchiveResponse struct {
	Status       string `json:"status"`
	SessionID    string `json:"session_id"`
	Interactions int    `json:"interactions"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP front of the agent
type Server struct {
	cfg        model.ServerConfig
	agent      Assistant
	tools      map[string]tool.InvokableTool
	toolInfos  []ToolInfo
	archiver   storage.Archiver
	tracker    *metrics.Tracker
	gatherer   prometheus.Gatherer
	httpServer *http.Server
	log        zerolog.Logger
}

// New creates the server. archiver, tracker and gatherer may be nil.
func New(ctx context.Context, cfg model.ServerConfig, agent Assistant, tools []tool.InvokableTool, archiver storage.Archiver, tracker *metrics.Tracker, gatherer prometheus.Gatherer, log zerolog.Logger) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		agent:     agent,
		tools:     make(map[string]tool.InvokableTool, len(tools)),
		toolInfos: make([]ToolInfo, 0, len(tools)),
		archiver:  archiver,
		tracker:   tracker,
		gatherer:  gatherer,
		log:       log,
	}

	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read tool info: %w", err)
		}
		s.tools[info.Name] = t
		s.toolInfos = append(s.toolInfos, ToolInfo{Name: info.Name, Description: info.Desc})
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /api/query", s.queryHandler)
	mux.HandleFunc("GET /api/status", s.statusHandler)
	mux.HandleFunc("GET /api/memory", s.memoryHandler)
	mux.HandleFunc("POST /api/memory", s.rememberHandler)
	mux.HandleFunc("GET /api/memory/context", s.contextHandler)
	mux.HandleFunc("GET /api/session", s.sessionHandler)
	mux.HandleFunc("POST /api/session/archive", s.archiveHandler)
	mux.HandleFunc("GET /api/tools", s.listToolsHandler)
	mux.HandleFunc("POST /api/tools/{name}", s.runToolHandler)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return s.observe(s.cors(s.recoverPanics(mux)))
}

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  core.StatusOperational,
	})
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query required")
		return
	}

	response := s.agent.ProcessUserInput(r.Context(), req.Query)

	writeJSON(w, http.StatusOK, QueryResponse{
		Status:   "success",
		Query:    req.Query,
		Response: response,
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Status())
}

func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]pkg.MemorySummary{
		"memory": s.agent.MemorySummary(),
	})
}

func (s *Server) rememberHandler(w http.ResponseWriter, r *http.Request) {
	var req RememberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id, err := s.agent.Remember(req.EntryType, req.Content, req.Metadata)
	if err != nil {
		if errors.Is(err, core.ErrInvalidEntry) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) contextHandler(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultContextLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"context": s.agent.RecentContext(limit),
	})
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.ExportSession())
}

func (s *Server) archiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "Session archive not configured")
		return
	}

	export := s.agent.ExportSession()
	if err := s.archiver.Archive(r.Context(), export.SessionID, export); err != nil {
		s.log.Error().Err(err).Str("session_id", export.SessionID).Msg("Failed to archive session")
		writeError(w, http.StatusInternalServerError, "Failed to archive session")
		return
	}

	writeJSON(w, http.StatusOK, ArchiveResponse{
		Status:       "archived",
		SessionID:    export.SessionID,
		Interactions: len(export.Interactions),
	})
}

func (s *Server) listToolsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]ToolInfo{"tools": s.toolInfos})
}

func (s *Server) runToolHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	t, ok := s.tools[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown tool: %s", name))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	args := strings.TrimSpace(string(body))
	if args == "" {
		args = "{}"
	}
	if !sonic.Valid([]byte(args)) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, err := t.InvokableRun(r.Context(), args)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result any
	if err := sonic.UnmarshalString(out, &result); err != nil {
		result = out
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tool":   name,
		"result": result,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
