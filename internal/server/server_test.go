package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productivity_agent/internal/core"
	"productivity_agent/internal/metrics"
	"productivity_agent/internal/storage"
	"productivity_agent/internal/tools"
	"productivity_agent/pkg"
	"productivity_agent/src/model"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	agent   *core.Agent
	reg     *prometheus.Registry
}

func newTestEnv(t *testing.T, archiver storage.Archiver) *testEnv {
	t.Helper()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	tracker := metrics.NewTracker(reg)
	agent := core.NewAgent(model.AgentConfig{MaxMemorySize: 100, ContextWindow: 3, SnippetLength: 100}, core.NullResponder{},
		core.WithTracker(tracker))

	toolset, err := tools.GetTools(tools.NewToolkit(zerolog.Nop()))
	require.NoError(t, err)

	cfg := model.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, AllowedOrigin: "*"}
	srv, err := New(ctx, cfg, agent, toolset, archiver, tracker, reg, zerolog.Nop())
	require.NoError(t, err)

	return &testEnv{server: srv, handler: srv.Handler(), agent: agent, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, map[string]string{"status": "healthy", "agent": "operational"}, body)
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/query", `{"query":"Plan my day"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body QueryResponse
	decode(t, w, &body)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Plan my day", body.Query)
	assert.Equal(t, "AI model not available. Received: Plan my day", body.Response)
	assert.Equal(t, 1, env.agent.Status().Metrics.TotalRequests)
}

func TestQuery_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []string{`{}`, `{"query":""}`, `{"query":"   "}`, `not json`, ``} {
		t.Run(body, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/query", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, "Query required", resp.Error)
		})
	}
	assert.Equal(t, 0, env.agent.Status().Metrics.TotalRequests)
}

func TestQuery_WrongMethod(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/query", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/query", `{"query":"one"}`)

	w := env.do(t, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, w.Code)
	var status pkg.AgentStatus
	decode(t, w, &status)
	assert.Equal(t, "operational", status.Status)
	assert.False(t, status.ModelAvailable)
	assert.Equal(t, pkg.AgentMetrics{TotalRequests: 1, SuccessfulTasks: 1}, status.Metrics)
	assert.Equal(t, 1, status.Memory.TotalEntries)
	assert.Equal(t, []string{"interaction"}, status.Memory.DistinctTypes)
}

func TestMemory(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/memory", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"memory":{"total_entries":0,"types":[]}}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/memory", `{"entry_type":"task","content":"Ship release","metadata":{"priority":"high"}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	decode(t, w, &created)
	assert.NotEmpty(t, created["id"])

	w = env.do(t, http.MethodGet, "/api/memory/context?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ctxBody map[string]string
	decode(t, w, &ctxBody)
	assert.Equal(t, "Recent Context:\n- [task] Ship release\n", ctxBody["context"])
}

func TestMemory_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/memory", `{"entry_type":"","content":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/memory", `{bad`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/memory/context?limit=abc", "").Code)
}

func TestSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/query", `{"query":"first"}`)
	env.do(t, http.MethodPost, "/api/query", `{"query":"second"}`)

	w := env.do(t, http.MethodGet, "/api/session", "")

	require.Equal(t, http.StatusOK, w.Code)
	var export pkg.SessionExport
	decode(t, w, &export)
	assert.Equal(t, env.agent.ID(), export.SessionID)
	require.Len(t, export.Interactions, 2)
	assert.Equal(t, "first", export.Interactions[0].UserInput)
	assert.Equal(t, 2, export.Metrics.TotalRequests)
}

func TestSessionArchive_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/session/archive", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionArchive(t *testing.T) {
	archiver := storage.NewJSONArchiver(t.TempDir())
	env := newTestEnv(t, archiver)
	env.do(t, http.MethodPost, "/api/query", `{"query":"remember this"}`)

	w := env.do(t, http.MethodPost, "/api/session/archive", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body ArchiveResponse
	decode(t, w, &body)
	assert.Equal(t, "archived", body.Status)
	assert.Equal(t, env.agent.ID(), body.SessionID)
	assert.Equal(t, 1, body.Interactions)

	stored, err := archiver.Load(context.Background(), env.agent.ID())
	require.NoError(t, err)
	assert.Equal(t, "remember this", stored.Interactions[0].UserInput)
}

func TestTools(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listing map[string][]ToolInfo
	decode(t, w, &listing)
	require.Len(t, listing["tools"], 5)
	assert.Equal(t, tools.ParseTaskTool, listing["tools"][0].Name)

	w = env.do(t, http.MethodPost, "/api/tools/evaluate_progress", `{"completed":5,"total":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tool":"evaluate_progress","result":{"completion_percent":50,"remaining_tasks":5}}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/tools/calculate_metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTools_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/tools/unknown", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/tools/parse_task", `{oops`).Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodOptions, "/api/query", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/query", `{"query":"count me"}`)
	env.do(t, http.MethodGet, "/health", "")

	w := env.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "productivity_agent_requests_total 1")
	assert.Contains(t, w.Body.String(), `productivity_agent_model_calls_total{result="skipped"} 1`)

	count, err := testutil.GatherAndCount(env.reg, "productivity_agent_http_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}

func TestRecoverPanics(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.server.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	decode(t, w, &body)
	assert.Equal(t, "handler exploded", body.Error)
}

func TestStartShutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- env.server.Start() }()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)
}
