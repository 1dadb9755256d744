package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Sajidcodes/perplexity/internal/agent"
	"github.com/Sajidcodes/perplexity/internal/log"
	"github.com/Sajidcodes/perplexity/internal/session"
	"github.com/Sajidcodes/perplexity/internal/testutil"
	"github.com/Sajidcodes/perplexity/internal/tools"
)

func newTestAgent(store session.Store, mock *testutil.MockModel, regTools ...tools.Tool) *agent.Agent {
	registry := tools.NewRegistry()
	for _, tool := range regTools {
		registry.Register(tool)
	}
	return agent.New(agent.Config{
		Store:      store,
		Model:      mock,
		Dispatcher: tools.NewDispatcher(registry, log.NewNop()),
		Logger:     log.NewNop(),
	})
}

func streamRequest(message, checkpointID string) *http.Request {
	target := "/chat_stream/" + url.PathEscape(message)
	if checkpointID != "" {
		target += "?checkpoint_id=" + url.QueryEscape(checkpointID)
	}
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.SetPathValue("message", message)
	return r
}

func TestChatStream_Headers(t *testing.T) {
	store := session.NewMemoryStore()
	h := &chatHandler{
		agent:  newTestAgent(store, testutil.NewMockModel(testutil.Round{Deltas: []any{"hi"}, Content: "hi"})),
		logger: log.NewNop(),
	}

	w := httptest.NewRecorder()
	h.stream(w, streamRequest("hello", "s1"))

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q, want no", got)
	}
}

func TestChatStream_FrameSequence(t *testing.T) {
	store := session.NewMemoryStore()
	searchTool := &testutil.StubTool{
		Name:    tools.SearchToolName,
		Records: []map[string]any{{"url": "https://a.example"}},
	}
	mock := testutil.NewMockModel(
		testutil.Round{Calls: []session.ToolCall{
			{ID: "c1", Name: tools.SearchToolName, Args: map[string]any{"query": "news"}},
		}},
		testutil.Round{Deltas: []any{"Here ", "you go"}, Content: "Here you go"},
	)
	h := &chatHandler{agent: newTestAgent(store, mock, searchTool), logger: log.NewNop()}

	w := httptest.NewRecorder()
	h.stream(w, streamRequest("latest news", "s1"))

	frames := testutil.DecodeFrames(t, testutil.ParseFrames(t, w.Body.String()))
	types := testutil.FrameTypes(frames)
	want := []string{"search_start", "search_results", "content", "content", "end"}
	if len(types) != len(want) {
		t.Fatalf("frame types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("frame types = %v, want %v", types, want)
		}
	}

	if q := frames[0]["query"]; q != "news" {
		t.Errorf("search_start query = %v, want news", q)
	}
	urls, ok := frames[1]["urls"].([]any)
	if !ok || len(urls) != 1 || urls[0] != "https://a.example" {
		t.Errorf("search_results urls = %v, want [https://a.example]", frames[1]["urls"])
	}
	if frames[2]["content"] != "Here " {
		t.Errorf("first content = %v, want %q", frames[2]["content"], "Here ")
	}
}

func TestChatStream_NewSessionGetsCheckpoint(t *testing.T) {
	store := session.NewMemoryStore()
	mock := testutil.NewMockModel(testutil.Round{Deltas: []any{"hi"}, Content: "hi"})
	h := &chatHandler{agent: newTestAgent(store, mock), logger: log.NewNop()}

	w := httptest.NewRecorder()
	h.stream(w, streamRequest("hello", ""))

	frames := testutil.DecodeFrames(t, testutil.ParseFrames(t, w.Body.String()))
	types := testutil.FrameTypes(frames)
	if len(types) == 0 || types[0] != "checkpoint" {
		t.Fatalf("frame types = %v, want checkpoint first", types)
	}
	if types[len(types)-1] != "end" {
		t.Fatalf("frame types = %v, want end last", types)
	}
	if id, _ := frames[0]["session_id"].(string); id == "" {
		t.Error("checkpoint has no session_id")
	}
}

func TestChatStream_ExistingSessionNoCheckpoint(t *testing.T) {
	store := session.NewMemoryStore()
	mock := testutil.NewMockModel(testutil.Round{Deltas: []any{"hi"}, Content: "hi"})
	h := &chatHandler{agent: newTestAgent(store, mock), logger: log.NewNop()}

	w := httptest.NewRecorder()
	h.stream(w, streamRequest("hello", "existing"))

	types := testutil.FrameTypes(testutil.DecodeFrames(t, testutil.ParseFrames(t, w.Body.String())))
	for _, ft := range types {
		if ft == "checkpoint" {
			t.Errorf("frames = %v: checkpoint emitted for a client-supplied session id", types)
		}
	}
}

func TestChatStream_ErrorTruncatesWithoutEnd(t *testing.T) {
	store := session.NewMemoryStore()
	mock := testutil.NewMockModel(testutil.Round{
		Deltas: []any{"partial "},
		Err:    errors.New("model exploded"),
	})
	h := &chatHandler{agent: newTestAgent(store, mock), logger: log.NewNop()}

	w := httptest.NewRecorder()
	h.stream(w, streamRequest("hello", "s1"))

	types := testutil.FrameTypes(testutil.DecodeFrames(t, testutil.ParseFrames(t, w.Body.String())))
	if len(types) != 1 || types[0] != "content" {
		t.Fatalf("frame types = %v, want only the partial content", types)
	}
}

func TestChatStream_MissingMessage(t *testing.T) {
	h := &chatHandler{logger: log.NewNop()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/chat_stream/", nil)
	h.stream(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
