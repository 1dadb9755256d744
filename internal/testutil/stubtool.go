package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Sajidcodes/perplexity/internal/tools"
)

// StubTool is a scripted tool returning fixed records. Thread-safe.
type StubTool struct {
	// Name registers the tool under this name.
	Name string
	// Records are returned from every invocation.
	Records []map[string]any
	// Err, when set, fails every invocation.
	Err error
	// Delay is slept before returning, to exercise concurrency.
	Delay time.Duration

	mu    sync.Mutex
	calls []map[string]any
}

var _ tools.Tool = (*StubTool)(nil)

// Definition implements tools.Tool.
func (s *StubTool) Definition() tools.Definition {
	return tools.Definition{
		Name:        s.Name,
		Description: "stub tool for tests",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
		},
	}
}

// Invoke implements tools.Tool.
func (s *StubTool) Invoke(_ context.Context, args map[string]any) ([]map[string]any, error) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	s.mu.Lock()
	s.calls = append(s.calls, args)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// Invocations returns the arguments of every recorded call.
func (s *StubTool) Invocations() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.calls...)
}
