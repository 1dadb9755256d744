package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sajidcodes/perplexity/internal/model"
	"github.com/Sajidcodes/perplexity/internal/session"
)

// Round scripts one generation round of the mock model.
type Round struct {
	// Deltas are pushed through the streaming callback in order before
	// the round completes. Usually strings; other types simulate a
	// misbehaving provider.
	Deltas []any
	// Content is the full text of the round's assistant turn.
	Content string
	// Calls are the tool calls the round requests.
	Calls []session.ToolCall
	// Err, when set, fails the round after the deltas are delivered.
	Err error
}

// MockModel is a scripted model.Generator: each Generate call consumes
// the next Round. Thread-safe for concurrent use.
type MockModel struct {
	mu        sync.Mutex
	rounds    []Round
	next      int
	histories [][]session.Message
}

var _ model.Generator = (*MockModel)(nil)

// NewMockModel creates a mock generator that plays the given rounds in
// order.
func NewMockModel(rounds ...Round) *MockModel {
	return &MockModel{rounds: rounds}
}

// Generate implements model.Generator.
func (m *MockModel) Generate(_ context.Context, history []session.Message, onDelta func(delta any) error) (*model.Turn, error) {
	m.mu.Lock()
	if m.next >= len(m.rounds) {
		m.mu.Unlock()
		return nil, fmt.Errorf("mock model: no round scripted for call %d", m.next+1)
	}
	round := m.rounds[m.next]
	m.next++
	m.histories = append(m.histories, append([]session.Message(nil), history...))
	m.mu.Unlock()

	for _, delta := range round.Deltas {
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return nil, err
			}
		}
	}
	if round.Err != nil {
		return nil, round.Err
	}
	return &model.Turn{Content: round.Content, Calls: round.Calls}, nil
}

// Calls reports how many generation rounds ran.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// HistoryAt returns a copy of the history passed to the nth Generate
// call (0-based).
func (m *MockModel) HistoryAt(n int) []session.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.histories) {
		return nil
	}
	return append([]session.Message(nil), m.histories[n]...)
}
