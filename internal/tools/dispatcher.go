package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sajidcodes/perplexity/internal/session"
)

// Dispatcher executes the tool calls requested in one generation round.
//
// Calls run concurrently for throughput, but results are reassembled into
// request order before being returned, so history ordering never depends
// on completion order. A failing tool fails the whole dispatch; this is
// the single error policy for tool execution (no per-call degradation).
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Recognized filters calls down to those naming a registered tool,
// preserving order. Dropped calls are logged but never fail the turn.
func (d *Dispatcher) Recognized(calls []session.ToolCall) []session.ToolCall {
	recognized := make([]session.ToolCall, 0, len(calls))
	for _, call := range calls {
		if _, ok := d.registry.Lookup(call.Name); !ok {
			d.logger.Debug("dropping unrecognized tool call", "tool", call.Name, "id", call.ID)
			continue
		}
		recognized = append(recognized, call)
	}
	return recognized
}

// Dispatch executes each call and returns one tool-result message per
// call, in call order, plus the raw records of each invocation (same
// order) for event emission. Calls must already be filtered through
// Recognized; any unrecognized name left in the slice is skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []session.ToolCall) ([]session.Message, [][]map[string]any, error) {
	type outcome struct {
		records []map[string]any
		err     error
	}

	outcomes := make([]outcome, len(calls))
	launched := make([]bool, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		tool, ok := d.registry.Lookup(call.Name)
		if !ok {
			continue
		}
		launched[i] = true

		wg.Add(1)
		go func(i int, call session.ToolCall, tool Tool) {
			defer wg.Done()
			records, err := tool.Invoke(ctx, call.Args)
			outcomes[i] = outcome{records: records, err: err}
		}(i, call, tool)
	}
	wg.Wait()

	results := make([]session.Message, 0, len(calls))
	allRecords := make([][]map[string]any, 0, len(calls))
	for i, call := range calls {
		if !launched[i] {
			continue
		}
		if outcomes[i].err != nil {
			return nil, nil, fmt.Errorf("invoking tool %s: %w", call.Name, outcomes[i].err)
		}

		content, err := json.Marshal(outcomes[i].records)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding result of tool %s: %w", call.Name, err)
		}

		results = append(results, session.NewToolResult(call.ID, string(content)))
		allRecords = append(allRecords, outcomes[i].records)
	}

	return results, allRecords, nil
}
