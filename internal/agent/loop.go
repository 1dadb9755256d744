package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/Sajidcodes/perplexity/internal/session"
	"github.com/Sajidcodes/perplexity/internal/stream"
	"github.com/Sajidcodes/perplexity/internal/tools"
)

// Stream runs one turn and yields its wire messages in order.
//
// The turn's work runs on a context detached from ctx's cancellation: a
// client that stops consuming (or disconnects) stops receiving frames,
// but generation and dispatch run to completion and the history is still
// persisted. A mid-turn failure truncates the stream, yields the error,
// and persists nothing from the turn.
func (a *Agent) Stream(ctx context.Context, in Input) iter.Seq2[stream.Message, error] {
	return func(yield func(stream.Message, error) bool) {
		workCtx := context.WithoutCancel(ctx)

		id, history, err := a.store.Resolve(workCtx, in.SessionID)
		if err != nil {
			yield(nil, fmt.Errorf("resolving session: %w", err))
			return
		}
		fresh := in.SessionID == ""

		em := &emitter{
			yield:      yield,
			translator: stream.NewTranslator(id, fresh),
			open:       true,
		}

		history = append(history, session.NewUserMessage(in.Message))
		if err := a.run(workCtx, em, &history); err != nil {
			a.logger.Error("turn failed", "session", id, "error", err)
			em.fail(err)
			return
		}

		// The client already has the full answer at this point, so a
		// persistence failure degrades durability, not the stream: log
		// it and still terminate with end.
		if err := a.store.Persist(workCtx, id, history); err != nil {
			a.logger.Error("persisting session", "session", id, "error", err)
		}

		em.emit(stream.EndEvent())
	}
}

// run drives the turn's state machine, growing history in place.
func (a *Agent) run(ctx context.Context, em *emitter, history *[]session.Message) error {
	var (
		current = stateGenerating
		rounds  int
		pending []session.ToolCall
	)

	for current != stateDone {
		switch current {
		case stateGenerating:
			if rounds >= a.maxRounds {
				return fmt.Errorf("turn exceeded %d generation rounds", a.maxRounds)
			}
			rounds++

			turn, err := a.model.Generate(ctx, *history, func(delta any) error {
				return em.emit(stream.DeltaEvent(delta))
			})
			if err != nil {
				return fmt.Errorf("generating: %w", err)
			}

			*history = append(*history, session.NewAssistantMessage(turn.Content, turn.Calls))
			pending = turn.Calls
			current = stateRouting

		case stateRouting:
			// Any requested call routes to dispatch, recognized or not:
			// the model always gets another round after asking for tools,
			// even when every name it asked for is dropped.
			if len(pending) == 0 {
				current = stateDone
				break
			}
			current = stateDispatching

		case stateDispatching:
			recognized := a.dispatcher.Recognized(pending)

			// One search_start per round, carrying the first search query.
			for _, call := range recognized {
				if call.Name != tools.SearchToolName {
					continue
				}
				query, _ := call.Args["query"].(string)
				if err := em.emit(stream.SearchStartEvent(query)); err != nil {
					return err
				}
				break
			}

			results, records, err := a.dispatcher.Dispatch(ctx, recognized)
			if err != nil {
				return fmt.Errorf("dispatching: %w", err)
			}

			for i, call := range recognized {
				if call.Name != tools.SearchToolName {
					continue
				}
				if err := em.emit(stream.SearchResultsEvent(records[i])); err != nil {
					return err
				}
			}

			*history = append(*history, results...)
			current = stateGenerating
		}
	}

	return nil
}

// emitter pushes translated frames through the yield function. Once the
// consumer stops accepting frames, emission becomes a no-op but the turn
// keeps running.
type emitter struct {
	yield      func(stream.Message, error) bool
	translator *stream.Translator
	open       bool
}

// emit translates one raw event and yields the resulting frames. A
// translation error is returned so the caller can fail the turn.
func (e *emitter) emit(ev stream.Event) error {
	msgs, err := e.translator.Translate(ev)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if !e.open {
			break
		}
		if !e.yield(msg, nil) {
			e.open = false
		}
	}
	return nil
}

// fail yields the error terminating the stream, without an end frame.
func (e *emitter) fail(err error) {
	if !e.open {
		return
	}
	e.yield(nil, err)
	e.open = false
}
