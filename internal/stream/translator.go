package stream

import (
	"fmt"
)

// EventKind discriminates the raw events the agent loop produces.
type EventKind int

const (
	// KindDelta is one increment of generated output.
	KindDelta EventKind = iota
	// KindSearchStart marks the start of a search tool invocation.
	KindSearchStart
	// KindSearchResults carries the records a search returned.
	KindSearchResults
	// KindEnd marks the successful completion of the turn.
	KindEnd
)

// Event is one raw occurrence inside a turn, before translation.
type Event struct {
	Kind    EventKind
	Delta   any
	Query   string
	Records []map[string]any
}

// DeltaEvent wraps a generation increment. The payload stays untyped
// until translation, where anything but a string fails the turn.
func DeltaEvent(delta any) Event {
	return Event{Kind: KindDelta, Delta: delta}
}

// SearchStartEvent marks a search beginning for the given query.
func SearchStartEvent(query string) Event {
	return Event{Kind: KindSearchStart, Query: query}
}

// SearchResultsEvent carries the result records of a completed search.
func SearchResultsEvent(records []map[string]any) Event {
	return Event{Kind: KindSearchResults, Records: records}
}

// EndEvent marks the turn complete.
func EndEvent() Event {
	return Event{Kind: KindEnd}
}

// Translator converts raw events into wire messages for one turn.
//
// It is a single-pass state machine: for a freshly minted session the
// first translated event is preceded by a checkpoint frame, and after
// the end frame no further output is produced. Event kinds it does not
// recognize translate to nothing.
type Translator struct {
	sessionID  string
	checkpoint bool
	ended      bool
}

// NewTranslator creates a translator for one turn. fresh marks a session
// whose id was minted for this turn rather than supplied by the client.
func NewTranslator(sessionID string, fresh bool) *Translator {
	return &Translator{sessionID: sessionID, checkpoint: fresh}
}

// Translate maps one raw event to zero or more wire messages.
//
// A delta whose payload is not a string is a protocol violation and
// returns an error; the caller is expected to truncate the stream.
func (t *Translator) Translate(ev Event) ([]Message, error) {
	if t.ended {
		return nil, nil
	}

	var out []Message
	switch ev.Kind {
	case KindDelta:
		text, ok := ev.Delta.(string)
		if !ok {
			return nil, fmt.Errorf("stream: content delta is %T, want string", ev.Delta)
		}
		out = append(out, NewContent(text))

	case KindSearchStart:
		out = append(out, NewSearchStart(ev.Query))

	case KindSearchResults:
		urls := make([]string, 0, len(ev.Records))
		for _, record := range ev.Records {
			if url, ok := record["url"].(string); ok && url != "" {
				urls = append(urls, url)
			}
		}
		out = append(out, NewSearchResults(urls))

	case KindEnd:
		out = append(out, NewEnd())
		t.ended = true
	}

	// The checkpoint precedes the first emitted frame of a minted session.
	if len(out) > 0 && t.checkpoint {
		out = append([]Message{NewCheckpoint(t.sessionID)}, out...)
		t.checkpoint = false
	}

	return out, nil
}
