// Package stream defines the wire protocol of a chat turn and the
// translation from raw agent events into wire messages.
//
// Every message serializes as a single JSON object with a "type"
// discriminator; clients switch on it and ignore types they do not know.
package stream

// Message is one wire frame. Concrete types: Checkpoint, Content,
// SearchStart, SearchResults, End.
type Message interface {
	message()
}

// Checkpoint announces the id of a newly minted session. It is sent at
// most once per turn, before any other frame, and only when the client
// did not supply a session id.
type Checkpoint struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Content carries one increment of assistant text.
type Content struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SearchStart announces that a web search is running for the given query.
type SearchStart struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

// SearchResults carries the source URLs a completed search produced.
type SearchResults struct {
	Type string   `json:"type"`
	URLs []string `json:"urls"`
}

// End marks the successful completion of the turn. It is sent exactly
// once, last. A turn that fails mid-stream is truncated without it.
type End struct {
	Type string `json:"type"`
}

func (Checkpoint) message()    {}
func (Content) message()       {}
func (SearchStart) message()   {}
func (SearchResults) message() {}
func (End) message()           {}

// NewCheckpoint builds a checkpoint frame.
func NewCheckpoint(sessionID string) Checkpoint {
	return Checkpoint{Type: "checkpoint", SessionID: sessionID}
}

// NewContent builds a content frame.
func NewContent(text string) Content {
	return Content{Type: "content", Content: text}
}

// NewSearchStart builds a search_start frame.
func NewSearchStart(query string) SearchStart {
	return SearchStart{Type: "search_start", Query: query}
}

// NewSearchResults builds a search_results frame. The slice is always
// serialized, even when empty.
func NewSearchResults(urls []string) SearchResults {
	if urls == nil {
		urls = []string{}
	}
	return SearchResults{Type: "search_results", URLs: urls}
}

// NewEnd builds the terminal frame.
func NewEnd() End {
	return End{Type: "end"}
}
