// Package model abstracts the language-model capability behind a small
// streaming interface so the agent loop never depends on a provider SDK.
package model

import (
	"context"

	"github.com/Sajidcodes/perplexity/internal/session"
)

// Turn is the outcome of one generation round: the assistant's full text
// and any tool calls it requested, in emission order.
type Turn struct {
	Content string
	Calls   []session.ToolCall
}

// Generator produces one assistant turn from the conversation history.
//
// Implementations stream: onDelta is called for every output increment as
// it arrives, before Generate returns. The delta payload is deliberately
// untyped — downstream translation interprets it and fails loudly on
// anything that is not a plain text increment, so a misbehaving provider
// surfaces as a contract violation instead of silent coercion. Returning
// an error from onDelta aborts the round.
type Generator interface {
	Generate(ctx context.Context, history []session.Message, onDelta func(delta any) error) (*Turn, error)
}
