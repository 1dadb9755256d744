// Package session provides conversation history types and pluggable
// persistence for multi-turn chat sessions.
//
// A session is an ordered, append-only sequence of messages identified by
// an opaque id. Stores only need two operations: Resolve an id into its
// history (minting a fresh id when none is supplied) and Persist the full
// history after a completed turn.
package session

import (
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a structured request emitted by the model to execute a named
// tool with arguments. IDs are opaque and only unique within one
// generation round.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is one turn entry in a conversation.
//
// ToolCalls is set only on assistant messages. ToolCallID is set only on
// tool-result messages and references the ToolCall it answers, which must
// belong to the immediately preceding assistant message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant message with text and any tool
// calls the model requested during the round.
func NewAssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolResult creates a tool-result message answering the tool call with
// the given id.
func NewToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Info summarizes a stored session for listing endpoints.
type Info struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}
