package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Sajidcodes/perplexity/internal/session"
	"github.com/Sajidcodes/perplexity/internal/tools"
)

// GeminiConfig configures the Gemini-backed generator.
type GeminiConfig struct {
	APIKey string
	Model  string // e.g. "gemini-2.0-flash-001"
}

// Gemini implements Generator on top of the Gemini API, with the
// registered tools exposed as function declarations.
type Gemini struct {
	client *genai.Client
	model  string
	tools  []*genai.Tool
	logger *slog.Logger
}

// NewGemini creates the generator and validates the tool declarations.
func NewGemini(ctx context.Context, cfg GeminiConfig, defs []tools.Definition, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: missing model name")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		params, err := toSchema(def.Parameters)
		if err != nil {
			return nil, fmt.Errorf("gemini: encoding schema for tool %s: %w", def.Name, err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}

	g := &Gemini{client: client, model: cfg.Model, logger: logger}
	if len(declarations) > 0 {
		g.tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}
	return g, nil
}

// Generate implements Generator. Text parts stream through onDelta as they
// arrive; function-call parts are collected into the returned Turn.
func (g *Gemini) Generate(ctx context.Context, history []session.Message, onDelta func(delta any) error) (*Turn, error) {
	contents, err := toContents(history)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{Tools: g.tools}

	var text strings.Builder
	var calls []session.ToolCall

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return nil, fmt.Errorf("gemini: streaming generation: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = uuid.NewString()
				}
				calls = append(calls, session.ToolCall{
					ID:   id,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
				if onDelta != nil {
					if err := onDelta(part.Text); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	g.logger.Debug("generation round complete",
		"chars", text.Len(),
		"toolCalls", len(calls),
	)
	return &Turn{Content: text.String(), Calls: calls}, nil
}

// toContents converts conversation history to the Gemini wire shape.
// Tool results become function-response parts; the call name is recovered
// from the preceding assistant message's tool calls.
func toContents(history []session.Message) ([]*genai.Content, error) {
	callNames := make(map[string]string)
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case session.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))

		case session.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Name
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(""))
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case session.RoleTool:
			name, ok := callNames[msg.ToolCallID]
			if !ok {
				return nil, fmt.Errorf("gemini: tool result %s has no matching tool call", msg.ToolCallID)
			}
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     name,
						Response: toResponseMap(msg.Content),
					},
				}},
			})

		default:
			return nil, fmt.Errorf("gemini: unsupported message role %q", msg.Role)
		}
	}

	return contents, nil
}

// toResponseMap wraps serialized tool output in the map shape the API
// expects. Content that is not valid JSON is passed through as raw text.
func toResponseMap(content string) map[string]any {
	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return map[string]any{"content": content}
	}
	return map[string]any{"results": decoded}
}

// toSchema converts a JSON-schema map into the genai schema type via a
// JSON round-trip.
func toSchema(params map[string]any) (*genai.Schema, error) {
	if params == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	schema := &genai.Schema{}
	if err := json.Unmarshal(encoded, schema); err != nil {
		return nil, err
	}
	return schema, nil
}
