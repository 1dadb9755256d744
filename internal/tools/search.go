package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SearchToolName is the tool name the model uses to request a web search.
const SearchToolName = "search"

const (
	defaultSearchBaseURL = "https://api.tavily.com"
	defaultMaxResults    = 4
	searchTimeout        = 30 * time.Second
	maxResponseSize      = 10 << 20 // 10MB
)

// SearchConfig configures the Tavily-backed search tool.
type SearchConfig struct {
	APIKey     string
	BaseURL    string       // defaults to the Tavily API
	MaxResults int          // defaults to 4
	HTTPClient *http.Client // defaults to a client with a 30s timeout
}

// SearchTool performs web searches via the Tavily HTTP API and returns one
// record per hit. Each record carries title, url, and content fields.
type SearchTool struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

// NewSearchTool creates the search tool.
func NewSearchTool(cfg SearchConfig, logger *slog.Logger) *SearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: searchTimeout}
	}

	return &SearchTool{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		client:     client,
		logger:     logger,
	}
}

// Definition implements Tool.
func (t *SearchTool) Definition() Definition {
	return Definition{
		Name:        SearchToolName,
		Description: "Search the web for current information. Use this for questions about recent events or anything outside your training data.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []any{"query"},
		},
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Invoke implements Tool. The only argument read is "query".
func (t *SearchTool) Invoke(ctx context.Context, args map[string]any) ([]map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("search: missing query argument")
	}

	body, err := json.Marshal(searchRequest{
		APIKey:     t.apiKey,
		Query:      query,
		MaxResults: t.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("search: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	t.logger.Debug("search started", "query", query)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("search: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("search: decoding response: %w", err)
	}

	records := make([]map[string]any, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		records = append(records, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"content": r.Content,
		})
	}

	t.logger.Debug("search completed", "query", query, "results", len(records))
	return records, nil
}
