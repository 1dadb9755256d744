package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Sajidcodes/perplexity/internal/agent"
	"github.com/Sajidcodes/perplexity/internal/stream"
)

// chatHandler serves the streaming chat endpoint.
type chatHandler struct {
	agent  *agent.Agent
	logger *slog.Logger
}

// stream handles GET /chat_stream/{message}?checkpoint_id=...
//
// The response is a long-lived SSE stream of data-only frames, one JSON
// wire message per frame. A turn that fails mid-stream is truncated: the
// connection closes without an end frame and the client treats the
// absence of "end" as failure.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	message := r.PathValue("message")
	if message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}
	sessionID := r.URL.Query().Get("checkpoint_id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("SSE stream started", "session", sessionID, "request_id", r.Header.Get("X-Request-ID"))

	in := agent.Input{SessionID: sessionID, Message: message}
	frames := 0
	for msg, err := range h.agent.Stream(r.Context(), in) {
		if err != nil {
			// Truncate: the stream ends without an end frame.
			h.logger.Error("turn failed mid-stream", "session", sessionID, "error", err)
			return
		}
		if err := writeFrame(w, flusher, msg); err != nil {
			h.logger.Debug("client stopped consuming", "session", sessionID, "error", err)
			return
		}
		frames++
	}

	h.logger.Debug("SSE stream completed", "session", sessionID, "frames", frames)
}

// writeFrame writes a single data-only SSE frame: "data: <json>\n\n".
func writeFrame(w io.Writer, flusher http.Flusher, msg stream.Message) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	flusher.Flush()
	return nil
}
