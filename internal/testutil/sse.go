// Package testutil holds shared test helpers: an SSE frame parser and a
// scripted generator standing in for the real model.
package testutil

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"
)

// ParseFrames parses a data-only SSE stream into the JSON payload of
// each frame, in order.
//
// Handles the W3C SSE spec for data-only streams:
//   - Multiple "data:" lines are joined with newline
//   - An empty line terminates a frame
//   - Comment lines starting with ":" are ignored
func ParseFrames(t *testing.T, body string) []string {
	t.Helper()

	var frames []string
	var dataLines []string
	lineNum := 0

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))

		case line == "":
			if len(dataLines) > 0 {
				frames = append(frames, strings.Join(dataLines, "\n"))
				dataLines = nil
			}

		default:
			if !strings.HasPrefix(line, ":") {
				t.Fatalf("SSE parse error at line %d: unexpected line %q", lineNum, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("SSE scan error: %v", err)
	}
	if len(dataLines) > 0 {
		t.Fatalf("SSE stream ended without terminating frame (missing empty line)")
	}

	return frames
}

// DecodeFrames unmarshals each frame payload into a generic map and
// returns them in order.
func DecodeFrames(t *testing.T, frames []string) []map[string]any {
	t.Helper()

	decoded := make([]map[string]any, 0, len(frames))
	for i, frame := range frames {
		var m map[string]any
		if err := json.Unmarshal([]byte(frame), &m); err != nil {
			t.Fatalf("frame %d is not valid JSON: %v\npayload: %s", i, err, frame)
		}
		decoded = append(decoded, m)
	}
	return decoded
}

// FrameTypes extracts the "type" field of each decoded frame, in order.
func FrameTypes(frames []map[string]any) []string {
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		s, _ := f["type"].(string)
		types = append(types, s)
	}
	return types
}
