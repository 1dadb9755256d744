package session

import (
	"context"
	"reflect"
	"sync"
	"testing"
)

func TestMemoryStore_MintsUniqueIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for range 50 {
		id, history, err := store.Resolve(ctx, "")
		if err != nil {
			t.Fatalf("Resolve(\"\") error = %v", err)
		}
		if id == "" {
			t.Fatal("Resolve(\"\") returned empty id")
		}
		if len(history) != 0 {
			t.Fatalf("Resolve(\"\") history has %d messages, want 0", len(history))
		}
		if seen[id] {
			t.Fatalf("Resolve(\"\") minted duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestMemoryStore_UnknownIDStartsFresh(t *testing.T) {
	store := NewMemoryStore()

	id, history, err := store.Resolve(context.Background(), "stale-client-id")
	if err != nil {
		t.Fatalf("Resolve(unknown) error = %v", err)
	}
	if id != "stale-client-id" {
		t.Errorf("Resolve(unknown) id = %q, want the supplied id", id)
	}
	if len(history) != 0 {
		t.Errorf("Resolve(unknown) history has %d messages, want 0", len(history))
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	history := []Message{
		NewUserMessage("hello"),
		NewAssistantMessage("hi there", nil),
		NewAssistantMessage("", []ToolCall{{ID: "c1", Name: "search", Args: map[string]any{"query": "go"}}}),
		NewToolResult("c1", `[{"url":"https://example.com"}]`),
	}
	if err := store.Persist(ctx, "s1", history); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	id, got, err := store.Resolve(ctx, "s1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "s1" {
		t.Errorf("Resolve() id = %q, want s1", id)
	}
	if !reflect.DeepEqual(got, history) {
		t.Errorf("Resolve() history = %+v, want %+v", got, history)
	}
}

func TestMemoryStore_ResolveCopiesHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Persist(ctx, "s1", []Message{NewUserMessage("original")}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	_, got, _ := store.Resolve(ctx, "s1")
	got[0].Content = "mutated"

	_, again, _ := store.Resolve(ctx, "s1")
	if again[0].Content != "original" {
		t.Error("mutating a resolved history leaked into the store")
	}
}

func TestMemoryStore_PersistOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Persist(ctx, "s1", []Message{NewUserMessage("one")}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	longer := []Message{NewUserMessage("one"), NewAssistantMessage("two", nil)}
	if err := store.Persist(ctx, "s1", longer); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	_, got, _ := store.Resolve(ctx, "s1")
	if len(got) != 2 {
		t.Fatalf("history has %d messages after overwrite, want 2", len(got))
	}
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Persist(ctx, "a", []Message{NewUserMessage("x")}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if err := store.Persist(ctx, "b", []Message{NewUserMessage("x"), NewAssistantMessage("y", nil)}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(infos))
	}
	counts := make(map[string]int)
	for _, info := range infos {
		counts[info.ID] = info.Messages
		if info.UpdatedAt.IsZero() {
			t.Errorf("session %s has zero UpdatedAt", info.ID)
		}
	}
	if counts["a"] != 1 || counts["b"] != 2 {
		t.Errorf("List() message counts = %v, want a:1 b:2", counts)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, _, err := store.Resolve(ctx, "")
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			if err := store.Persist(ctx, id, []Message{NewUserMessage("hi")}); err != nil {
				t.Errorf("Persist() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 20 {
		t.Errorf("List() returned %d sessions, want 20", len(infos))
	}
}
