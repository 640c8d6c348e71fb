package chat

import "testing"

func TestParseHistoryRoundTrip(t *testing.T) {
	h := History{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there!"},
	}
	encoded, err := h.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	parsed, err := ParseHistory(encoded)
	if err != nil {
		t.Fatalf("ParseHistory() error = %v", err)
	}
	if len(parsed) != 2 || parsed[0].Content != "Hello" || parsed[1].Role != "assistant" {
		t.Fatalf("ParseHistory() = %+v", parsed)
	}
}

func TestParseHistoryRejectsGarbage(t *testing.T) {
	if _, err := ParseHistory("{not json"); err == nil {
		t.Fatalf("ParseHistory() should fail on malformed input")
	}
}

func TestTrimToKeepsMostRecent(t *testing.T) {
	h := History{
		{Role: "user", Content: "1"},
		{Role: "assistant", Content: "2"},
		{Role: "user", Content: "3"},
		{Role: "assistant", Content: "4"},
		{Role: "user", Content: "5"},
		{Role: "assistant", Content: "6"},
	}

	trimmed := h.TrimTo(4)
	if len(trimmed) != 4 {
		t.Fatalf("TrimTo(4) length = %d", len(trimmed))
	}
	if trimmed[0].Content != "3" || trimmed[3].Content != "6" {
		t.Fatalf("TrimTo(4) should drop oldest first: %+v", trimmed)
	}
}

func TestTrimToNoOpUnderCap(t *testing.T) {
	h := History{{Role: "user", Content: "1"}}
	if got := h.TrimTo(4); len(got) != 1 {
		t.Fatalf("TrimTo under the cap changed the window: %+v", got)
	}
}
