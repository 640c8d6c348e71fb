package chat

import "encoding/json"

// Turn is one user or assistant message in the rolling window.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is the ordered rolling window; insertion order is chronological.
type History []Turn

// ParseHistory decodes the cached window. Callers treat a decode failure as
// a corrupt value to discard, not a fatal condition.
func ParseHistory(raw string) (History, error) {
	var h History
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, err
	}
	return h, nil
}

// Encode serializes the window for the cache.
func (h History) Encode() (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TrimTo keeps the most recent max entries, dropping oldest first.
func (h History) TrimTo(max int) History {
	if max <= 0 || len(h) <= max {
		return h
	}
	return h[len(h)-max:]
}
