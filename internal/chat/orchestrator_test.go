package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/linguai/internal/assistant"
	"github.com/antoniostano/linguai/internal/contextstore"
	"github.com/antoniostano/linguai/internal/prefs"
	"github.com/antoniostano/linguai/internal/users"
)

// scriptedCompleter returns canned replies in order and records every prompt.
type scriptedCompleter struct {
	replies []string
	calls   int
	prompts [][]assistant.Message
}

func (c *scriptedCompleter) Complete(_ context.Context, messages []assistant.Message) (string, error) {
	c.prompts = append(c.prompts, messages)
	reply := ""
	if c.calls < len(c.replies) {
		reply = c.replies[c.calls]
	}
	c.calls++
	return reply, nil
}

type fixture struct {
	cache     *contextstore.InMemoryStore
	userStore *users.InMemoryStore
	completer *scriptedCompleter
	orch      *Orchestrator
}

func newFixture(t *testing.T, historyMax int, replies ...string) *fixture {
	t.Helper()
	cache := contextstore.NewInMemoryStore(time.Minute)
	userStore := users.NewInMemoryStore()
	completer := &scriptedCompleter{replies: replies}
	orch := NewOrchestrator(cache, prefs.New(userStore), completer, nil, historyMax)
	return &fixture{cache: cache, userStore: userStore, completer: completer, orch: orch}
}

func (f *fixture) registerWithPrefs(t *testing.T, id int64, language, level string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.userStore.Insert(ctx, users.NewRecord{ExternalID: id}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := f.cache.Set(ctx, contextstore.NamespaceLanguage, id, language); err != nil {
		t.Fatalf("Set(language) error = %v", err)
	}
	if err := f.cache.Set(ctx, contextstore.NamespaceCEFRLevel, id, level); err != nil {
		t.Fatalf("Set(level) error = %v", err)
	}
}

func TestRespondHappyPath(t *testing.T) {
	f := newFixture(t, 20, "Hi there!")
	f.registerWithPrefs(t, 42, "english", "b1")

	res, err := f.orch.Respond(context.Background(), 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Aborted() || res.Reply != "Hi there!" {
		t.Fatalf("Respond() = %+v, want reply Hi there!", res)
	}
	if res.Language != "english" {
		t.Fatalf("Language = %q, want english", res.Language)
	}

	raw, ok, _ := f.cache.Get(context.Background(), contextstore.NamespaceChatHistory, 42)
	if !ok {
		t.Fatalf("history should be persisted after a successful turn")
	}
	h, err := ParseHistory(raw)
	if err != nil {
		t.Fatalf("ParseHistory() error = %v", err)
	}
	if len(h) != 2 || h[0] != (Turn{Role: "user", Content: "Hello"}) || h[1] != (Turn{Role: "assistant", Content: "Hi there!"}) {
		t.Fatalf("persisted history = %+v", h)
	}
}

func TestRespondBuildsSystemPromptPlusHistory(t *testing.T) {
	f := newFixture(t, 20, "ok", "ok again")
	f.registerWithPrefs(t, 42, "english", "b1")

	ctx := context.Background()
	if _, err := f.orch.Respond(ctx, 42, "first"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if _, err := f.orch.Respond(ctx, 42, "second"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	prompt := f.completer.prompts[1]
	if prompt[0].Role != assistant.RoleSystem || !strings.Contains(prompt[0].Content, "English teacher") {
		t.Fatalf("first message should be the tutor system prompt: %+v", prompt[0])
	}
	want := []assistant.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "second"},
	}
	if len(prompt) != len(want)+1 {
		t.Fatalf("prompt length = %d, want %d", len(prompt), len(want)+1)
	}
	for i, m := range want {
		if prompt[i+1] != m {
			t.Fatalf("prompt[%d] = %+v, want %+v", i+1, prompt[i+1], m)
		}
	}
}

func TestRespondMissingLanguageAborts(t *testing.T) {
	f := newFixture(t, 20)
	if _, err := f.userStore.Insert(context.Background(), users.NewRecord{ExternalID: 42}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	res, err := f.orch.Respond(context.Background(), 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Reason != AbortMissingLanguage {
		t.Fatalf("Reason = %q, want %q", res.Reason, AbortMissingLanguage)
	}
	if f.completer.calls != 0 {
		t.Fatalf("completion API must not be called without a language")
	}
}

func TestRespondMissingLevelAborts(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	if _, err := f.userStore.Insert(ctx, users.NewRecord{ExternalID: 42}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := f.cache.Set(ctx, contextstore.NamespaceLanguage, 42, "english"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	res, err := f.orch.Respond(ctx, 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Reason != AbortMissingLevel {
		t.Fatalf("Reason = %q, want %q", res.Reason, AbortMissingLevel)
	}
	if res.Language != "english" {
		t.Fatalf("Language = %q, resolved language should survive the abort", res.Language)
	}
}

func TestRespondDurableFallbackForPreferences(t *testing.T) {
	f := newFixture(t, 20, "Bonjour!")
	ctx := context.Background()
	if _, err := f.userStore.Insert(ctx, users.NewRecord{ExternalID: 42}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	// Nothing cached; both preferences only in the durable store.
	if err := f.userStore.SetPreference(ctx, 42, users.FieldLanguage, "EN"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	if err := f.userStore.SetPreference(ctx, 42, users.FieldCEFRLevel, "b1"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}

	res, err := f.orch.Respond(ctx, 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Aborted() {
		t.Fatalf("Respond() aborted %q, durable fallback should resolve", res.Reason)
	}
	if res.Language != "EN" {
		t.Fatalf("Language = %q, want the durable value EN", res.Language)
	}
}

func TestRespondEmptyCompletionDoesNotPersist(t *testing.T) {
	f := newFixture(t, 20, "first reply", "")
	f.registerWithPrefs(t, 42, "english", "b1")
	ctx := context.Background()

	if _, err := f.orch.Respond(ctx, 42, "Hello"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	before, _, _ := f.cache.Get(ctx, contextstore.NamespaceChatHistory, 42)

	res, err := f.orch.Respond(ctx, 42, "Are you there?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Reason != AbortEmptyCompletion {
		t.Fatalf("Reason = %q, want %q", res.Reason, AbortEmptyCompletion)
	}

	after, _, _ := f.cache.Get(ctx, contextstore.NamespaceChatHistory, 42)
	if after != before {
		t.Fatalf("history changed across an empty completion:\nbefore %s\nafter  %s", before, after)
	}
}

func TestRespondCorruptHistoryRecovers(t *testing.T) {
	f := newFixture(t, 20, "Fresh start!")
	f.registerWithPrefs(t, 42, "english", "b1")
	ctx := context.Background()

	if err := f.cache.Set(ctx, contextstore.NamespaceChatHistory, 42, "{definitely not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	res, err := f.orch.Respond(ctx, 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v, corrupt history must not surface", err)
	}
	if res.Reply != "Fresh start!" {
		t.Fatalf("Reply = %q", res.Reply)
	}

	raw, _, _ := f.cache.Get(ctx, contextstore.NamespaceChatHistory, 42)
	h, err := ParseHistory(raw)
	if err != nil {
		t.Fatalf("persisted history should be valid again: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("history length = %d, corrupt window should have been discarded", len(h))
	}
}

func TestRespondHistoryBound(t *testing.T) {
	f := newFixture(t, 4, "r1", "r2", "r3")
	f.registerWithPrefs(t, 42, "english", "b1")
	ctx := context.Background()

	for _, msg := range []string{"m1", "m2", "m3"} {
		if _, err := f.orch.Respond(ctx, 42, msg); err != nil {
			t.Fatalf("Respond(%s) error = %v", msg, err)
		}
	}

	raw, _, _ := f.cache.Get(ctx, contextstore.NamespaceChatHistory, 42)
	h, err := ParseHistory(raw)
	if err != nil {
		t.Fatalf("ParseHistory() error = %v", err)
	}
	want := History{
		{Role: "user", Content: "m2"},
		{Role: "assistant", Content: "r2"},
		{Role: "user", Content: "m3"},
		{Role: "assistant", Content: "r3"},
	}
	if len(h) != 4 {
		t.Fatalf("history length = %d, want 4", len(h))
	}
	for i := range want {
		if h[i] != want[i] {
			t.Fatalf("history[%d] = %+v, want %+v", i, h[i], want[i])
		}
	}
}

func TestRespondPersistRefreshesTTL(t *testing.T) {
	f := newFixture(t, 20, "r1", "r2")
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	f.cache.SetClock(func() time.Time { return now })

	f.registerWithPrefs(t, 42, "english", "b1")
	if _, err := f.orch.Respond(ctx, 42, "m1"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	first, _ := f.cache.ExpiresAt(contextstore.NamespaceChatHistory, 42)

	now = base.Add(10 * time.Second)
	if _, err := f.orch.Respond(ctx, 42, "m2"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	second, _ := f.cache.ExpiresAt(contextstore.NamespaceChatHistory, 42)

	if !second.After(first) {
		t.Fatalf("each persist should refresh the TTL: first=%v second=%v", first, second)
	}
}

func TestRespondUnregisteredUserAborts(t *testing.T) {
	f := newFixture(t, 20)

	res, err := f.orch.Respond(context.Background(), 42, "Hello")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Reason != AbortMissingLanguage {
		t.Fatalf("Reason = %q, unknown user resolves to missing language", res.Reason)
	}
}
