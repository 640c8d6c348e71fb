// Package chat runs the per-turn pipeline: resolve the user's language and
// level (cache first, durable fallback), load the bounded history, call the
// completion API, then trim and persist the window.
//
// Turns hold no in-process session state; every invocation re-reads both
// stores. Concurrent turns for the same user are last-writer-wins on the
// history key, an accepted race for a single-user-single-device chat.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/linguai/internal/assistant"
	"github.com/antoniostano/linguai/internal/contextstore"
	"github.com/antoniostano/linguai/internal/observability"
	"github.com/antoniostano/linguai/internal/prefs"
	"github.com/antoniostano/linguai/internal/texts"
	"github.com/antoniostano/linguai/internal/users"
)

// AbortReason classifies a turn that ended without an assistant reply.
type AbortReason string

const (
	AbortMissingLanguage AbortReason = "missing_language"
	AbortMissingLevel    AbortReason = "missing_level"
	AbortEmptyCompletion AbortReason = "empty_completion"
)

// Result is the typed outcome of one turn. Either Reply is non-empty or
// Reason is set; Language carries the resolved language when resolution got
// that far, so callers can pick a language-appropriate message.
type Result struct {
	Reply    string
	Reason   AbortReason
	Language string
}

// Aborted reports whether the turn ended without a reply.
func (r Result) Aborted() bool { return r.Reason != "" }

// Orchestrator executes chat turns against the two stores and the completer.
type Orchestrator struct {
	cache      contextstore.Store
	prefs      *prefs.Service
	completer  assistant.Completer
	metrics    *observability.Metrics
	historyMax int
}

func NewOrchestrator(
	cache contextstore.Store,
	preferences *prefs.Service,
	completer assistant.Completer,
	metrics *observability.Metrics,
	historyMax int,
) *Orchestrator {
	return &Orchestrator{
		cache:      cache,
		prefs:      preferences,
		completer:  completer,
		metrics:    metrics,
		historyMax: historyMax,
	}
}

// Respond runs one turn. A returned error means a store or completion call
// failed; the turn is abandoned and nothing is persisted. All other failure
// paths resolve to a typed Result.
func (o *Orchestrator) Respond(ctx context.Context, externalID int64, text string) (Result, error) {
	turnID := uuid.NewString()

	language, ok, err := o.resolvePreference(ctx, externalID, contextstore.NamespaceLanguage, users.FieldLanguage)
	if err != nil {
		o.metrics.ObserveTurnOutcome("store_error")
		return Result{}, err
	}
	if !ok {
		o.metrics.ObserveTurnOutcome(string(AbortMissingLanguage))
		return Result{Reason: AbortMissingLanguage}, nil
	}

	level, ok, err := o.resolvePreference(ctx, externalID, contextstore.NamespaceCEFRLevel, users.FieldCEFRLevel)
	if err != nil {
		o.metrics.ObserveTurnOutcome("store_error")
		return Result{}, err
	}
	if !ok {
		o.metrics.ObserveTurnOutcome(string(AbortMissingLevel))
		return Result{Reason: AbortMissingLevel, Language: language}, nil
	}

	history, err := o.loadHistory(ctx, externalID, turnID)
	if err != nil {
		o.metrics.ObserveTurnOutcome("store_error")
		return Result{}, err
	}

	history = append(history, Turn{Role: assistant.RoleUser, Content: text})

	messages := buildMessages(language, level, history)
	start := time.Now()
	reply, err := o.completer.Complete(ctx, messages)
	o.metrics.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		o.metrics.ObserveTurnOutcome("completion_error")
		return Result{}, fmt.Errorf("turn %s: %w", turnID, err)
	}
	if strings.TrimSpace(reply) == "" {
		// The new user turn is dropped rather than persisted without an
		// assistant reply; stored history always alternates complete pairs.
		log.Printf("chat: turn %s for user %d got an empty completion", turnID, externalID)
		o.metrics.ObserveTurnOutcome(string(AbortEmptyCompletion))
		return Result{Reason: AbortEmptyCompletion, Language: language}, nil
	}

	history = append(history, Turn{Role: assistant.RoleAssistant, Content: reply})
	history = history.TrimTo(o.historyMax)

	encoded, err := history.Encode()
	if err != nil {
		return Result{}, fmt.Errorf("turn %s: encode history: %w", turnID, err)
	}
	if err := o.cache.Set(ctx, contextstore.NamespaceChatHistory, externalID, encoded); err != nil {
		o.metrics.ObserveTurnOutcome("store_error")
		return Result{}, fmt.Errorf("turn %s: %w", turnID, err)
	}

	log.Printf("chat: turn %s for user %d done, history length %d", turnID, externalID, len(history))
	o.metrics.ObserveTurnOutcome("ok")
	return Result{Reply: reply, Language: language}, nil
}

// resolvePreference reads the ephemeral value first and falls back to the
// durable preference on a miss.
func (o *Orchestrator) resolvePreference(
	ctx context.Context,
	externalID int64,
	ns contextstore.Namespace,
	field users.PreferenceField,
) (string, bool, error) {
	if v, ok, err := o.cache.Get(ctx, ns, externalID); err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", ns, err)
	} else if ok {
		return v, true, nil
	}

	v, ok, err := o.prefs.Get(ctx, field, externalID)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", ns, err)
	}
	return v, ok, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, externalID int64, turnID string) (History, error) {
	raw, ok, err := o.cache.Get(ctx, contextstore.NamespaceChatHistory, externalID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok {
		return History{}, nil
	}

	history, err := ParseHistory(raw)
	if err != nil {
		// Deliberate fallback: the corrupt value is discarded and the turn
		// proceeds with an empty window.
		log.Printf("chat: turn %s for user %d discarding corrupt history: %v", turnID, externalID, err)
		return History{}, nil
	}
	return history, nil
}

func buildMessages(language, level string, history History) []assistant.Message {
	messages := make([]assistant.Message, 0, len(history)+1)
	messages = append(messages, assistant.Message{
		Role:    assistant.RoleSystem,
		Content: texts.SystemPrompt(language, level),
	})
	for _, t := range history {
		messages = append(messages, assistant.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}
