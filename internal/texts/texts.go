// Package texts holds every user-facing template. Per-language replies are
// resolved through an explicit (language, phase) table with a typed
// missing-template error; nothing is looked up by building identifier names
// at runtime.
package texts

import (
	"fmt"
	"strings"
)

// Phase names one templated reply slot in the conversation flow.
type Phase string

const (
	PhaseLanguageStart Phase = "language_start"
	PhaseLevelStart    Phase = "level_start"
	PhaseError         Phase = "error"
)

// MissingTemplateError reports a (language, phase) pair with no template.
type MissingTemplateError struct {
	Language string
	Phase    Phase
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("no template for language %q phase %q", e.Language, e.Phase)
}

type templateKey struct {
	language string
	phase    Phase
}

var templates = map[templateKey]string{
	{"english", PhaseLanguageStart}: "Awesome! \U0001F389\n\nYou've selected English \U0001F1FA\U0001F1F8\n\nWhat's your current English level? \U0001F447",
	{"english", PhaseLevelStart}:    "Great! \U0001F44D\n\nLet's start learning English! \U0001F4DA",
	{"english", PhaseError}:         "Sorry, I didn't understand that. Please try again. \U0001F60A",
}

// Language-independent replies.
const (
	Welcome = "Hi! \U0001F4AB\n\nI'm LinguAI, your personal AI language companion. \U0001F30D\n\nWhich language shall we practice today? Pick one! \U0001F447"

	SelectLanguagePrompt = "Please pick a language first, using /start \U0001F64F"
	SelectLevelPrompt    = "Please pick your level first, using /start \U0001F64F"

	// Shown when a turn fails for reasons the user cannot fix.
	Apology = "Something went wrong on my side. Please try again in a moment. \U0001F605"
)

// Lookup resolves the template for a (language, phase) pair.
func Lookup(language string, phase Phase) (string, error) {
	t, ok := templates[templateKey{normalizeLanguage(language), phase}]
	if !ok {
		return "", &MissingTemplateError{Language: language, Phase: phase}
	}
	return t, nil
}

// ErrorReply returns the per-language error message, falling back to the
// English one when the language has no template.
func ErrorReply(language string) string {
	if t, err := Lookup(language, PhaseError); err == nil {
		return t
	}
	t, _ := Lookup("english", PhaseError)
	return t
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
