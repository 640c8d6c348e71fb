package texts

import (
	"fmt"
	"strings"
	"unicode"
)

const chatSystemPrompt = `You are a %[1]s teacher for %[2]s level students. Speak ONLY in %[1]s.

RULES:
- Adjust complexity for %[2]s: A1-A2 (simple), B1-B2 (moderate), C1-C2 (advanced)
- Keep responses brief: A1-A2 (1-2 sentences), B1-C2 (2-3 sentences)
- Correct major errors briefly: "[Correction] → [Continue conversation]"
- For off-topic: "Let's practice %[1]s!" and return to conversation
- No translations, code, or lengthy explanations

Start with a level-appropriate %[1]s greeting and question.`

// SystemPrompt builds the tutor instruction for one chat turn.
func SystemPrompt(language, cefrLevel string) string {
	return fmt.Sprintf(chatSystemPrompt, titleCase(language), titleCase(cefrLevel))
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
