package textnorm

import (
	"regexp"
	"strings"
)

// Smart punctuation variants mapped to plain ASCII before any other step.
var asciiFold = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"‑", "-",
	"‒", "-",
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	spaces   = regexp.MustCompile(`\s+`)
)

// Normalize reduces text to the canonical key used for every equality and
// membership check: ASCII-folded, lower-cased, runs of non-alphanumerics
// replaced by a single space, whitespace collapsed, trimmed. Idempotent.
func Normalize(text string) string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(asciiFold.Replace(text)), " ")
	return strings.TrimSpace(spaces.ReplaceAllString(cleaned, " "))
}
