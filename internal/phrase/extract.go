package phrase

import (
	"regexp"
	"strings"
)

// The follow-up bank is an ordered priority list: templates are tried in
// sequence and the first match wins. Overlapping templates make the order part
// of the observable behavior, so it must not be reordered. Every template is
// anchored at both ends and tolerates trailing ".!?".
var followupBank = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*i\s*am\s+not\s+(?:your|yo|ya|ur)\s+([\w'\- ,]+?)\s*[.!?]*$`),
	regexp.MustCompile(`(?i)^\s*i[' ]?m\s+not\s+(?:your|yo|ya|ur)\s+([\w'\- ,]+?)\s*[.!?]*$`),
	regexp.MustCompile(`(?i)^\s*im\s+not\s+(?:your|yo|ya|ur)\s+([\w'\- ,]+?)\s*[.!?]*$`),
	regexp.MustCompile(`(?i)^\s*not\s+(?:your|yo|ya|ur)\s+([\w'\- ,]+?)\s*[.!?]*$`),
}

var (
	pieceSplit = regexp.MustCompile(`[,\s]+`)
	wordFinder = regexp.MustCompile(`[A-Za-z0-9'\-]+`)
)

const pieceCutset = `'"- `

// FollowupTerms parses a volley of the shape "i'm not your X, Y". It returns
// exactly two raw pieces in message order, or nil when the message does not
// fit the bank or carries fewer than two usable pieces. Not matching is a
// normal outcome, not an error.
func FollowupTerms(message string) []string {
	for _, re := range followupBank {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		body := m[1]
		if body == "" {
			continue
		}
		pieces := splitPieces(body)
		if len(pieces) >= 2 {
			return pieces[:2]
		}
	}
	return nil
}

func splitPieces(body string) []string {
	var out []string
	for _, part := range pieceSplit.Split(body, -1) {
		p := strings.Trim(part, pieceCutset)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LastWord scans the whole message for word-like tokens (letters, digits,
// apostrophes, hyphens) and returns the last one plus the total token count.
// Used for the opener turn, where no prior bot word constrains the shape.
func LastWord(message string) (word string, count int, ok bool) {
	tokens := wordFinder.FindAllString(message, -1)
	if len(tokens) == 0 {
		return "", 0, false
	}
	return tokens[len(tokens)-1], len(tokens), true
}
