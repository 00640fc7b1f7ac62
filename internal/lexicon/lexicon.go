package lexicon

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/kapu/notyourbuddy/internal/textnorm"
)

//go:embed banter_words.json
var defaultFiles embed.FS

// Entry is one nickname term usable by either party. Immutable after load.
type Entry struct {
	Term string
	Rank int
	Key  string // textnorm.Normalize(Term)
}

// Lexicon holds the rank-ordered word list and its key lookup. Loaded once at
// startup, read-only afterwards, shared by all sessions.
type Lexicon struct {
	ordered []Entry
	byKey   map[string]Entry
}

type sourceFile struct {
	Words []sourceWord `json:"words"`
}

type sourceWord struct {
	Term *string `json:"term"`
	Rank int     `json:"rank"`
}

// Load parses a {"words":[{"term","rank"}]} payload. Entries are trimmed,
// sorted ascending by rank (stable, ties keep source order). When two terms
// normalize to the same key the later entry of the sorted sequence wins the
// lookup; both stay visible in the ordered listing.
func Load(raw []byte) (*Lexicon, error) {
	var src sourceFile
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	entries := make([]Entry, 0, len(src.Words))
	for i, w := range src.Words {
		if w.Term == nil {
			return nil, fmt.Errorf("lexicon word #%d: missing term", i)
		}
		term := strings.TrimSpace(*w.Term)
		if term == "" {
			return nil, fmt.Errorf("lexicon word #%d: empty term", i)
		}
		entries = append(entries, Entry{Term: term, Rank: w.Rank, Key: textnorm.Normalize(term)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })

	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}
	return &Lexicon{ordered: entries, byKey: byKey}, nil
}

// LoadFile loads from path, or the embedded default list when path is empty.
func LoadFile(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		raw, err := fs.ReadFile(defaultFiles, "banter_words.json")
		if err != nil {
			return nil, fmt.Errorf("read embedded lexicon: %w", err)
		}
		return Load(raw)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Load(raw)
}

// Ordered returns the full rank-sorted sequence.
func (l *Lexicon) Ordered() []Entry { return l.ordered }

// ByKey looks up an entry by normalized key.
func (l *Lexicon) ByKey(key string) (Entry, bool) {
	e, ok := l.byKey[key]
	return e, ok
}

// Contains reports whether key maps to a known entry.
func (l *Lexicon) Contains(key string) bool {
	_, ok := l.byKey[key]
	return ok
}

// Len returns the number of loaded entries.
func (l *Lexicon) Len() int { return len(l.ordered) }

// RankedListing renders the "rank. term" lines returned by the list command.
func (l *Lexicon) RankedListing() string {
	var b strings.Builder
	for i, e := range l.ordered {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", e.Rank, e.Term)
	}
	return b.String()
}
