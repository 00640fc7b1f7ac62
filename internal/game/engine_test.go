package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/kapu/notyourbuddy/internal/history"
	"github.com/kapu/notyourbuddy/internal/lexicon"
	"github.com/kapu/notyourbuddy/internal/msgcat"
	"github.com/kapu/notyourbuddy/internal/textnorm"
)

const threeWordLexicon = `{"words":[
	{"term":"Buddy","rank":1},
	{"term":"Pal","rank":2},
	{"term":"Chief","rank":3}
]}`

func newTestEngine(t *testing.T, lexJSON string, opts ...Option) (*Engine, Store) {
	t.Helper()
	lex, err := lexicon.Load([]byte(lexJSON))
	if err != nil {
		t.Fatalf("lexicon.Load: %v", err)
	}
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	store := NewMemoryStore()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(7)))}, opts...)
	return NewEngine(lex, store, cat, opts...), store
}

// comebackOf pulls the comeback out of "I'm not your X, <comeback>."
func comebackOf(t *testing.T, reply, nickname string) string {
	t.Helper()
	prefix := fmt.Sprintf("I'm not your %s, ", nickname)
	if !strings.HasPrefix(reply, prefix) || !strings.HasSuffix(reply, ".") {
		t.Fatalf("reply %q does not match %q...%q", reply, prefix, ".")
	}
	return strings.TrimSuffix(strings.TrimPrefix(reply, prefix), ".")
}

func TestOpenerThenVolley(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 1 || res.Command {
		t.Fatalf("opener: score=%d command=%v", res.Score, res.Command)
	}
	comeback := comebackOf(t, res.Reply, "Buddy")
	if comeback != "Pal" && comeback != "Chief" {
		t.Fatalf("comeback %q not in remaining pool", comeback)
	}

	next := "Chief"
	if comeback == "Chief" {
		next = "Pal"
	}
	res, err = e.Chat(ctx, "s1", fmt.Sprintf("I'm not your %s, %s", comeback, next))
	if err != nil {
		t.Fatalf("Chat volley: %v", err)
	}
	if res.Score != 2 {
		t.Fatalf("volley score = %d, want 2", res.Score)
	}
	got := comebackOf(t, res.Reply, next)
	if got == "" {
		t.Fatalf("expected a comeback in %q", res.Reply)
	}
}

func TestUnknownOpener(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Zorg")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "Ok. Score: 0." || res.Score != 0 {
		t.Fatalf("multi-word unknown opener: %q score=%d", res.Reply, res.Score)
	}

	res, err = e.Chat(ctx, "s1", "Zorg")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "Hi. Score: 0." || res.Score != 0 {
		t.Fatalf("single-word unknown opener: %q score=%d", res.Reply, res.Score)
	}
}

func TestNoWordTokens(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	res, err := e.Chat(context.Background(), "s1", "?!?!")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "Ok. Score: 0." || res.Score != 0 {
		t.Fatalf("got %q score=%d", res.Reply, res.Score)
	}
}

func TestWrongVolleyCallsOutPendingWord(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	pending := comebackOf(t, res.Reply, "Buddy")

	wrong := "Chief"
	if pending == "Chief" {
		wrong = "Pal"
	}
	res, err = e.Chat(ctx, "s1", fmt.Sprintf("I'm not your %s, Buddy", wrong))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := fmt.Sprintf("Nice try, %s. Score: 1.", pending)
	if res.Reply != want || res.Score != 0 {
		t.Fatalf("wrong volley: reply=%q score=%d, want %q score=0", res.Reply, res.Score, want)
	}

	// session is back in the opener phase
	res, err = e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("expected fresh opener after reset, score=%d", res.Score)
	}
}

func TestRepeatedSecondTermRejected(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	pending := comebackOf(t, res.Reply, "Buddy")

	// Buddy is already claimed by the user
	res, err = e.Chat(ctx, "s1", fmt.Sprintf("I'm not your %s, Buddy", pending))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 0 {
		t.Fatalf("repeated term: score=%d, want 0", res.Score)
	}
	if !strings.HasPrefix(res.Reply, "Nice try") {
		t.Fatalf("repeated term reply = %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "I'm not your Buddy.") {
		t.Fatalf("expected callout of offending word in %q", res.Reply)
	}
	if !strings.HasSuffix(res.Reply, "Score: 0.") {
		t.Fatalf("expected score sign-off in %q", res.Reply)
	}
}

func TestUnknownSecondTermRejected(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	pending := comebackOf(t, res.Reply, "Buddy")

	res, err = e.Chat(ctx, "s1", fmt.Sprintf("I'm not your %s, Zorg", pending))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 0 || !strings.HasPrefix(res.Reply, "Nice try") || !strings.Contains(res.Reply, "I'm not your Zorg.") {
		t.Fatalf("unknown second term: reply=%q score=%d", res.Reply, res.Score)
	}
}

func TestUnparseableVolleyResets(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	if _, err := e.Chat(ctx, "s1", "hey Buddy"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	res, err := e.Chat(ctx, "s1", "whatever man")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "Ok. Score: 0." || res.Score != 0 {
		t.Fatalf("unparseable volley: %q score=%d", res.Reply, res.Score)
	}
}

func TestExhaustionFallsBackToFixedWord(t *testing.T) {
	e, _ := newTestEngine(t, `{"words":[{"term":"Buddy","rank":1}]}`)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "I'm not your Buddy, buddy." || res.Score != 1 {
		t.Fatalf("exhausted pool opener: %q score=%d", res.Reply, res.Score)
	}

	// the fallback became the pending word, so it can still be volleyed at
	res, err = e.Chat(ctx, "s1", "I'm not your buddy, Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 0 || !strings.HasPrefix(res.Reply, "Nice try.") {
		t.Fatalf("expected plain nice-try on empty pool, got %q score=%d", res.Reply, res.Score)
	}
}

func TestListCommands(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	want := "1. Buddy\n2. Pal\n3. Chief"
	for _, cmd := range []string{"::list", "/list", "/words", "/ranked", "list please", "SHOW LIST"} {
		res, err := e.Chat(ctx, "s1", cmd)
		if err != nil {
			t.Fatalf("Chat(%q): %v", cmd, err)
		}
		if !res.Command || res.Reply != want {
			t.Fatalf("Chat(%q): command=%v reply=%q", cmd, res.Command, res.Reply)
		}
	}
}

func TestListDoesNotTouchState(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	pending := comebackOf(t, res.Reply, "Buddy")

	res, err = e.Chat(ctx, "s1", "::list")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("list should keep score, got %d", res.Score)
	}

	// the pending word is still live
	next := "Chief"
	if pending == "Chief" {
		next = "Pal"
	}
	res, err = e.Chat(ctx, "s1", fmt.Sprintf("not your %s, %s", pending, next))
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 2 {
		t.Fatalf("volley after list: score=%d", res.Score)
	}
}

func TestResetCommand(t *testing.T) {
	e, store := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	if _, err := e.Chat(ctx, "s1", "hey Buddy"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	res, err := e.Chat(ctx, "s1", "::reset")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !res.Command || res.Score != 0 || res.Reply != "Fresh start. Hit me again. Score: 0." {
		t.Fatalf("reset: command=%v score=%d reply=%q", res.Command, res.Score, res.Reply)
	}
	st, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st != nil {
		t.Fatalf("expected cleared state, got %+v", st)
	}
}

func TestEmptyInputKeepsState(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	if _, err := e.Chat(ctx, "s1", "hey Buddy"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	res, err := e.Chat(ctx, "s1", "   ")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply != "You gotta give me something, buddy." || res.Score != 1 {
		t.Fatalf("empty input: %q score=%d", res.Reply, res.Score)
	}
}

func TestUsedSetsStayDisjoint(t *testing.T) {
	e, store := newTestEngine(t, `{"words":[
		{"term":"Buddy","rank":1},{"term":"Pal","rank":2},{"term":"Chief","rank":3},
		{"term":"Champ","rank":4},{"term":"Sport","rank":5},{"term":"Ace","rank":6}
	]}`)
	ctx := context.Background()

	res, err := e.Chat(ctx, "s1", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	userTerms := []string{"Pal", "Chief", "Champ"}
	for _, term := range userTerms {
		pending := res.Reply[strings.LastIndex(res.Reply, ", ")+2 : len(res.Reply)-1]
		res, err = e.Chat(ctx, "s1", fmt.Sprintf("I'm not your %s, %s", pending, term))
		if err != nil {
			t.Fatalf("Chat(%s): %v", term, err)
		}
		if res.Score == 0 {
			// term collided with a bot pick; disjointness is still checkable
			break
		}
		st, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		for k := range st.Used {
			if st.BotUsed[k] {
				t.Fatalf("key %q in both Used and BotUsed", k)
			}
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	e, _ := newTestEngine(t, threeWordLexicon)
	ctx := context.Background()

	if _, err := e.Chat(ctx, "alpha", "hey Buddy"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	res, err := e.Chat(ctx, "beta", "hey Buddy")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("second session should start fresh, score=%d", res.Score)
	}
}

func TestRunsRecordedOnRallyEnd(t *testing.T) {
	repo := history.NewMemoryRepository()
	e, _ := newTestEngine(t, threeWordLexicon, WithHistory(repo))
	ctx := context.Background()

	if _, err := e.Chat(ctx, "s1", "hey Buddy"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, err := e.Chat(ctx, "s1", "::reset"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	runs, err := repo.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Score != 1 || runs[0].Outcome != "reset" || runs[0].Turns != 1 {
		t.Fatalf("run = %+v", runs[0])
	}

	// a zero-score fumble records nothing
	if _, err := e.Chat(ctx, "s2", "hey Zorg"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	runs, err = repo.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("zero-score rally must not be recorded, got %d runs", len(runs))
	}
}

func TestAppendScoreSuffix(t *testing.T) {
	cases := []struct {
		msg   string
		score int
		want  string
	}{
		{"Ok.", 0, "Ok. Score: 0."},
		{"Hi", 0, "Hi. Score: 0."},
		{"Nice try, Pal.", 3, "Nice try, Pal. Score: 3."},
		{"  ", 2, "Ok. Score: 2."},
		{"Whoa!", 1, "Whoa! Score: 1."},
	}
	for _, c := range cases {
		if got := appendScoreSuffix(c.msg, c.score); got != c.want {
			t.Fatalf("appendScoreSuffix(%q,%d) = %q, want %q", c.msg, c.score, got, c.want)
		}
	}
}

func TestPickReplyWordExcludesDisallow(t *testing.T) {
	e, _ := newTestEngine(t, `{"words":[{"term":"Buddy","rank":1},{"term":"Pal","rank":2}]}`)
	st := NewState()
	st.Used[textnorm.Normalize("Pal")] = true
	word, ok := e.pickReplyWord(st, "Buddy")
	if ok {
		t.Fatalf("expected empty pool, got %q", word)
	}
	st2 := NewState()
	word, ok = e.pickReplyWord(st2, "Buddy")
	if !ok || word != "Pal" {
		t.Fatalf("expected Pal, got %q ok=%v", word, ok)
	}
	if !st2.BotUsed[textnorm.Normalize("Pal")] {
		t.Fatalf("pick must mark the word as bot-used")
	}
}
