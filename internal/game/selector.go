package game

import (
	"github.com/kapu/notyourbuddy/internal/lexicon"
	"github.com/kapu/notyourbuddy/internal/textnorm"
)

// pickReplyWord draws uniformly from the lexicon entries whose key is unused
// by either party and differs from normalize(disallow). The candidate list is
// computed fresh on every call; on success the chosen key joins st.BotUsed.
// Rank plays no part in selection.
func (e *Engine) pickReplyWord(st *State, disallow string) (string, bool) {
	disallowKey := textnorm.Normalize(disallow)
	var candidates []lexicon.Entry
	for _, entry := range e.lex.Ordered() {
		if st.blocked(entry.Key) {
			continue
		}
		if disallowKey != "" && entry.Key == disallowKey {
			continue
		}
		candidates = append(candidates, entry)
	}
	if len(candidates) == 0 {
		return "", false
	}
	e.rngMu.Lock()
	idx := e.rng.Intn(len(candidates))
	e.rngMu.Unlock()
	chosen := candidates[idx]
	st.BotUsed[chosen.Key] = true
	return chosen.Term, true
}

// comeback wraps pickReplyWord with the fixed fallback word used when the
// pool is exhausted. The fallback goes through the same lastBotWord update as
// a real pick, so a later volley can still name it.
func (e *Engine) comeback(st *State, disallow string) string {
	if term, ok := e.pickReplyWord(st, disallow); ok {
		return term
	}
	return e.text(keyFallbackWord, nil, "buddy")
}
