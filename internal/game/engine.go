package game

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/notyourbuddy/internal/domain"
	"github.com/kapu/notyourbuddy/internal/history"
	"github.com/kapu/notyourbuddy/internal/lexicon"
	"github.com/kapu/notyourbuddy/internal/msgcat"
	"github.com/kapu/notyourbuddy/internal/obslog"
	"github.com/kapu/notyourbuddy/internal/phrase"
	"github.com/kapu/notyourbuddy/internal/textnorm"
	"github.com/kapu/notyourbuddy/pkg/banterdto"
)

// Message catalog keys with their hard-coded fallbacks.
const (
	keyNotYour      = "banter.not_your"
	keyNiceTry      = "banter.nice_try"
	keyNiceTryPlain = "banter.nice_try_plain"
	keyCallout      = "banter.callout"
	keyOk           = "banter.ok"
	keyHi           = "banter.hi"
	keyFreshStart   = "banter.fresh_start"
	keyEmptyPrompt  = "banter.empty_prompt"
	keySayWhat      = "banter.say_what"
	keyFallbackWord = "banter.fallback_word"
)

// Reserved side-channel commands. Exact lower-cased literals, never patterns.
var listCommands = map[string]bool{
	"::list":      true,
	"/list":       true,
	"/words":      true,
	"/ranked":     true,
	"list please": true,
	"show list":   true,
}

const resetCommand = "::reset"

// Engine drives one conversation turn: validates input, consults the
// extractor and lexicon, applies the game rules, mutates the session state
// and picks the comeback. All failure paths stay in character.
type Engine struct {
	lex   *lexicon.Lexicon
	store Store
	cat   *msgcat.Catalog
	repo  history.Repository

	rngMu sync.Mutex
	rng   *rand.Rand

	// Striped per-session locks: a chat turn is one critical section per
	// session, never across sessions.
	locks [64]sync.Mutex
}

type Option func(*Engine)

// WithHistory attaches a run archive; finished rallies get recorded there.
func WithHistory(repo history.Repository) Option {
	return func(e *Engine) { e.repo = repo }
}

// WithRand overrides the random source (tests pin the comeback choice).
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func NewEngine(lex *lexicon.Lexicon, store Store, cat *msgcat.Catalog, opts ...Option) *Engine {
	e := &Engine{
		lex:   lex,
		store: store,
		cat:   cat,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Chat handles one turn for the given session and returns the reply contract.
// An error is returned only for store failures; every game outcome, including
// rule violations, is a normal reply.
func (e *Engine) Chat(ctx context.Context, sessionID, message string) (*banterdto.ChatResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	st, err := e.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stripped := strings.TrimSpace(message)
	if stripped == "" {
		reply := e.text(keyEmptyPrompt, nil, "You gotta give me something, buddy.")
		return &banterdto.ChatResult{Reply: reply, Score: st.Score}, nil
	}

	lowered := strings.ToLower(stripped)
	if listCommands[lowered] {
		return &banterdto.ChatResult{Reply: e.lex.RankedListing(), Score: st.Score, Command: true}, nil
	}
	if lowered == resetCommand {
		e.finishRun(ctx, sessionID, st, "reset")
		if err := e.store.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		obslog.L().Info("session_reset", zap.String("session", sessionHash(sessionID)))
		reply := appendScoreSuffix(e.text(keyFreshStart, nil, "Fresh start. Hit me again."), 0)
		return &banterdto.ChatResult{Reply: reply, Score: 0, Command: true}, nil
	}

	if st.awaitingAnswer() {
		return e.volley(ctx, sessionID, st, stripped)
	}
	return e.opener(ctx, sessionID, st, stripped)
}

// InvalidInputReply is the in-character line for a malformed message body.
// State is left untouched; the transport signals the client error.
func (e *Engine) InvalidInputReply() string {
	return e.text(keySayWhat, nil, "Say what now?")
}

// Score reports the current score without advancing the game.
func (e *Engine) Score(ctx context.Context, sessionID string) (int, error) {
	st, err := e.loadState(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return st.Score, nil
}

// opener handles the first game turn of a session: the last word-like token
// of the message must name a known term.
func (e *Engine) opener(ctx context.Context, sessionID string, st *State, msg string) (*banterdto.ChatResult, error) {
	word, count, ok := phrase.LastWord(msg)
	if !ok {
		return e.failTurn(ctx, sessionID, st, "fumble", e.text(keyOk, nil, "Ok."), 0)
	}
	key := textnorm.Normalize(word)
	if key == "" || !e.lex.Contains(key) {
		fallback := e.text(keyOk, nil, "Ok.")
		if count == 1 {
			// a single bare word earns a friendlier shrug
			fallback = e.text(keyHi, nil, "Hi")
		}
		return e.failTurn(ctx, sessionID, st, "fumble", fallback, 0)
	}

	st.Used[key] = true
	st.Score = 1
	st.Turns = 1
	st.StartedAt = time.Now()
	reply := e.respondNotYour(st, word, word)
	if err := e.store.Put(ctx, sessionID, st); err != nil {
		return nil, err
	}
	obslog.L().Debug("opener_accepted",
		zap.String("session", sessionHash(sessionID)),
		zap.String("term", key),
	)
	return &banterdto.ChatResult{Reply: reply, Score: st.Score}, nil
}

// volley handles the answer phase: the user must echo the bot's pending word
// and supply a fresh term of their own.
func (e *Engine) volley(ctx context.Context, sessionID string, st *State, msg string) (*banterdto.ChatResult, error) {
	terms := phrase.FollowupTerms(msg)
	if terms == nil {
		return e.failTurn(ctx, sessionID, st, "fumble", e.text(keyOk, nil, "Ok."), 0)
	}
	answer1, answer2 := terms[0], terms[1]
	key1 := textnorm.Normalize(answer1)
	key2 := textnorm.Normalize(answer2)
	if key1 == "" || key2 == "" {
		return e.failTurn(ctx, sessionID, st, "fumble", e.text(keyOk, nil, "Ok."), 0)
	}

	if key1 != st.LastBotWord {
		// wrong name: call the user out with the word they should have used,
		// keeping the old score in the sign-off
		callout := st.LastBotDisplay
		if callout == "" {
			callout = st.LastBotWord
		}
		if callout == "" {
			callout = e.text(keyFallbackWord, nil, "buddy")
		}
		data := map[string]string{"Word": strings.TrimSpace(callout)}
		base := e.text(keyNiceTry, data, fmt.Sprintf("Nice try, %s.", strings.TrimSpace(callout)))
		return e.failTurn(ctx, sessionID, st, "wrong_name", base, st.Score)
	}

	if !e.lex.Contains(key2) || st.blocked(key2) {
		return e.failTurn(ctx, sessionID, st, "bad_volley", e.niceTry(st, answer2), 0)
	}

	st.Used[key2] = true
	st.Score++
	st.Turns++
	reply := e.respondNotYour(st, answer2, answer2)
	if err := e.store.Put(ctx, sessionID, st); err != nil {
		return nil, err
	}
	return &banterdto.ChatResult{Reply: reply, Score: st.Score}, nil
}

// respondNotYour picks the next comeback (disallowing the user's term),
// records it as the pending word and renders the standard rejection line.
func (e *Engine) respondNotYour(st *State, nickname, disallow string) string {
	comeback := e.comeback(st, disallow)
	st.LastBotWord = textnorm.Normalize(comeback)
	st.LastBotDisplay = comeback
	data := map[string]string{"Nickname": strings.TrimSpace(nickname), "Comeback": comeback}
	return e.text(keyNotYour, data, fmt.Sprintf("I'm not your %s, %s.", strings.TrimSpace(nickname), comeback))
}

// niceTry builds the rejection for an invalid or repeated second term: a
// fresh comeback plus a callout of the offending word.
func (e *Engine) niceTry(st *State, offending string) string {
	var base string
	if word, ok := e.pickReplyWord(st, offending); ok {
		base = e.text(keyNiceTry, map[string]string{"Word": word}, fmt.Sprintf("Nice try, %s.", word))
	} else {
		base = e.text(keyNiceTryPlain, nil, "Nice try.")
	}
	nick := strings.TrimSpace(offending)
	callout := e.text(keyCallout, map[string]string{"Nickname": nick}, fmt.Sprintf("I'm not your %s.", nick))
	return base + " " + callout
}

// failTurn ends the rally: record it when scored, wipe the session, reply in
// character. suffixScore is the score printed in the sign-off; the reported
// score is always 0 after a failure.
func (e *Engine) failTurn(ctx context.Context, sessionID string, st *State, outcome, base string, suffixScore int) (*banterdto.ChatResult, error) {
	e.finishRun(ctx, sessionID, st, outcome)
	if err := e.store.Clear(ctx, sessionID); err != nil {
		return nil, err
	}
	return &banterdto.ChatResult{Reply: appendScoreSuffix(base, suffixScore), Score: 0}, nil
}

func (e *Engine) finishRun(ctx context.Context, sessionID string, st *State, outcome string) {
	if e.repo == nil || st == nil || st.Score <= 0 {
		return
	}
	run := &domain.BanterRun{
		SessionHash: sessionHash(sessionID),
		Score:       st.Score,
		Turns:       st.Turns,
		Outcome:     outcome,
		StartedAt:   st.StartedAt,
		EndedAt:     time.Now(),
	}
	if _, err := e.repo.InsertRun(ctx, run); err != nil {
		obslog.L().Warn("run_insert_failed", zap.String("session", run.SessionHash), zap.Error(err))
		return
	}
	obslog.L().Info("run_recorded",
		zap.String("session", run.SessionHash),
		zap.Int("score", run.Score),
		zap.String("outcome", outcome),
	)
}

func (e *Engine) loadState(ctx context.Context, sessionID string) (*State, error) {
	st, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = NewState()
	}
	st.normalizeMaps()
	return st, nil
}

func (e *Engine) text(key string, data any, fallback string) string {
	if e.cat == nil {
		return fallback
	}
	s, err := e.cat.Render(key, data)
	if err != nil {
		obslog.L().Warn("msgcat_render_failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return s
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &e.locks[h.Sum32()%uint32(len(e.locks))]
}

// appendScoreSuffix terminates the sentence and signs off with the score.
func appendScoreSuffix(message string, score int) string {
	base := strings.TrimSpace(message)
	if base == "" {
		base = "Ok."
	}
	switch base[len(base)-1] {
	case '.', '!', '?':
	default:
		base += "."
	}
	return fmt.Sprintf("%s Score: %d.", base, score)
}

func sessionHash(sessionID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return hex.EncodeToString(sum[:])[:16]
}
