package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/notyourbuddy/internal/game"
	"github.com/kapu/notyourbuddy/internal/history"
	"github.com/kapu/notyourbuddy/internal/lexicon"
	"github.com/kapu/notyourbuddy/internal/obslog"
	"github.com/kapu/notyourbuddy/pkg/banterdto"
)

//go:embed index.html
var indexHTML []byte

// Server exposes the banter engine over HTTP: the chat page, the JSON chat
// endpoint and the side-channel listing/stats endpoints. Session identity
// rides a cookie; the engine only ever sees the opaque id.
type Server struct {
	engine       *game.Engine
	lex          *lexicon.Lexicon
	repo         history.Repository
	cookieName   string
	historyLimit int

	srv *fasthttp.Server
}

func NewServer(engine *game.Engine, lex *lexicon.Lexicon, repo history.Repository, cookieName string, historyLimit int) *Server {
	if strings.TrimSpace(cookieName) == "" {
		cookieName = "banter_session"
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}
	s := &Server{
		engine:       engine,
		lex:          lex,
		repo:         repo,
		cookieName:   cookieName,
		historyLimit: historyLimit,
	}
	s.srv = &fasthttp.Server{
		Handler: s.Handle,
		Name:    "notyourbuddy",
	}
	return s
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handle is the fasthttp entrypoint (exported so tests can drive it directly).
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/":
		s.handleIndex(ctx)
	case "/chat":
		if !ctx.IsPost() {
			s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "POST only")
			return
		}
		s.handleChat(ctx)
	case "/_list":
		s.handleList(ctx)
	case "/stats":
		s.handleStats(ctx)
	case "/healthz":
		s.writeJSON(ctx, fasthttp.StatusOK, banterdto.HealthResponse{Status: "ok", Words: s.lex.Len()})
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not_found", "no such endpoint")
	}
}

func (s *Server) handleIndex(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(indexHTML)
}

func (s *Server) handleChat(ctx *fasthttp.RequestCtx) {
	sessionID := s.sessionID(ctx)

	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	invalid := json.Unmarshal(ctx.PostBody(), &payload) != nil
	message := ""
	if !invalid && len(payload.Message) > 0 {
		// message must be a JSON string; null or any other type is a client error
		if string(payload.Message) == "null" || json.Unmarshal(payload.Message, &message) != nil {
			invalid = true
		}
	}
	if invalid {
		score, err := s.engine.Score(ctx, sessionID)
		if err != nil {
			score = 0
		}
		s.writeJSON(ctx, fasthttp.StatusBadRequest, banterdto.ChatResult{Reply: s.engine.InvalidInputReply(), Score: score})
		return
	}

	res, err := s.engine.Chat(ctx, sessionID, message)
	if err != nil {
		obslog.L().Error("chat_failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "internal", "try again later")
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, res)
}

func (s *Server) handleList(ctx *fasthttp.RequestCtx) {
	words := make([]banterdto.WordItem, 0, s.lex.Len())
	for _, e := range s.lex.Ordered() {
		words = append(words, banterdto.WordItem{Rank: e.Rank, Term: e.Term})
	}
	s.writeJSON(ctx, fasthttp.StatusOK, banterdto.ListResponse{Words: words})
}

func (s *Server) handleStats(ctx *fasthttp.RequestCtx) {
	limit := s.historyLimit
	if v := string(ctx.QueryArgs().Peek("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := s.repo.RecentRuns(ctx, limit)
	if err != nil {
		obslog.L().Error("stats_failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "internal", "stats unavailable")
		return
	}
	best, err := s.repo.BestScore(ctx)
	if err != nil {
		obslog.L().Error("stats_failed", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusInternalServerError, "internal", "stats unavailable")
		return
	}
	resp := banterdto.StatsResponse{BestScore: best, Runs: make([]banterdto.RunItem, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, banterdto.RunItem{Score: r.Score, Turns: r.Turns, Outcome: r.Outcome, EndedAt: r.EndedAt})
	}
	s.writeJSON(ctx, fasthttp.StatusOK, resp)
}

// sessionID returns the session cookie value, issuing a fresh id when absent.
func (s *Server) sessionID(ctx *fasthttp.RequestCtx) string {
	if v := ctx.Request.Header.Cookie(s.cookieName); len(v) > 0 {
		return string(v)
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(s.cookieName)
	c.SetValue(id)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	ctx.Response.Header.SetCookie(c)
	return id
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	s.writeJSON(ctx, status, banterdto.DomainError{Code: code, Message: message})
}
