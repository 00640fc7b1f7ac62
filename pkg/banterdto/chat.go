package banterdto

import "time"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResult is the engine's response contract: an in-character reply, the
// session score, and a marker for the two reserved-command responses.
type ChatResult struct {
	Reply   string `json:"reply"`
	Score   int    `json:"score"`
	Command bool   `json:"command,omitempty"`
}

type WordItem struct {
	Rank int    `json:"rank"`
	Term string `json:"term"`
}

// ListResponse is the body of GET /_list.
type ListResponse struct {
	Words []WordItem `json:"words"`
}

type RunItem struct {
	Score   int       `json:"score"`
	Turns   int       `json:"turns"`
	Outcome string    `json:"outcome"`
	EndedAt time.Time `json:"ended_at"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	BestScore int       `json:"best_score"`
	Runs      []RunItem `json:"runs"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Words  int    `json:"words"`
}
