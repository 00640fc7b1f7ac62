package game

import "time"

// State is the per-session conversation record. A session is in the
// "awaiting answer" phase exactly when LastBotWord is non-empty; otherwise it
// is awaiting an opener. The zero-ish value from NewState is the reset form.
type State struct {
	Used           map[string]bool `json:"used"`             // normalized keys claimed by the user
	BotUsed        map[string]bool `json:"bot_used"`         // normalized keys spent by the bot
	Score          int             `json:"score"`
	Turns          int             `json:"turns"`
	LastBotWord    string          `json:"last_bot_word"`    // normalized key of the pending comeback
	LastBotDisplay string          `json:"last_bot_display"` // display form of the pending comeback
	StartedAt      time.Time       `json:"started_at"`
}

func NewState() *State {
	return &State{
		Used:    make(map[string]bool),
		BotUsed: make(map[string]bool),
	}
}

// normalizeMaps guards against states deserialized with nil sets.
func (s *State) normalizeMaps() {
	if s.Used == nil {
		s.Used = make(map[string]bool)
	}
	if s.BotUsed == nil {
		s.BotUsed = make(map[string]bool)
	}
}

func (s *State) awaitingAnswer() bool { return s.LastBotWord != "" }

func (s *State) blocked(key string) bool { return s.Used[key] || s.BotUsed[key] }
