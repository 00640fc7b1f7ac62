package domain

import "time"

// BanterRun is one finished rally: everything between the first successful
// opener and the fall back to the opener phase. Only rallies with a positive
// score are recorded.
type BanterRun struct {
	ID          int64
	SessionHash string
	Score       int
	Turns       int
	Outcome     string // reset | wrong_name | bad_volley | fumble
	StartedAt   time.Time
	EndedAt     time.Time
}
