package game

import "time"

// Move is one accepted drop. A session's move log is append-only.
type Move struct {
	Player string
	Token  Token
	Column int
	Row    int
	At     time.Time
}

// Seat is a session participant as seen by rules-level code.
type Seat struct {
	Username string
	Token    Token
	IsBot    bool
}
