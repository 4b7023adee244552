package viewmodel

import "connect-arena/internal/game"

type PlayerView struct {
	Username string `json:"username"`
	Token    int    `json:"token"`
	IsBot    bool   `json:"is_bot"`
}

type MoveView struct {
	Player string `json:"player"`
	Token  int    `json:"token"`
	Column int    `json:"column"`
	Row    int    `json:"row"`
	TS     int64  `json:"ts"`
}

// SessionView is the full snapshot sent on rejoin and served by lookups of
// live sessions.
type SessionView struct {
	GameID    string       `json:"game_id"`
	Players   []PlayerView `json:"players"`
	Board     [][]int      `json:"board"`
	Moves     []MoveView   `json:"moves"`
	TurnToken int          `json:"turn_token"`
}

func BuildPlayers(seats []game.Seat) []PlayerView {
	out := make([]PlayerView, 0, len(seats))
	for _, s := range seats {
		out = append(out, PlayerView{Username: s.Username, Token: int(s.Token), IsBot: s.IsBot})
	}
	return out
}

func BuildMove(m game.Move) MoveView {
	return MoveView{
		Player: m.Player,
		Token:  int(m.Token),
		Column: m.Column,
		Row:    m.Row,
		TS:     m.At.UnixMilli(),
	}
}

func BuildMoves(moves []game.Move) []MoveView {
	out := make([]MoveView, 0, len(moves))
	for _, m := range moves {
		out = append(out, BuildMove(m))
	}
	return out
}

func BuildSession(gameID string, seats []game.Seat, b *game.Board, moves []game.Move, turn game.Token) SessionView {
	return SessionView{
		GameID:    gameID,
		Players:   BuildPlayers(seats),
		Board:     b.Grid(),
		Moves:     BuildMoves(moves),
		TurnToken: int(turn),
	}
}
