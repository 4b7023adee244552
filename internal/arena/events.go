package arena

import (
	"connect-arena/internal/game"
	"connect-arena/internal/game/viewmodel"
)

const (
	EventWaitingForOpponent = "waiting_for_opponent"
	EventGameStart          = "game_start"
	EventGameState          = "game_state"
	EventMoveMade           = "move_made"
	EventGameResult         = "game_result"
	EventPlayerDisconnected = "player_disconnected"
	EventPlayerRejoined     = "player_rejoined"
	EventRejoinSuccess      = "rejoin_success"
	EventGameForfeited      = "game_forfeited"
	EventError              = "error"
)

// Event is one outbound message for a single client.
type Event struct {
	Name   string
	GameID string
	Data   any
}

// Notifier delivers events to transport clients. Notify is called with
// session locks held; it must not block nor call back into the arena.
type Notifier interface {
	Notify(clientID string, ev Event)
}

type NotifierFunc func(clientID string, ev Event)

func (f NotifierFunc) Notify(clientID string, ev Event) { f(clientID, ev) }

// Observer sees every game-level event once, whoever is connected. Observe
// runs with the session lock held and must not block. GameEnded follows the
// last event of a game.
type Observer interface {
	Observe(ev Event)
	GameEnded(gameID string)
}

type WaitingPayload struct {
	Message   string `json:"message"`
	TimeoutMS int64  `json:"timeout_ms"`
}

type GameStartPayload struct {
	GameID    string                 `json:"game_id"`
	Players   []viewmodel.PlayerView `json:"players"`
	Board     [][]int                `json:"board"`
	YourToken int                    `json:"your_token,omitempty"`
}

type GameStatePayload struct {
	Board     [][]int              `json:"board"`
	TurnToken int                  `json:"turn_token"`
	Moves     []viewmodel.MoveView `json:"moves"`
}

// MoveMadePayload carries Winner and WinningCoords only on the terminal
// move, and TurnToken only while the game continues.
type MoveMadePayload struct {
	Board         [][]int            `json:"board"`
	Move          viewmodel.MoveView `json:"move"`
	Winner        string             `json:"winner,omitempty"`
	WinningCoords []game.Cell        `json:"winning_coords,omitempty"`
	TurnToken     int                `json:"turn_token,omitempty"`
}

type GameResultPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

type PlayerDisconnectedPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	GraceMS  int64  `json:"grace_ms"`
}

type PlayerRejoinedPayload struct {
	Username string `json:"username"`
}

type GameForfeitedPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEvent builds the error event sent back to the client whose intent
// failed.
func ErrorEvent(gameID string, err error) Event {
	return Event{
		Name:   EventError,
		GameID: gameID,
		Data:   ErrorPayload{Code: ErrorCode(err), Message: ErrorMessage(err)},
	}
}

func (r *Registry) broadcast(s *session, name string, data any) {
	for _, p := range s.players {
		if p.connected() {
			r.notifier.Notify(p.conn, Event{Name: name, GameID: s.id, Data: data})
		}
	}
	r.observe(Event{Name: name, GameID: s.id, Data: data})
}

func (r *Registry) observe(ev Event) {
	if r.opts.Observer != nil {
		r.opts.Observer.Observe(ev)
	}
}

func (r *Registry) observeEnd(gameID string) {
	if r.opts.Observer != nil {
		r.opts.Observer.GameEnded(gameID)
	}
}

func (r *Registry) emitGameState(s *session) {
	r.broadcast(s, EventGameState, GameStatePayload{
		Board:     s.board.Grid(),
		TurnToken: int(s.turn),
		Moves:     viewmodel.BuildMoves(s.moves),
	})
}
