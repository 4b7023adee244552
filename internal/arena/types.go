package arena

import (
	"sync"
	"time"

	"connect-arena/internal/game"
	"connect-arena/internal/store"
)

const (
	StatusActive   = "active"
	StatusFinished = "finished"

	ReasonConnectFour = "connect_four"
	ReasonBoardFull   = "board_full"
	ReasonBotNoMoves  = "bot_no_moves"
	ReasonForfeit     = "forfeit"

	DefaultMatchmakingTimeout = 10 * time.Second
	DefaultReconnectTimeout   = 30 * time.Second
	DefaultPersistTimeout     = 5 * time.Second
	DefaultBotName            = "BOT_COMPETITIVE"
)

// Entrant is a human joining through a transport connection. ClientID is
// the connection handle; Username is the client-supplied display name.
type Entrant struct {
	ClientID string
	Username string
}

type Options struct {
	Rows             int
	Cols             int
	ReconnectTimeout time.Duration
	PersistTimeout   time.Duration
	BotName          string
	NewID            func() string
	Now              func() time.Time
	// Observer is optional.
	Observer         Observer
}

func (o Options) withDefaults() Options {
	if o.Rows <= 0 {
		o.Rows = game.DefaultRows
	}
	if o.Cols <= 0 {
		o.Cols = game.DefaultCols
	}
	if o.ReconnectTimeout <= 0 {
		o.ReconnectTimeout = DefaultReconnectTimeout
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = DefaultPersistTimeout
	}
	if o.BotName == "" {
		o.BotName = DefaultBotName
	}
	if o.NewID == nil {
		o.NewID = store.NewID
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type player struct {
	game.Seat
	// conn is empty while the player is disconnected and always empty for
	// the bot.
	conn string
}

func (p *player) connected() bool {
	return !p.IsBot && p.conn != ""
}

type pendingTimer struct {
	timer *time.Timer
}

type session struct {
	mu sync.Mutex

	id        string
	players   [2]*player
	board     *game.Board
	moves     []game.Move
	turn      game.Token
	status    string
	createdAt time.Time
	// reconnect timers keyed by username
	timers map[string]*pendingTimer
}

func (s *session) byToken(t game.Token) *player {
	for _, p := range s.players {
		if p.Token == t {
			return p
		}
	}
	return nil
}

func (s *session) opponentOf(p *player) *player {
	return s.byToken(p.Token.Opponent())
}

// actor resolves the player submitting an intent: connection handle first,
// then display name. The bot seat is never resolved.
func (s *session) actor(clientID, username string) *player {
	if clientID != "" {
		for _, p := range s.players {
			if !p.IsBot && p.conn == clientID {
				return p
			}
		}
	}
	if username != "" {
		for _, p := range s.players {
			if !p.IsBot && p.Username == username {
				return p
			}
		}
	}
	return nil
}

func (s *session) seats() []game.Seat {
	out := make([]game.Seat, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.Seat)
	}
	return out
}

func (s *session) stopTimers() {
	for key, pt := range s.timers {
		pt.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *session) record(winner, reason string, finishedAt time.Time) store.GameRecord {
	players := make([]store.GamePlayer, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, store.GamePlayer{Username: p.Username, Token: int(p.Token), IsBot: p.IsBot})
	}
	moves := make([]store.GameMove, 0, len(s.moves))
	for _, m := range s.moves {
		moves = append(moves, store.GameMove{
			Player: m.Player,
			Token:  int(m.Token),
			Column: m.Column,
			Row:    m.Row,
			TS:     m.At.UnixMilli(),
		})
	}
	return store.GameRecord{
		ID:         s.id,
		Players:    players,
		Moves:      moves,
		Winner:     winner,
		Reason:     reason,
		Board:      s.board.Grid(),
		CreatedAt:  s.createdAt,
		FinishedAt: finishedAt,
		DurationMS: finishedAt.Sub(s.createdAt).Milliseconds(),
	}
}
