package arena

import (
	"context"
	"sync"

	"connect-arena/internal/bot"
	"connect-arena/internal/game"
	"connect-arena/internal/game/viewmodel"
	"connect-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// Registry owns every active session. The registry lock guards only the map;
// all session state is guarded by the session's own lock, which is always
// taken first.
type Registry struct {
	opts     Options
	notifier Notifier
	sink     Sink

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewRegistry(opts Options, notifier Notifier, sink Sink) *Registry {
	if notifier == nil {
		notifier = NotifierFunc(func(string, Event) {})
	}
	return &Registry{
		opts:     opts.withDefaults(),
		notifier: notifier,
		sink:     sink,
		sessions: map[string]*session{},
	}
}

func (r *Registry) StartSession(a, b Entrant) (string, error) {
	return r.start(
		&player{Seat: game.Seat{Username: a.Username, Token: game.TokenA}, conn: a.ClientID},
		&player{Seat: game.Seat{Username: b.Username, Token: game.TokenB}, conn: b.ClientID},
	)
}

// StartBotSession seats the human first and the scripted opponent second.
func (r *Registry) StartBotSession(human Entrant) (string, error) {
	return r.start(
		&player{Seat: game.Seat{Username: human.Username, Token: game.TokenA}, conn: human.ClientID},
		&player{Seat: game.Seat{Username: r.opts.BotName, Token: game.TokenB, IsBot: true}},
	)
}

func (r *Registry) start(first, second *player) (string, error) {
	s := &session{
		id:        r.opts.NewID(),
		players:   [2]*player{first, second},
		board:     game.NewBoardSize(r.opts.Rows, r.opts.Cols),
		moves:     []game.Move{},
		turn:      game.TokenA,
		status:    StatusActive,
		createdAt: r.opts.Now(),
		timers:    map[string]*pendingTimer{},
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	r.sessions[s.id] = s
	r.mu.Unlock()

	metricSessionsStarted.Add(1)
	metricSessionsActive.Add(1)
	if second.IsBot {
		metricBotSessions.Add(1)
	}
	log.Info().
		Str("game_id", s.id).
		Str("player_a", first.Username).
		Str("player_b", second.Username).
		Bool("bot", second.IsBot).
		Msg("session_started")

	players := viewmodel.BuildPlayers(s.seats())
	for _, p := range s.players {
		if !p.connected() {
			continue
		}
		r.notifier.Notify(p.conn, Event{Name: EventGameStart, GameID: s.id, Data: GameStartPayload{
			GameID:    s.id,
			Players:   players,
			Board:     s.board.Grid(),
			YourToken: int(p.Token),
		}})
	}
	r.observe(Event{Name: EventGameStart, GameID: s.id, Data: GameStartPayload{
		GameID:  s.id,
		Players: players,
		Board:   s.board.Grid(),
	}})
	r.emitGameState(s)
	return s.id, nil
}

// ApplyPlayerMove validates and applies a human move, then lets a scripted
// opponent reply before returning. The finished game, if any, is persisted
// after the session has left the registry.
func (r *Registry) ApplyPlayerMove(gameID, clientID, username string, column int) error {
	s := r.lookup(gameID)
	if s == nil {
		metricMovesRejected.Add(1)
		return ErrGameNotFound
	}
	s.mu.Lock()
	rec, err := r.applyMoveLocked(s, clientID, username, column)
	s.mu.Unlock()
	if err != nil {
		metricMovesRejected.Add(1)
		return err
	}
	if rec != nil {
		r.persist(*rec)
	}
	return nil
}

func (r *Registry) applyMoveLocked(s *session, clientID, username string, column int) (*store.GameRecord, error) {
	if s.status != StatusActive {
		return nil, ErrGameNotFound
	}
	p := s.actor(clientID, username)
	if p == nil {
		return nil, ErrNotAParticipant
	}
	if p.Token != s.turn {
		return nil, ErrNotYourTurn
	}

	rec, err := r.playLocked(s, p, column)
	if err != nil || rec != nil {
		return rec, err
	}
	// A bot never faces a bot, so one human move yields at most one bot reply.
	if next := s.byToken(s.turn); next != nil && next.IsBot {
		return r.botTurnLocked(s, next)
	}
	return nil, nil
}

func (r *Registry) botTurnLocked(s *session, b *player) (*store.GameRecord, error) {
	col := bot.ChooseMove(s.board, b.Token, b.Token.Opponent())
	if col == bot.NoMove {
		rec := r.finishLocked(s, store.DrawWinner, ReasonBotNoMoves)
		r.broadcast(s, EventGameResult, GameResultPayload{Winner: store.DrawWinner, Reason: ReasonBotNoMoves})
		return &rec, nil
	}
	return r.playLocked(s, b, col)
}

// playLocked drops one token and resolves win, draw, or turn flip.
func (r *Registry) playLocked(s *session, p *player, column int) (*store.GameRecord, error) {
	row, err := s.board.Apply(column, p.Token)
	if err != nil {
		return nil, err
	}
	mv := game.Move{Player: p.Username, Token: p.Token, Column: column, Row: row, At: r.opts.Now()}
	s.moves = append(s.moves, mv)
	metricMovesApplied.Add(1)

	payload := MoveMadePayload{Board: s.board.Grid(), Move: viewmodel.BuildMove(mv)}
	if line, won := s.board.CheckWin(p.Token); won {
		rec := r.finishLocked(s, p.Username, ReasonConnectFour)
		payload.Winner = p.Username
		payload.WinningCoords = line
		r.broadcast(s, EventMoveMade, payload)
		return &rec, nil
	}
	if s.board.CheckDraw() {
		rec := r.finishLocked(s, store.DrawWinner, ReasonBoardFull)
		payload.Winner = store.DrawWinner
		r.broadcast(s, EventMoveMade, payload)
		return &rec, nil
	}
	s.turn = s.turn.Opponent()
	payload.TurnToken = int(s.turn)
	r.broadcast(s, EventMoveMade, payload)
	return nil, nil
}

// finishLocked moves the session to its terminal state and evicts it. The
// returned record is handed to the sink by the caller once the session lock
// is released.
func (r *Registry) finishLocked(s *session, winner, reason string) store.GameRecord {
	now := r.opts.Now()
	s.status = StatusFinished
	s.stopTimers()

	r.mu.Lock()
	delete(r.sessions, s.id)
	r.mu.Unlock()

	metricSessionsFinished.Add(1)
	metricSessionsActive.Add(-1)
	log.Info().
		Str("game_id", s.id).
		Str("winner", winner).
		Str("reason", reason).
		Int("moves", len(s.moves)).
		Msg("session_finished")
	return s.record(winner, reason, now)
}

func (r *Registry) persist(rec store.GameRecord) {
	r.observeEnd(rec.ID)
	if r.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.PersistTimeout)
	defer cancel()
	if err := r.sink.SaveGame(ctx, rec); err != nil {
		metricPersistErrors.Add(1)
		log.Error().Err(err).Str("game_id", rec.ID).Msg("game_persist_failed")
		return
	}
	log.Debug().Str("game_id", rec.ID).Str("winner", rec.Winner).Msg("game_persisted")
}

func (r *Registry) lookup(gameID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[gameID]
}

func (r *Registry) activeSessions() []*session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Snapshot returns the live view of an active session.
func (r *Registry) Snapshot(gameID string) (viewmodel.SessionView, bool) {
	s := r.lookup(gameID)
	if s == nil {
		return viewmodel.SessionView{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return viewmodel.SessionView{}, false
	}
	return viewmodel.BuildSession(s.id, s.seats(), s.board, s.moves, s.turn), true
}

func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every pending reconnect timer and rejects new sessions.
// Active sessions are dropped without being persisted.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	list := r.activeSessions()
	for _, s := range list {
		s.mu.Lock()
		s.stopTimers()
		s.mu.Unlock()
		r.observeEnd(s.id)
	}
	if len(list) > 0 {
		log.Warn().Int("active_sessions", len(list)).Msg("registry_closed_with_active_sessions")
	}
}
