package arena

import (
	"fmt"
	"time"

	"connect-arena/internal/game/viewmodel"
	"connect-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// HandleDisconnect releases the connection handle in every active session the
// client plays in and arms a forfeit timer per affected player.
func (r *Registry) HandleDisconnect(clientID, username string) {
	for _, s := range r.activeSessions() {
		s.mu.Lock()
		if s.status == StatusActive {
			if p := s.disconnecting(clientID, username); p != nil {
				r.markDisconnectedLocked(s, p)
			}
		}
		s.mu.Unlock()
	}
}

// disconnecting matches the seat bound to clientID, or a seat already without
// a handle whose name matches. A seat rebound to another connection by a
// rejoin is left alone.
func (s *session) disconnecting(clientID, username string) *player {
	for _, p := range s.players {
		if p.IsBot {
			continue
		}
		if clientID != "" && p.conn == clientID {
			return p
		}
	}
	if username == "" {
		return nil
	}
	for _, p := range s.players {
		if !p.IsBot && p.conn == "" && p.Username == username {
			return p
		}
	}
	return nil
}

func (s *session) byName(username string) *player {
	for _, p := range s.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (r *Registry) markDisconnectedLocked(s *session, p *player) {
	p.conn = ""
	grace := r.opts.ReconnectTimeout
	log.Info().
		Str("game_id", s.id).
		Str("username", p.Username).
		Dur("grace", grace).
		Msg("player_disconnected")
	r.broadcast(s, EventPlayerDisconnected, PlayerDisconnectedPayload{
		Username: p.Username,
		Message:  fmt.Sprintf("%s disconnected. Waiting %ds for reconnect.", p.Username, int(grace/time.Second)),
		GraceMS:  grace.Milliseconds(),
	})

	key := p.Username
	if prev := s.timers[key]; prev != nil {
		prev.timer.Stop()
	}
	pt := &pendingTimer{}
	pt.timer = time.AfterFunc(grace, func() { r.expireReconnect(s, key, pt) })
	s.timers[key] = pt
}

// expireReconnect runs on the timer goroutine. It acts only if pt is still
// the armed timer for key and the player is still without a handle.
func (r *Registry) expireReconnect(s *session, key string, pt *pendingTimer) {
	s.mu.Lock()
	if s.timers[key] != pt {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}
	p := s.byName(key)
	if p == nil || p.connected() {
		s.mu.Unlock()
		return
	}
	rec := r.forfeitLocked(s, p)
	s.mu.Unlock()
	r.persist(rec)
}

// forfeitLocked ends the session against p. A bot forfeit is a draw.
func (r *Registry) forfeitLocked(s *session, p *player) store.GameRecord {
	winner := store.DrawWinner
	if !p.IsBot {
		if opp := s.opponentOf(p); opp != nil {
			winner = opp.Username
		}
	}
	metricForfeits.Add(1)
	rec := r.finishLocked(s, winner, ReasonForfeit)
	r.broadcast(s, EventGameForfeited, GameForfeitedPayload{
		Winner: winner,
		Reason: fmt.Sprintf("%s did not reconnect in time", p.Username),
	})
	return rec
}

// HandleReconnect rebinds username's seat in gameID to clientID, cancels its
// forfeit timer and sends the requester a full snapshot.
func (r *Registry) HandleReconnect(clientID, username, gameID string) error {
	s := r.lookup(gameID)
	if s == nil {
		return ErrGameNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return ErrGameNotFound
	}
	p := s.actor("", username)
	if p == nil {
		return ErrNotAParticipant
	}
	p.conn = clientID
	if pt := s.timers[p.Username]; pt != nil {
		pt.timer.Stop()
		delete(s.timers, p.Username)
	}
	metricReconnectsHandled.Add(1)
	log.Info().Str("game_id", s.id).Str("username", p.Username).Msg("player_rejoined")

	r.notifier.Notify(clientID, Event{
		Name:   EventRejoinSuccess,
		GameID: s.id,
		Data:   viewmodel.BuildSession(s.id, s.seats(), s.board, s.moves, s.turn),
	})
	r.broadcast(s, EventPlayerRejoined, PlayerRejoinedPayload{Username: p.Username})
	return nil
}
