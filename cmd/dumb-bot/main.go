package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"connect-arena/internal/bot"
	"connect-arena/internal/config"
	"connect-arena/internal/game"
	"connect-arena/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type frame struct {
	Event  string          `json:"event"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data"`
}

type intent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	GameID   string `json:"game_id,omitempty"`
	Column   *int   `json:"column,omitempty"`
}

// player tracks the one game the client is seated in.
type player struct {
	username string
	gameID   string
	token    game.Token
	finished int
}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	closer, err := logging.Init(logCfg)
	if err != nil {
		panic(err)
	}
	defer closer.Close()
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.WSURL, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.WSURL).Msg("dial failed")
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	p := &player{username: cfg.Username}
	if err := conn.WriteJSON(intent{Type: "join_queue", Username: p.username}); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}
	log.Info().Str("username", p.username).Str("url", cfg.WSURL).Msg("bot_queued")

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			log.Info().Err(err).Msg("bot_disconnected")
			return
		}
		reply, done := p.handle(f)
		if done && cfg.Games > 0 && p.finished >= cfg.Games {
			log.Info().Int("games", p.finished).Msg("bot_done")
			return
		}
		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				log.Warn().Err(err).Msg("bot_write_failed")
				return
			}
		}
	}
}

// handle returns the intent to send in response to f, if any, and whether f
// ended the current game.
func (p *player) handle(f frame) (*intent, bool) {
	switch f.Event {
	case "game_start":
		var d struct {
			YourToken int `json:"your_token"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return nil, false
		}
		p.gameID = f.GameID
		p.token = game.Token(d.YourToken)
		log.Info().Str("game_id", p.gameID).Int("token", d.YourToken).Msg("bot_game_started")
	case "game_state", "move_made":
		var d struct {
			Board     [][]int `json:"board"`
			TurnToken int     `json:"turn_token"`
			Winner    string  `json:"winner"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil || f.GameID != p.gameID {
			return nil, false
		}
		if d.Winner != "" {
			return p.gameOver(d.Winner)
		}
		if game.Token(d.TurnToken) != p.token {
			return nil, false
		}
		return p.move(d.Board), false
	case "game_result", "game_forfeited":
		var d struct {
			Winner string `json:"winner"`
		}
		_ = json.Unmarshal(f.Data, &d)
		return p.gameOver(d.Winner)
	case "error":
		log.Warn().RawJSON("data", f.Data).Msg("bot_server_error")
	}
	return nil, false
}

func (p *player) move(grid [][]int) *intent {
	b, err := game.BoardFromGrid(grid)
	if err != nil {
		log.Warn().Err(err).Msg("bot_bad_board")
		return nil
	}
	col := bot.ChooseMove(b, p.token, p.token.Opponent())
	if col == bot.NoMove {
		return nil
	}
	return &intent{Type: "make_move", GameID: p.gameID, Column: &col}
}

// gameOver requeues for the next game.
func (p *player) gameOver(winner string) (*intent, bool) {
	log.Info().Str("game_id", p.gameID).Str("winner", winner).Msg("bot_game_over")
	p.finished++
	p.gameID = ""
	p.token = game.Empty
	return &intent{Type: "join_queue", Username: p.username}, true
}
