package ws

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	IntentJoinQueue  = "join_queue"
	IntentLeaveQueue = "leave_queue"
	IntentMakeMove   = "make_move"
	IntentRejoinGame = "rejoin_game"
)

const codeInvalidRequest = "invalid_request"

var errInvalidRequest = errors.New(codeInvalidRequest)

// Intent is one inbound client message. Column is a pointer so that an
// absent column can be told apart from column 0.
type Intent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	GameID   string `json:"game_id,omitempty"`
	Column   *int   `json:"column,omitempty"`
}

// Frame is one outbound message.
type Frame struct {
	Event    string `json:"event"`
	GameID   string `json:"game_id,omitempty"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return errInvalidRequest }

func invalid(msg string) error { return &requestError{msg: msg} }

func isInvalidRequest(err error) bool { return errors.Is(err, errInvalidRequest) }

// decodeIntent parses and validates a raw client message.
func decodeIntent(raw []byte) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return Intent{}, invalid("malformed message")
	}
	in.Username = strings.TrimSpace(in.Username)
	in.GameID = strings.TrimSpace(in.GameID)

	switch in.Type {
	case IntentJoinQueue:
		if in.Username == "" {
			return Intent{}, invalid("username is required")
		}
	case IntentLeaveQueue:
	case IntentMakeMove:
		if in.GameID == "" {
			return Intent{}, invalid("game_id is required")
		}
		if in.Column == nil {
			return Intent{}, invalid("column must be a number")
		}
	case IntentRejoinGame:
		if in.Username == "" || in.GameID == "" {
			return Intent{}, invalid("username and game_id are required")
		}
	case "":
		return Intent{}, invalid("type is required")
	default:
		return Intent{}, invalid("unknown message type")
	}
	return in, nil
}
