package platforms

import "context"

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a rendered announcement. Payload is the structured body used
// by adapters that forward machine-readable JSON instead of a chat card.
type Message struct {
	Title       string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
	Payload     any
}

type Adapter interface {
	Name() string
	Send(ctx context.Context, endpoint, secret string, msg Message) error
}
