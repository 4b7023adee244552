package arena

import (
	"context"
	"errors"

	"connect-arena/internal/store"
)

// Sink receives each finished game exactly once.
type Sink interface {
	SaveGame(ctx context.Context, g store.GameRecord) error
}

type SinkFunc func(ctx context.Context, g store.GameRecord) error

func (f SinkFunc) SaveGame(ctx context.Context, g store.GameRecord) error { return f(ctx, g) }

// MultiSink saves to every sink in order and joins their errors; one failing
// sink does not skip the rest.
type MultiSink []Sink

func (m MultiSink) SaveGame(ctx context.Context, g store.GameRecord) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.SaveGame(ctx, g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Chain saves to each sink in order and stops at the first error, so later
// sinks only see games the earlier ones accepted.
type Chain []Sink

func (c Chain) SaveGame(ctx context.Context, g store.GameRecord) error {
	for _, s := range c {
		if s == nil {
			continue
		}
		if err := s.SaveGame(ctx, g); err != nil {
			return err
		}
	}
	return nil
}
